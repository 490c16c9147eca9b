package export

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/renderer/layout"
)

// ErrContainerNotFound is returned when there is no content to export.
var ErrContainerNotFound = stderrors.New("export container not found")

type Options struct {
	// AvoidBreaks moves page breaks above tables and display math where
	// possible.
	AvoidBreaks bool
	// Progress is called after each band is captured.
	Progress func(done, total int)

	LoggerInstance *zap.Logger
}

// Exporter rasterizes scenes into paginated PDF documents. All exports of
// an Exporter share one offscreen surface; they run one at a time.
type Exporter struct {
	fonts  *layout.Fonts
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	surface *image.RGBA
}

func New(fonts *layout.Fonts, opts Options) *Exporter {
	logger := opts.LoggerInstance
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{fonts: fonts, opts: opts, logger: logger}
}

// Export writes scene to w as a PDF with one A4 page per band. Bands are
// composited and captured strictly in order. The context is checked
// before each band; on cancellation or any failure nothing is written.
func (e *Exporter) Export(ctx context.Context, scene *layout.Scene, w io.Writer) error {
	if scene == nil || scene.Root == nil || scene.Width <= 0 || scene.Height <= 0 {
		return errors.WithStack(ErrContainerNotFound)
	}

	fonts := e.fonts
	if fonts == nil {
		var err error
		if fonts, err = layout.DefaultFonts(); err != nil {
			return err
		}
	}

	pageHeight := PageHeight(scene.Width)
	bands := Bands(scene, pageHeight, e.opts.AvoidBreaks)

	e.mu.Lock()
	defer e.mu.Unlock()

	surface := e.acquire(scene.Width, pageHeight)
	p := newPainter(fonts, surface)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(scene.Title, true)

	imageOptions := gofpdf.ImageOptions{ImageType: "png"}
	scale := ImageWidthMM / float64(scene.Width)

	for i, band := range bands {
		if err := ctx.Err(); err != nil {
			e.logger.Info("export cancelled", zap.Int("band", i), zap.Int("bands", len(bands)))
			return err
		}

		if err := p.paint(scene, band); err != nil {
			return errors.Wrapf(err, "failed to paint band %d", i)
		}

		var raster bytes.Buffer
		encoder := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := encoder.Encode(&raster, surface.SubImage(image.Rect(0, 0, scene.Width, band.Height))); err != nil {
			return errors.Wrapf(err, "failed to encode band %d", i)
		}

		name := fmt.Sprintf("band-%d", i)
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, imageOptions, &raster)
		pdf.ImageOptions(name, MarginMM, MarginMM, ImageWidthMM, float64(band.Height)*scale, false, imageOptions, 0, "")
		if !pdf.Ok() {
			return errors.Wrapf(pdf.Error(), "failed to add band %d", i)
		}

		e.logger.Debug("captured band", zap.Int("band", i), zap.Int("y", band.Y), zap.Int("height", band.Height))
		if e.opts.Progress != nil {
			e.opts.Progress(i+1, len(bands))
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return errors.Wrap(err, "failed to write pdf")
	}
	_, err := w.Write(out.Bytes())
	return errors.WithStack(err)
}

// acquire returns the shared surface, growing it to fit width by height.
// It must be called with mu held.
func (e *Exporter) acquire(width, height int) *image.RGBA {
	if e.surface == nil || e.surface.Bounds().Dx() < width || e.surface.Bounds().Dy() < height {
		e.surface = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return e.surface
}
