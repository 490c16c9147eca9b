package layout

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DPI is the resolution scenes are laid out and rasterized at. Font sizes
// are in points.
const DPI = 96

// Style selects one of the faces of a font family.
type Style int

const (
	StyleRegular Style = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
	StyleMono
	numStyles
)

func (s Style) String() string {
	switch s {
	case StyleRegular:
		return "regular"
	case StyleBold:
		return "bold"
	case StyleItalic:
		return "italic"
	case StyleBoldItalic:
		return "bold-italic"
	case StyleMono:
		return "mono"
	default:
		return "unknown"
	}
}

func styleOf(bold, italic, mono bool) Style {
	switch {
	case mono:
		return StyleMono
	case bold && italic:
		return StyleBoldItalic
	case bold:
		return StyleBold
	case italic:
		return StyleItalic
	default:
		return StyleRegular
	}
}

var ttfs = [numStyles][]byte{
	StyleRegular:    goregular.TTF,
	StyleBold:       gobold.TTF,
	StyleItalic:     goitalic.TTF,
	StyleBoldItalic: gobolditalic.TTF,
	StyleMono:       gomono.TTF,
}

type faceKey struct {
	style Style
	size  float64
}

// Fonts is the Go font family parsed once and shared by layout and
// rasterization. It is safe for concurrent use.
type Fonts struct {
	fonts [numStyles]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// LoadFonts parses the embedded Go fonts.
func LoadFonts() (*Fonts, error) {
	f := &Fonts{faces: make(map[faceKey]font.Face)}
	for style, ttf := range ttfs {
		ft, err := truetype.Parse(ttf)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s font", Style(style))
		}
		f.fonts[style] = ft
	}
	return f, nil
}

var (
	defaultFonts     *Fonts
	defaultFontsErr  error
	defaultFontsOnce sync.Once
)

// DefaultFonts returns a process-wide Fonts instance.
func DefaultFonts() (*Fonts, error) {
	defaultFontsOnce.Do(func() {
		defaultFonts, defaultFontsErr = LoadFonts()
	})
	return defaultFonts, defaultFontsErr
}

// Font returns the parsed font of style.
func (f *Fonts) Font(s Style) *truetype.Font {
	if s < 0 || s >= numStyles {
		s = StyleRegular
	}
	return f.fonts[s]
}

// face must be called with mu held. Faces keep glyph caches and are not
// safe for concurrent use.
func (f *Fonts) face(s Style, size float64) font.Face {
	key := faceKey{style: s, size: size}
	if face, ok := f.faces[key]; ok {
		return face
	}
	face := truetype.NewFace(f.Font(s), &truetype.Options{
		Size:    size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	f.faces[key] = face
	return face
}

// Measure returns the advance width of text in pixels.
func (f *Fonts) Measure(s Style, size float64, text string) int {
	if text == "" {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return font.MeasureString(f.face(s, size), text).Ceil()
}

// Pixels converts a size in points to pixels.
func Pixels(pt float64) float64 {
	return pt * DPI / 72
}
