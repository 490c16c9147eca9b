package export

import (
	"image"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"

	"github.com/stateful/notes/internal/renderer/layout"
)

// painter composites the part of a scene covered by a band onto the
// surface, with the band's top at the surface origin.
type painter struct {
	fonts   *layout.Fonts
	surface *image.RGBA
	ctx     *freetype.Context
}

func newPainter(fonts *layout.Fonts, surface *image.RGBA) *painter {
	c := freetype.NewContext()
	c.SetDPI(layout.DPI)
	c.SetDst(surface)
	c.SetHinting(font.HintingFull)
	return &painter{fonts: fonts, surface: surface, ctx: c}
}

func (p *painter) paint(scene *layout.Scene, band Band) error {
	clip := image.Rect(0, 0, scene.Width, band.Height)
	draw.Draw(p.surface, clip, image.NewUniform(layout.White), image.Point{}, draw.Src)
	p.ctx.SetClip(clip)

	var err error
	scene.Root.Walk(func(b *layout.Box) bool {
		if err != nil || b.Y >= band.Bottom() || b.Bottom() <= band.Y {
			return false
		}
		for _, r := range b.Rules {
			p.rule(r, band, clip)
		}
		for _, l := range b.Lines {
			if l.Y >= band.Bottom() || l.Y+l.Height <= band.Y {
				continue
			}
			if err = p.line(l, band, clip); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

func (p *painter) rule(r layout.Rule, band Band, clip image.Rectangle) {
	rect := r.Rect.Sub(image.Pt(0, band.Y))
	src := image.NewUniform(r.Color)
	if !r.Outline {
		draw.Draw(p.surface, rect.Intersect(clip), src, image.Point{}, draw.Src)
		return
	}
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1),
		image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y),
		image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(p.surface, edge.Intersect(clip), src, image.Point{}, draw.Src)
	}
}

func (p *painter) line(l layout.Line, band Band, clip image.Rectangle) error {
	top := l.Y - band.Y
	baseline := l.Baseline - band.Y
	for _, r := range l.Runs {
		if r.Shade {
			rect := image.Rect(r.X-2, top+2, r.X+r.Width+2, top+l.Height-2)
			draw.Draw(p.surface, rect.Intersect(clip), image.NewUniform(layout.CodeShade), image.Point{}, draw.Src)
		}

		p.ctx.SetFont(p.fonts.Font(r.Style))
		p.ctx.SetFontSize(r.Size)
		p.ctx.SetSrc(image.NewUniform(r.Color))
		if _, err := p.ctx.DrawString(r.Text, freetype.Pt(r.X, baseline)); err != nil {
			return errors.Wrapf(err, "failed to draw %q", r.Text)
		}

		if r.Underline {
			rect := image.Rect(r.X, baseline+2, r.X+r.Width, baseline+3)
			draw.Draw(p.surface, rect.Intersect(clip), image.NewUniform(r.Color), image.Point{}, draw.Src)
		}
	}
	return nil
}
