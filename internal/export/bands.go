package export

import (
	"math"

	"github.com/stateful/notes/internal/renderer/layout"
)

const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
	MarginMM     = 10.0
	ImageWidthMM = 190.0
)

// Band is a horizontal slice of a scene emitted as one page.
type Band struct {
	Y      int
	Height int
}

func (b Band) Bottom() int {
	return b.Y + b.Height
}

// PageHeight returns the height in scene pixels of the content that fits
// one page when a scene of width pixels is scaled to the image width.
func PageHeight(width int) int {
	return int(math.Floor((PageHeightMM - 2*MarginMM) * float64(width) / ImageWidthMM))
}

// Bands slices a scene of height into consecutive bands of at most
// pageHeight. The bands cover the scene exactly once. With avoidBreaks, a
// band ends early at the top of an unbreakable box that would otherwise
// straddle its bottom, provided the box fits on a page of its own.
func Bands(scene *layout.Scene, pageHeight int, avoidBreaks bool) []Band {
	if scene == nil || scene.Height <= 0 || pageHeight <= 0 {
		return nil
	}

	var keep []*layout.Box
	if avoidBreaks {
		for _, b := range scene.Unbreakable() {
			if b.Height <= pageHeight {
				keep = append(keep, b)
			}
		}
	}

	var bands []Band
	for y := 0; y < scene.Height; {
		end := min(y+pageHeight, scene.Height)
		if end < scene.Height {
			for _, b := range keep {
				if b.Y > y && b.Y < end && b.Bottom() > end {
					end = b.Y
					break
				}
			}
		}
		bands = append(bands, Band{Y: y, Height: end - y})
		y = end
	}
	return bands
}
