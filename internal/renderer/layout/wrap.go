package layout

import (
	"image/color"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stateful/notes/pkg/document"
)

// textStyle is the style a block imposes on its text; marks of the leaves
// are added on top of it.
type textStyle struct {
	size   float64
	bold   bool
	italic bool
	mono   bool
	color  color.RGBA
}

type token struct {
	text      string
	style     Style
	size      float64
	color     color.RGBA
	underline bool
	shade     bool
	space     bool
	newline   bool
}

func (t token) sameStyle(r Run) bool {
	return t.style == r.Style && t.size == r.Size && t.color == r.Color &&
		t.underline == r.Underline && t.shade == r.Shade
}

func (e *engine) lineHeight(size float64) int {
	return int(math.Ceil(Pixels(size) * lineSpacing))
}

// tokenize splits inline nodes into words, runs of spaces and line breaks.
// Inline math is drawn as its source in the monospace face.
func tokenize(nodes []*document.Node, base textStyle) []token {
	var out []token
	for _, n := range nodes {
		var (
			value string
			t     = token{size: base.size, color: base.color}
		)
		switch n.Kind {
		case document.KindText:
			value = n.Value
			t.style = styleOf(base.bold || n.Marks.Bold, base.italic || n.Marks.Italic, base.mono || n.Marks.Code)
			t.underline = n.Marks.Underline
			t.shade = n.Marks.Code && !base.mono
		case document.KindMath:
			value = n.Formula
			t.style = StyleMono
		default:
			out = append(out, tokenize(n.Children, base)...)
			continue
		}

		for value != "" {
			r, _ := utf8.DecodeRuneInString(value)
			switch {
			case r == '\n':
				nl := t
				nl.newline = true
				out = append(out, nl)
				value = value[1:]
			case unicode.IsSpace(r):
				end := strings.IndexFunc(value, func(r rune) bool { return !unicode.IsSpace(r) || r == '\n' })
				if end < 0 {
					end = len(value)
				}
				sp := t
				sp.text, sp.space = value[:end], true
				out = append(out, sp)
				value = value[end:]
			default:
				end := strings.IndexFunc(value, unicode.IsSpace)
				if end < 0 {
					end = len(value)
				}
				w := t
				w.text = value[:end]
				out = append(out, w)
				value = value[end:]
			}
		}
	}
	return out
}

// wrap lays out inline nodes into lines no wider than width, breaking at
// spaces. Words wider than a line are broken between runes. The result has
// at least one line.
func (e *engine) wrap(nodes []*document.Node, x, y, width int, base textStyle) []Line {
	if width < 1 {
		width = 1
	}

	var (
		lines   []Line
		runs    []Run
		lineW   int
		maxSize float64
	)
	flush := func() {
		// Trailing spaces do not count toward the line.
		for len(runs) > 0 {
			last := &runs[len(runs)-1]
			trimmed := strings.TrimRightFunc(last.Text, unicode.IsSpace)
			if trimmed == last.Text {
				break
			}
			if trimmed == "" {
				runs = runs[:len(runs)-1]
				continue
			}
			last.Width -= e.fonts.Measure(last.Style, last.Size, last.Text[len(trimmed):])
			last.Text = trimmed
			break
		}
		size := maxSize
		if size == 0 {
			size = base.size
		}
		height := e.lineHeight(size)
		lines = append(lines, Line{
			Y:        y,
			Height:   height,
			Baseline: y + int(math.Ceil(Pixels(size)*1.1)),
			Runs:     runs,
		})
		y += height
		runs, lineW, maxSize = nil, 0, 0
	}
	add := func(t token, text string, w int) {
		if n := len(runs); n > 0 && t.sameStyle(runs[n-1]) {
			runs[n-1].Text += text
			runs[n-1].Width += w
		} else {
			runs = append(runs, Run{
				Text:      text,
				X:         x + lineW,
				Width:     w,
				Style:     t.style,
				Size:      t.size,
				Color:     t.color,
				Underline: t.underline,
				Shade:     t.shade,
			})
		}
		lineW += w
		maxSize = math.Max(maxSize, t.size)
	}

	for _, t := range tokenize(nodes, base) {
		switch {
		case t.newline:
			flush()
		case t.space:
			if len(runs) == 0 {
				continue
			}
			add(t, t.text, e.fonts.Measure(t.style, t.size, t.text))
		default:
			w := e.fonts.Measure(t.style, t.size, t.text)
			if lineW > 0 && lineW+w > width {
				flush()
			}
			if w <= width {
				add(t, t.text, w)
				continue
			}
			// Break an overlong word between runes.
			rest := t.text
			for rest != "" {
				n := e.fit(t, rest, width-lineW)
				if n == 0 {
					if lineW > 0 {
						flush()
						continue
					}
					_, n = utf8.DecodeRuneInString(rest)
				}
				part := rest[:n]
				add(t, part, e.fonts.Measure(t.style, t.size, part))
				rest = rest[n:]
				if rest != "" {
					flush()
				}
			}
		}
	}
	if len(runs) > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// fit returns the byte length of the longest prefix of s that fits in
// width.
func (e *engine) fit(t token, s string, width int) int {
	n := 0
	for i, r := range s {
		end := i + utf8.RuneLen(r)
		if e.fonts.Measure(t.style, t.size, s[:end]) > width {
			break
		}
		n = end
	}
	return n
}
