package layout

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/stateful/notes/pkg/document"
)

const (
	// DefaultWidth is the content width in pixels: 190mm at 96 DPI.
	DefaultWidth    = 718
	DefaultPadding  = 16
	DefaultFontSize = 11.0

	lineSpacing = 1.4
	indent      = 24
	cellPadding = 6
	quoteIndent = 12
)

var (
	White      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Foreground = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	Muted      = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	CodeShade  = color.RGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff}
	Border     = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	HeaderFill = color.RGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff}
)

type Options struct {
	// Width of the content area in pixels.
	Width int
	// Padding around the content area in pixels.
	Padding int
	// FontSize of body text in points.
	FontSize float64
	Fonts    *Fonts
}

func (o Options) withDefaults() (Options, error) {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Padding < 0 {
		o.Padding = 0
	} else if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Fonts == nil {
		fonts, err := DefaultFonts()
		if err != nil {
			return o, err
		}
		o.Fonts = fonts
	}
	return o, nil
}

// Run is a piece of text drawn with one style. X is the left edge of the
// run; its baseline is the baseline of the enclosing line.
type Run struct {
	Text      string
	X         int
	Width     int
	Style     Style
	Size      float64
	Color     color.RGBA
	Underline bool
	// Shade paints a background behind the run, used for inline code.
	Shade bool
}

// Line is one row of wrapped text.
type Line struct {
	Y        int
	Height   int
	Baseline int
	Runs     []Run
}

// Rule is a filled or outlined rectangle: quote bars, checkboxes, table
// borders.
type Rule struct {
	Rect    image.Rectangle
	Color   color.RGBA
	Outline bool
}

// Box is a positioned block. Coordinates are absolute within the scene.
type Box struct {
	Kind   document.Kind
	X      int
	Y      int
	Width  int
	Height int
	// Unbreakable boxes should not be split across pages.
	Unbreakable bool

	Rules    []Rule
	Lines    []Line
	Children []*Box
}

func (b *Box) Bottom() int {
	return b.Y + b.Height
}

// Walk visits b and its descendants depth-first until fn returns false.
func (b *Box) Walk(fn func(*Box) bool) {
	if b == nil || !fn(b) {
		return
	}
	for _, c := range b.Children {
		c.Walk(fn)
	}
}

// Scene is the paint tree of a document. Root is the content container
// spanning the whole scene.
type Scene struct {
	Title  string
	Width  int
	Height int
	Root   *Box
}

// Unbreakable returns the boxes that should not be split across pages,
// in document order.
func (s *Scene) Unbreakable() []*Box {
	var out []*Box
	s.Root.Walk(func(b *Box) bool {
		if b.Unbreakable {
			out = append(out, b)
			return false
		}
		return true
	})
	return out
}

// Layout positions the blocks of doc. Blocks are stacked vertically and
// text is wrapped to the content width.
func Layout(doc *document.Document, opts Options) (*Scene, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = document.Default()
	}

	e := &engine{fonts: opts.Fonts, size: opts.FontSize}
	children, bottom := e.blocks(doc.Blocks, opts.Padding, opts.Padding, opts.Width, e.gap())

	width := opts.Width + 2*opts.Padding
	height := bottom + opts.Padding
	return &Scene{
		Title:  doc.Title(),
		Width:  width,
		Height: height,
		Root: &Box{
			Width:    width,
			Height:   height,
			Children: children,
		},
	}, nil
}

type engine struct {
	fonts *Fonts
	size  float64
}

func (e *engine) px(pt float64) int {
	return int(math.Ceil(Pixels(pt)))
}

func (e *engine) gap() int {
	return e.px(e.size * 0.75)
}

// blocks stacks nodes from y, separated by gap, and returns the boxes and
// the bottom of the last one.
func (e *engine) blocks(nodes []*document.Node, x, y, width, gap int) ([]*Box, int) {
	var out []*Box
	for i, n := range nodes {
		if i > 0 {
			y += gap
		}
		b := e.block(n, x, y, width)
		out = append(out, b)
		y = b.Bottom()
	}
	return out, y
}

var headingScale = map[document.Kind]float64{
	document.KindHeading1: 2,
	document.KindHeading2: 1.5,
	document.KindHeading3: 1.25,
}

func (e *engine) block(n *document.Node, x, y, width int) *Box {
	switch n.Kind {
	case document.KindParagraph:
		return e.textBlock(n, x, y, width, textStyle{size: e.size, color: Foreground})
	case document.KindHeading1, document.KindHeading2, document.KindHeading3:
		return e.textBlock(n, x, y, width, textStyle{size: e.size * headingScale[n.Kind], bold: true, color: Foreground})
	case document.KindBulletList, document.KindNumberedList:
		return e.list(n, x, y, width)
	case document.KindListItem:
		return e.item(n, "•", x, y, width)
	case document.KindTaskItem:
		return e.task(n, x, y, width)
	case document.KindBlockquote:
		return e.quote(n, x, y, width)
	case document.KindTable:
		return e.table(n, x, y, width)
	case document.KindTableRow, document.KindTableCell, document.KindTableHeaderCell:
		return e.table(document.Element(document.KindTable, n), x, y, width)
	case document.KindMath:
		return e.displayMath(n, x, y, width)
	case document.KindText:
		return e.textBlock(document.Paragraph(n), x, y, width, textStyle{size: e.size, color: Foreground})
	}
	return e.textBlock(n, x, y, width, textStyle{size: e.size, color: Foreground})
}

func (e *engine) textBlock(n *document.Node, x, y, width int, style textStyle) *Box {
	lines := e.wrap(n.Children, x, y, width, style)
	return &Box{
		Kind:   n.Kind,
		X:      x,
		Y:      y,
		Width:  width,
		Height: linesHeight(lines),
		Lines:  lines,
	}
}

func (e *engine) list(n *document.Node, x, y, width int) *Box {
	box := &Box{Kind: n.Kind, X: x, Y: y, Width: width}
	cursor := y
	for i, c := range n.Children {
		if i > 0 {
			cursor += e.gap() / 3
		}
		marker := "•"
		if n.Kind == document.KindNumberedList {
			marker = strconv.Itoa(i+1) + "."
		}
		var b *Box
		if c.Kind == document.KindListItem {
			b = e.item(c, marker, x, cursor, width)
		} else {
			b = e.block(c, x+indent, cursor, width-indent)
		}
		box.Children = append(box.Children, b)
		cursor = b.Bottom()
	}
	box.Height = cursor - y
	return box
}

// item lays out the inline children of a list item after its marker and
// its nested blocks below, indented.
func (e *engine) item(n *document.Node, marker string, x, y, width int) *Box {
	split := 0
	for split < len(n.Children) && isInline(n.Children[split]) {
		split++
	}

	style := textStyle{size: e.size, color: Foreground}
	lines := e.wrap(n.Children[:split], x+indent, y, width-indent, style)
	if len(lines) > 0 {
		first := &lines[0]
		w := e.fonts.Measure(StyleRegular, e.size, marker)
		first.Runs = append([]Run{{
			Text:  marker,
			X:     x + indent - w - 6,
			Width: w,
			Style: StyleRegular,
			Size:  e.size,
			Color: Foreground,
		}}, first.Runs...)
	}

	box := &Box{Kind: n.Kind, X: x, Y: y, Width: width, Lines: lines}
	bottom := y + linesHeight(lines)
	if split < len(n.Children) {
		children, b := e.blocks(n.Children[split:], x+indent, bottom+e.gap()/3, width-indent, e.gap()/3)
		box.Children = children
		bottom = b
	}
	box.Height = bottom - y
	return box
}

func (e *engine) task(n *document.Node, x, y, width int) *Box {
	style := textStyle{size: e.size, color: Foreground}
	if n.Checked {
		style.color = Muted
	}
	box := e.textBlock(n, x+indent, y, width-indent, style)
	box.X, box.Width = x, width

	side := e.px(e.size * 0.9)
	top := y + (e.lineHeight(e.size)-side)/2
	if len(box.Lines) > 0 {
		top = box.Lines[0].Y + (box.Lines[0].Height-side)/2
	}
	check := image.Rect(x+4, top, x+4+side, top+side)
	box.Rules = append(box.Rules, Rule{Rect: check, Color: Muted, Outline: true})
	if n.Checked {
		box.Rules = append(box.Rules, Rule{Rect: check.Inset(3), Color: Foreground})
	}
	return box
}

func (e *engine) quote(n *document.Node, x, y, width int) *Box {
	box := e.textBlock(n, x+quoteIndent, y, width-quoteIndent, textStyle{size: e.size, italic: true, color: Muted})
	box.X, box.Width = x, width
	box.Rules = append(box.Rules, Rule{Rect: image.Rect(x, y, x+3, y+box.Height), Color: Border})
	return box
}

// table lays out rows on an equal-width column grid. Rows are as tall as
// their tallest cell.
func (e *engine) table(n *document.Node, x, y, width int) *Box {
	cols := 1
	for _, row := range n.Children {
		cols = max(cols, len(row.Children))
	}
	colWidth := width / cols

	box := &Box{Kind: document.KindTable, X: x, Y: y, Width: colWidth * cols, Unbreakable: true}
	cursor := y
	for _, row := range n.Children {
		rowBox := &Box{Kind: document.KindTableRow, X: x, Y: cursor, Width: box.Width}
		height := 0
		for i, cell := range row.Children {
			style := textStyle{size: e.size, color: Foreground}
			if cell.Kind == document.KindTableHeaderCell {
				style.bold = true
			}
			cx := x + i*colWidth
			lines := e.wrap(cell.Children, cx+cellPadding, cursor+cellPadding, colWidth-2*cellPadding, style)
			rowBox.Children = append(rowBox.Children, &Box{
				Kind:  cell.Kind,
				X:     cx,
				Y:     cursor,
				Width: colWidth,
				Lines: lines,
			})
			height = max(height, linesHeight(lines)+2*cellPadding)
		}
		for _, cell := range rowBox.Children {
			cell.Height = height
			rect := image.Rect(cell.X, cell.Y, cell.X+cell.Width, cell.Y+height)
			if cell.Kind == document.KindTableHeaderCell {
				cell.Rules = append(cell.Rules, Rule{Rect: rect, Color: HeaderFill})
			}
			cell.Rules = append(cell.Rules, Rule{Rect: rect, Color: Border, Outline: true})
		}
		rowBox.Height = height
		box.Children = append(box.Children, rowBox)
		cursor += height
	}
	box.Height = cursor - y
	return box
}

// displayMath centers the formula source on its own lines.
func (e *engine) displayMath(n *document.Node, x, y, width int) *Box {
	style := textStyle{size: e.size * 1.2, mono: true, color: Foreground}
	lines := e.wrap([]*document.Node{document.Text(n.Formula)}, x, y, width, style)
	for i := range lines {
		l := &lines[i]
		if len(l.Runs) == 0 {
			continue
		}
		last := l.Runs[len(l.Runs)-1]
		shift := (width - (last.X + last.Width - x)) / 2
		for j := range l.Runs {
			l.Runs[j].X += shift
		}
	}
	return &Box{
		Kind:        document.KindMath,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      linesHeight(lines),
		Lines:       lines,
		Unbreakable: true,
	}
}

func isInline(n *document.Node) bool {
	return n.Kind == document.KindText || n.Kind == document.KindMath
}

func linesHeight(lines []Line) int {
	h := 0
	for _, l := range lines {
		h += l.Height
	}
	return h
}
