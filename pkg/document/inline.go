package document

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// inlineParser only knows paragraphs, code spans, emphasis and inline HTML.
// Everything else in its input is literal text.
var inlineParser = parser.NewParser(
	parser.WithBlockParsers(
		util.Prioritized(parser.NewParagraphParser(), 1000),
	),
	parser.WithInlineParsers(
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewRawHTMLParser(), 400),
		util.Prioritized(parser.NewEmphasisParser(), 500),
	),
)

// FormatInline turns a string with inline markdown markers into text leaves.
// Code spans are taken first and never re-scanned, "**"/"__" make bold and
// "*"/"_" make italic, "<u>...</u>" underlines. Unterminated markers stay
// literal. The result is never empty.
//
// Leaves are normalized like every line the deserializers read: whitespace
// around the text is trimmed, lines are joined by a single space, and
// whitespace at the edge of bold or italic text is not part of the mark. A
// string that is only whitespace is returned as a single leaf unchanged.
func FormatInline(s string) []*Node {
	if strings.TrimSpace(s) == "" {
		return []*Node{Text(s)}
	}

	source := []byte(s)
	root := inlineParser.Parse(text.NewReader(source))

	c := newInlineCollector(source)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if c.len() > 0 {
			c.newLine()
		}
		c.collect(n)
	}

	leaves := c.joined()
	if len(leaves) == 0 {
		return []*Node{Text("")}
	}
	return leaves
}

// segment is one line of inline content or a math block lifted out of it.
type segment struct {
	leaves []*Node
	block  *Node
}

// inlineCollector flattens goldmark inline nodes into text leaves, starting a
// new segment at every line break.
type inlineCollector struct {
	source []byte

	marks     Marks
	underline int

	// hoistDisplay lifts display math out of the line into its own segment.
	hoistDisplay bool
	// literalMath writes math back as "$...$" text.
	literalMath bool
	// preserveSpace is set inside HTML elements whose whitespace runs are
	// content.
	preserveSpace int

	segments []segment
}

func newInlineCollector(source []byte) *inlineCollector {
	return &inlineCollector{source: source}
}

func (c *inlineCollector) len() int {
	return len(c.segments)
}

func (c *inlineCollector) line() *segment {
	if len(c.segments) == 0 || c.segments[len(c.segments)-1].block != nil {
		c.segments = append(c.segments, segment{})
	}
	return &c.segments[len(c.segments)-1]
}

func (c *inlineCollector) newLine() {
	c.segments = append(c.segments, segment{})
}

func (c *inlineCollector) text(value string) {
	if value == "" {
		return
	}
	marks := c.marks
	marks.Underline = c.underline > 0
	l := c.line()
	l.leaves = append(l.leaves, Styled(value, marks))
}

func (c *inlineCollector) code(value string) {
	marks := c.marks
	marks.Underline = c.underline > 0
	marks.Code = true
	l := c.line()
	l.leaves = append(l.leaves, Styled(value, marks))
}

func (c *inlineCollector) inline(n *Node) {
	l := c.line()
	l.leaves = append(l.leaves, n)
}

func (c *inlineCollector) block(n *Node) {
	c.segments = append(c.segments, segment{block: n})
}

func (c *inlineCollector) collect(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			value := n.Segment.Value(c.source)
			if !n.IsRaw() {
				value = util.UnescapePunctuations(value)
			}
			c.text(string(value))
			if n.SoftLineBreak() || n.HardLineBreak() {
				c.newLine()
			}
		case *ast.String:
			c.text(string(n.Value))
		case *ast.CodeSpan:
			c.code(c.codeSpanValue(n))
		case *ast.Emphasis:
			saved := c.marks
			if n.Level >= 2 {
				c.marks.Bold = true
			} else {
				c.marks.Italic = true
			}
			c.collect(n)
			c.marks = saved
		case *ast.Link:
			c.text("[")
			c.collect(n)
			c.text("](" + string(n.Destination) + ")")
		case *ast.Image:
			c.text("![")
			c.collect(n)
			c.text("](" + string(n.Destination) + ")")
		case *ast.AutoLink:
			c.text(string(n.Label(c.source)))
		case *ast.RawHTML:
			c.rawHTML(n)
		case *east.TaskCheckBox:
			// Represented by the task item itself.
		case *mathSpan:
			c.addMath(string(n.Formula), n.Display)
		default:
			c.collect(n)
		}
	}
}

func (c *inlineCollector) codeSpanValue(n *ast.CodeSpan) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(c.source))
		case *ast.String:
			buf.Write(t.Value)
		}
	}
	return strings.ReplaceAll(buf.String(), "\n", " ")
}

func (c *inlineCollector) rawHTML(n *ast.RawHTML) {
	var buf bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		buf.Write(seg.Value(c.source))
	}
	raw := buf.String()

	switch tag := strings.ToLower(strings.Join(strings.Fields(raw), "")); tag {
	case "<u>":
		c.underline++
	case "</u>":
		if c.underline > 0 {
			c.underline--
		}
	case "<br>", "<br/>":
		c.newLine()
	default:
		c.text(raw)
	}
}

func (c *inlineCollector) addMath(formula string, display bool) {
	switch {
	case c.literalMath && display:
		c.text("$$" + formula + "$$")
	case c.literalMath:
		c.text("$" + formula + "$")
	case display && c.hoistDisplay:
		c.block(Math(formula, true))
	default:
		c.inline(Math(formula, display))
	}
}

// lines returns each line segment with normalized leaves and each lifted
// block. Empty lines are omitted.
func (c *inlineCollector) lines() []segment {
	var result []segment
	for _, s := range c.segments {
		if s.block != nil {
			result = append(result, s)
			continue
		}
		if leaves := normalizeLeaves(s.leaves); len(leaves) > 0 {
			result = append(result, segment{leaves: leaves})
		}
	}
	return result
}

// joined returns all line segments joined by single spaces. Lifted blocks
// are kept inline.
func (c *inlineCollector) joined() []*Node {
	var leaves []*Node
	for _, s := range c.lines() {
		if s.block != nil {
			leaves = append(leaves, s.block)
			continue
		}
		if len(leaves) > 0 {
			leaves = append(leaves, Text(" "))
		}
		leaves = append(leaves, s.leaves...)
	}
	return normalizeLeaves(leaves)
}

// normalizeLeaves trims outer whitespace of a line, drops empty leaves and
// merges neighbors that carry the same marks. Whitespace at the edge of a
// bold or italic leaf loses those marks.
func normalizeLeaves(leaves []*Node) []*Node {
	result := make([]*Node, 0, len(leaves))
	for _, l := range leaves {
		if l.Kind != KindText {
			result = append(result, l)
			continue
		}
		for _, piece := range detachEdgeSpace(l) {
			result = appendLeaf(result, piece)
		}
	}

	for len(result) > 0 && trimLeaf(result[0], strings.TrimLeftFunc) {
		result = result[1:]
	}
	for len(result) > 0 && trimLeaf(result[len(result)-1], strings.TrimRightFunc) {
		result = result[:len(result)-1]
	}
	return result
}

// appendLeaf appends a copy of l, merging it into the last leaf when both
// carry the same marks.
func appendLeaf(result []*Node, l *Node) []*Node {
	if l.Value == "" {
		return result
	}
	if len(result) > 0 {
		prev := result[len(result)-1]
		if prev.Kind == KindText && prev.Marks == l.Marks {
			prev.Value += l.Value
			return result
		}
	}
	return append(result, Styled(l.Value, l.Marks))
}

// detachEdgeSpace splits leading and trailing whitespace off a bold or
// italic leaf. Emphasis delimiters cannot be written next to whitespace.
func detachEdgeSpace(l *Node) []*Node {
	if l.Marks.Code || !(l.Marks.Bold || l.Marks.Italic) {
		return []*Node{l}
	}

	plain := l.Marks
	plain.Bold, plain.Italic = false, false

	core := strings.TrimLeftFunc(l.Value, unicode.IsSpace)
	lead := l.Value[:len(l.Value)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail := core[len(trimmed):]

	if trimmed == "" {
		return []*Node{Styled(l.Value, plain)}
	}
	return []*Node{
		Styled(lead, plain),
		Styled(trimmed, l.Marks),
		Styled(trail, plain),
	}
}

// trimLeaf trims a text leaf without the code mark in place and reports
// whether nothing is left of it.
func trimLeaf(n *Node, trim func(string, func(rune) bool) string) bool {
	if n.Kind != KindText || n.Marks.Code {
		return false
	}
	n.Value = trim(n.Value, unicode.IsSpace)
	return n.Value == ""
}
