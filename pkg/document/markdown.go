package document

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// markdownParser has no setext headings and no indented code: an underline
// never turns the line above into a heading and indentation never makes code.
var markdownParser = goldmark.New(
	goldmark.WithParser(parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewThematicBreakParser(), 200),
			util.Prioritized(parser.NewListParser(), 300),
			util.Prioritized(parser.NewListItemParser(), 400),
			util.Prioritized(parser.NewATXHeadingParser(), 600),
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewBlockquoteParser(), 800),
			util.Prioritized(parser.NewHTMLBlockParser(), 900),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)),
	goldmark.WithExtensions(
		extension.Table,
		extension.TaskList,
		mathExtension{},
	),
).Parser()

// parseMarkdown builds blocks from markdown in a single goldmark pass.
func parseMarkdown(source []byte) []*Node {
	source = separateLines(source)
	root := markdownParser.Parse(text.NewReader(source))
	return newBuilder(source).blocks(root)
}

// builder maps a goldmark AST onto document nodes.
type builder struct {
	source     []byte
	lineStarts []int
}

func newBuilder(source []byte) *builder {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &builder{source: source, lineStarts: starts}
}

func (b *builder) blocks(parent ast.Node) []*Node {
	var out []*Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = b.block(n, out)
	}
	return out
}

func (b *builder) block(n ast.Node, out []*Node) []*Node {
	switch n := n.(type) {
	case *ast.Heading:
		c := b.collect(n, false)
		return append(out, Element(HeadingKind(n.Level), orEmpty(c.joined())...))
	case *ast.Paragraph, *ast.TextBlock:
		return append(out, b.paragraphs(n)...)
	case *ast.List:
		return b.list(n, out)
	case *ast.Blockquote:
		return b.blockquote(n, out)
	case *east.Table:
		return append(out, b.table(n)...)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return append(out, b.codeLines(n)...)
	case *ast.HTMLBlock:
		return append(out, b.htmlLines(n)...)
	case *ast.ThematicBreak:
		return out
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = b.block(c, out)
		}
		return out
	}
}

func (b *builder) collect(n ast.Node, hoistDisplay bool) *inlineCollector {
	c := newInlineCollector(b.source)
	c.hoistDisplay = hoistDisplay
	c.collect(n)
	return c
}

// paragraphs turns every line of a paragraph into its own paragraph. Display
// math is lifted out to block level.
func (b *builder) paragraphs(n ast.Node) []*Node {
	var out []*Node
	for _, s := range b.collect(n, true).lines() {
		if s.block != nil {
			out = append(out, s.block)
			continue
		}
		out = append(out, Element(KindParagraph, s.leaves...))
	}
	return out
}

// list appends the items of n to out. Consecutive items of the same kind
// share one list node, continuing the last node of out when the previous
// sibling was a list of the same kind with no blank line in between. A blank
// line between items or a task item ends the current list.
func (b *builder) list(n *ast.List, out []*Node) []*Node {
	kind := KindBulletList
	if n.IsOrdered() {
		kind = KindNumberedList
	}

	var (
		current *Node
		prev    ast.Node
	)

	if p, ok := n.PreviousSibling().(*ast.List); ok && p.IsOrdered() == n.IsOrdered() && len(out) > 0 {
		if last := out[len(out)-1]; last.Kind == kind {
			current = last
			prev = p.LastChild()
		}
	}

	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if prev != nil && b.blankBetween(prev, item) {
			current = nil
		}
		prev = item

		if checked, ok := taskState(item); ok {
			out = append(out, b.item(item, KindTaskItem, checked))
			current = nil
			continue
		}

		if current == nil {
			current = Element(kind)
			out = append(out, current)
		}
		current.Children = append(current.Children, b.item(item, KindListItem, false))
	}

	return out
}

// item takes the text of the first paragraph as the item's own leaves.
// Everything after it is nested.
func (b *builder) item(n ast.Node, kind Kind, checked bool) *Node {
	var leaves, nested []*Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c == n.FirstChild() {
			switch c.Kind() {
			case ast.KindParagraph, ast.KindTextBlock, ast.KindHeading:
				leaves = b.collect(c, false).joined()
				continue
			}
		}
		nested = b.block(c, nested)
	}

	// A nested paragraph never comes first, it would be read back as the
	// item's own text.
	if len(leaves) == 0 && len(nested) > 0 && nested[0].Kind == KindParagraph {
		leaves, nested = nested[0].Children, nested[1:]
	}

	children := append(normalizeLeaves(leaves), nested...)
	return &Node{Kind: kind, Checked: checked, Children: orEmpty(children)}
}

func taskState(item ast.Node) (checked, ok bool) {
	first := item.FirstChild()
	if first == nil {
		return false, false
	}
	box, ok := first.FirstChild().(*east.TaskCheckBox)
	if !ok {
		return false, false
	}
	return box.IsChecked, true
}

// blockquote emits one blockquote node per quoted line.
func (b *builder) blockquote(n *ast.Blockquote, out []*Node) []*Node {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.Kind() {
		case ast.KindParagraph, ast.KindTextBlock:
			for _, s := range b.collect(c, false).lines() {
				out = append(out, Element(KindBlockquote, s.leaves...))
			}
		default:
			out = b.block(c, out)
		}
	}
	return out
}

// table requires a header and at least one body row. Body rows are padded
// with empty cells or truncated to the header width.
func (b *builder) table(n *east.Table) []*Node {
	var (
		header *Node
		rows   []*Node
	)
	for r := n.FirstChild(); r != nil; r = r.NextSibling() {
		switch r.Kind() {
		case east.KindTableHeader:
			header = b.tableRow(r, KindTableHeaderCell, 0)
		case east.KindTableRow:
			if header != nil {
				rows = append(rows, b.tableRow(r, KindTableCell, len(header.Children)))
			}
		}
	}

	if header == nil || len(rows) == 0 {
		return b.literalTable(n, header)
	}

	return []*Node{Element(KindTable, append([]*Node{header}, rows...)...)}
}

func (b *builder) tableRow(r ast.Node, cellKind Kind, width int) *Node {
	row := Element(KindTableRow)
	for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if width > 0 && len(row.Children) == width {
			break
		}
		c := newInlineCollector(b.source)
		c.literalMath = true
		c.collect(cell)
		row.Children = append(row.Children, Element(cellKind, orEmpty(c.joined())...))
	}
	for len(row.Children) < width {
		row.Children = append(row.Children, Element(cellKind, Text("")))
	}
	return row
}

// literalTable writes a table without body rows back as plain paragraphs.
func (b *builder) literalTable(n *east.Table, header *Node) []*Node {
	if header == nil {
		return nil
	}

	cells := make([]string, 0, len(header.Children))
	for _, c := range header.Children {
		cells = append(cells, c.PlainText())
	}

	delimiters := make([]string, 0, len(n.Alignments))
	for _, a := range n.Alignments {
		switch a {
		case east.AlignLeft:
			delimiters = append(delimiters, ":---")
		case east.AlignRight:
			delimiters = append(delimiters, "---:")
		case east.AlignCenter:
			delimiters = append(delimiters, ":---:")
		default:
			delimiters = append(delimiters, "---")
		}
	}

	return []*Node{
		Element(KindParagraph, Text("| "+strings.Join(cells, " | ")+" |")),
		Element(KindParagraph, Text("| "+strings.Join(delimiters, " | ")+" |")),
	}
}

func (b *builder) codeLines(n ast.Node) []*Node {
	var out []*Node
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		value := strings.TrimRight(string(seg.Value(b.source)), "\r\n")
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, Element(KindParagraph, Styled(value, Marks{Code: true})))
	}
	return out
}

func (b *builder) htmlLines(n *ast.HTMLBlock) []*Node {
	var raw [][]byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		raw = append(raw, seg.Value(b.source))
	}
	if n.HasClosure() {
		raw = append(raw, n.ClosureLine.Value(b.source))
	}

	var out []*Node
	for _, line := range raw {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		out = append(out, Element(KindParagraph, Text(string(line))))
	}
	return out
}

// blankBetween reports whether at least one empty source line separates the
// end of a from the start of c.
func (b *builder) blankBetween(a, c ast.Node) bool {
	_, end, ok := b.span(a)
	if !ok {
		return false
	}
	start, _, ok := b.span(c)
	if !ok {
		return false
	}
	return start-end > 1
}

// span returns the first and last source line covered by the leaf blocks
// inside n.
func (b *builder) span(n ast.Node) (first, last int, ok bool) {
	first, last = -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := c.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		start := b.lineAt(lines.At(0).Start)
		lastSeg := lines.At(lines.Len() - 1)
		stop := lastSeg.Stop - 1
		if stop < lastSeg.Start {
			stop = lastSeg.Start
		}
		end := b.lineAt(stop)
		if first < 0 || start < first {
			first = start
		}
		if end > last {
			last = end
		}
		return ast.WalkContinue, nil
	})
	return first, last, first >= 0
}

func (b *builder) lineAt(offset int) int {
	return sort.SearchInts(b.lineStarts, offset+1) - 1
}

func orEmpty(children []*Node) []*Node {
	if len(children) == 0 {
		return []*Node{Text("")}
	}
	return children
}
