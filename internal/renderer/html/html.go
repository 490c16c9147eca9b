package html

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/notes/pkg/document"
)

// Render writes doc as an HTML fragment. Consecutive task items are grouped
// in one task list and math carries its formula in data attributes, so the
// HTML deserializer reads the output back into the same blocks.
func Render(doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	for i, n := range blocks(doc.Blocks) {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if err := html.Render(&buf, n); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return buf.Bytes(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     attrs,
	}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func appendAll(parent *html.Node, children []*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

// blocks renders a sequence of block nodes. Runs of task items share a
// single list element.
func blocks(nodes []*document.Node) []*html.Node {
	var (
		out      []*html.Node
		taskList *html.Node
	)
	for _, n := range nodes {
		if n.Kind != document.KindTaskItem {
			taskList = nil
			out = append(out, block(n))
			continue
		}
		if taskList == nil {
			taskList = element(atom.Ul, attr("data-type", "taskList"))
			out = append(out, taskList)
		}
		taskList.AppendChild(item(n))
	}
	return out
}

var headings = map[document.Kind]atom.Atom{
	document.KindHeading1: atom.H1,
	document.KindHeading2: atom.H2,
	document.KindHeading3: atom.H3,
}

func block(n *document.Node) *html.Node {
	switch n.Kind {
	case document.KindParagraph:
		return appendAll(element(atom.P), inlines(n.Children))
	case document.KindHeading1, document.KindHeading2, document.KindHeading3:
		return appendAll(element(headings[n.Kind]), inlines(n.Children))
	case document.KindBulletList, document.KindNumberedList:
		list := element(atom.Ul)
		if n.Kind == document.KindNumberedList {
			list = element(atom.Ol)
		}
		for _, c := range n.Children {
			list.AppendChild(item(c))
		}
		return list
	case document.KindListItem, document.KindTaskItem:
		return appendAll(element(atom.Ul), []*html.Node{item(n)})
	case document.KindBlockquote:
		p := appendAll(element(atom.P), inlines(n.Children))
		return appendAll(element(atom.Blockquote), []*html.Node{p})
	case document.KindTable:
		return table(n)
	case document.KindTableRow, document.KindTableCell, document.KindTableHeaderCell:
		return table(document.Element(document.KindTable, n))
	case document.KindMath:
		return math(n, atom.Div)
	case document.KindText:
		return appendAll(element(atom.P), inlines([]*document.Node{n}))
	}
	return appendAll(element(atom.P), inlines(n.Children))
}

func item(n *document.Node) *html.Node {
	li := element(atom.Li)
	if n.Kind == document.KindTaskItem {
		li.Attr = []html.Attribute{
			attr("data-type", "taskItem"),
			attr("data-checked", strconv.FormatBool(n.Checked)),
		}
	}

	split := 0
	for split < len(n.Children) && isInline(n.Children[split]) {
		split++
	}
	appendAll(li, inlines(n.Children[:split]))
	appendAll(li, blocks(n.Children[split:]))
	return li
}

func table(n *document.Node) *html.Node {
	body := element(atom.Tbody)
	for _, row := range n.Children {
		tr := element(atom.Tr)
		for _, cell := range row.Children {
			a := atom.Td
			if cell.Kind == document.KindTableHeaderCell {
				a = atom.Th
			}
			tr.AppendChild(appendAll(element(a), inlines(cell.Children)))
		}
		body.AppendChild(tr)
	}
	return appendAll(element(atom.Table), []*html.Node{body})
}

func math(n *document.Node, a atom.Atom) *html.Node {
	return element(a,
		attr("data-type", "math"),
		attr("data-formula", n.Formula),
		attr("data-display", strconv.FormatBool(n.Display)),
	)
}

func isInline(n *document.Node) bool {
	return n.Kind == document.KindText || n.Kind == document.KindMath
}

// inlines renders leaves wrapped in their marks, outermost first:
// u, strong, em, code. Math inside flow content is always a span.
func inlines(nodes []*document.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		switch n.Kind {
		case document.KindText:
			if n.Value == "" {
				continue
			}
			out = append(out, leaf(n))
		case document.KindMath:
			out = append(out, math(n, atom.Span))
		default:
			out = append(out, inlines(n.Children)...)
		}
	}
	return out
}

func leaf(n *document.Node) *html.Node {
	node := &html.Node{Type: html.TextNode, Data: n.Value}

	wrap := func(a atom.Atom, attrs ...html.Attribute) {
		node = appendAll(element(a, attrs...), []*html.Node{node})
	}
	switch {
	case n.Marks.Code:
		wrap(atom.Code)
	case collapsible(n.Value):
		// Readers collapse whitespace runs outside of code.
		wrap(atom.Span, attr("data-whitespace", "pre"), attr("style", "white-space:pre-wrap"))
	}
	if n.Marks.Italic {
		wrap(atom.Em)
	}
	if n.Marks.Bold {
		wrap(atom.Strong)
	}
	if n.Marks.Underline {
		wrap(atom.U)
	}
	return node
}

// collapsible reports whether s has whitespace an HTML reader would
// collapse into a single space.
func collapsible(s string) bool {
	return strings.ContainsAny(s, "\t\n\r\f") || strings.Contains(s, "  ")
}
