package document

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlPolicy strips everything a stored note cannot legitimately contain
// while keeping the data attributes task items and math are encoded with.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowElements("u", "span", "div")
	return p
}()

// plainTextPolicy strips every tag and keeps the text.
var plainTextPolicy = bluemonday.StrictPolicy()

// maxHTMLDepth bounds element nesting. The HTML parser takes quadratic time
// in the depth, so deeper input is read as plain text.
const maxHTMLDepth = 512

// parseHTML builds blocks from an HTML fragment.
func parseHTML(source string) ([]*Node, error) {
	if htmlDepth(source) > maxHTMLDepth {
		return plainTextBlocks(source), nil
	}

	clean := htmlPolicy.Sanitize(source)

	nodes, err := html.ParseFragment(strings.NewReader(clean), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, err
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return htmlBlocks(body, nil), nil
}

// htmlDepth returns the deepest element nesting of source. Void elements
// and unmatched end tags do not count.
func htmlDepth(source string) int {
	var (
		z       = html.NewTokenizer(strings.NewReader(source))
		depth   int
		deepest int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return deepest
		case html.StartTagToken:
			name, _ := z.TagName()
			if voidElements[atom.Lookup(name)] {
				continue
			}
			depth++
			deepest = max(deepest, depth)
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
		}
	}
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

// plainTextBlocks makes one paragraph of every non-blank line of the text
// in source.
func plainTextBlocks(source string) []*Node {
	text := html.UnescapeString(plainTextPolicy.Sanitize(source))

	var out []*Node
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(collapseSpace(line))
		if line == "" {
			continue
		}
		out = append(out, Element(KindParagraph, Text(line)))
	}
	return out
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func isMathElement(n *html.Node) bool {
	return n.Type == html.ElementNode && getAttrValue("data-type", n.Attr) == "math"
}

func htmlMath(n *html.Node) *Node {
	return Math(
		getAttrValue("data-formula", n.Attr),
		getAttrValue("data-display", n.Attr) == "true",
	)
}

// isInlineHTML reports whether n belongs to a paragraph's flow content.
func isInlineHTML(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		if isMathElement(n) {
			return n.Data == "span"
		}
		switch n.Data {
		case "strong", "b", "em", "i", "u", "code", "span", "a", "s", "mark", "sub", "sup", "br", "small", "abbr", "kbd":
			return true
		}
	}
	return false
}

// htmlBlocks appends the blocks found among the children of parent to out.
// Runs of inline children form one paragraph.
func htmlBlocks(parent *html.Node, out []*Node) []*Node {
	var run []*html.Node

	flush := func() {
		if len(run) == 0 {
			return
		}
		c := newInlineCollector(nil)
		for _, n := range run {
			htmlInline(n, c)
		}
		for _, s := range c.lines() {
			out = append(out, Element(KindParagraph, s.leaves...))
		}
		run = run[:0]
	}

	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		if isInlineHTML(n) {
			run = append(run, n)
			continue
		}
		flush()
		out = htmlBlock(n, out)
	}
	flush()

	return out
}

func htmlBlock(n *html.Node, out []*Node) []*Node {
	if n.Type != html.ElementNode {
		return out
	}

	if isMathElement(n) {
		return append(out, htmlMath(n))
	}

	switch n.Data {
	case "p":
		lines := htmlLines(n)
		if len(lines) == 0 {
			return append(out, Paragraph())
		}
		for _, leaves := range lines {
			out = append(out, Element(KindParagraph, leaves...))
		}
		return out
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		return append(out, Element(HeadingKind(level), orEmpty(htmlJoined(n))...))
	case "ul", "ol":
		return htmlList(n, out)
	case "blockquote":
		return htmlBlockquote(n, out)
	case "table":
		return append(out, htmlTable(n))
	case "pre":
		return append(out, htmlCode(n)...)
	case "hr", "br", "img", "input":
		return out
	default:
		return htmlBlocks(n, out)
	}
}

// htmlLines returns the inline content of n split at line breaks.
func htmlLines(n *html.Node) [][]*Node {
	c := newInlineCollector(nil)
	htmlInlineChildren(n, c)
	var lines [][]*Node
	for _, s := range c.lines() {
		lines = append(lines, s.leaves)
	}
	return lines
}

func htmlJoined(n *html.Node) []*Node {
	c := newInlineCollector(nil)
	htmlInlineChildren(n, c)
	return c.joined()
}

func htmlInlineChildren(n *html.Node, c *inlineCollector) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		htmlInline(child, c)
	}
}

func htmlInline(n *html.Node, c *inlineCollector) {
	switch n.Type {
	case html.TextNode:
		if c.preserveSpace > 0 {
			c.text(n.Data)
		} else {
			c.text(collapseSpace(n.Data))
		}
		return
	case html.ElementNode:
	default:
		return
	}

	if isMathElement(n) {
		m := htmlMath(n)
		c.addMath(m.Formula, m.Display)
		return
	}

	saved := c.marks
	defer func() { c.marks = saved }()

	switch n.Data {
	case "strong", "b":
		c.marks.Bold = true
	case "em", "i":
		c.marks.Italic = true
	case "u":
		c.underline++
		defer func() { c.underline-- }()
	case "span":
		if getAttrValue("data-whitespace", n.Attr) == "pre" {
			c.preserveSpace++
			defer func() { c.preserveSpace-- }()
		}
	case "code":
		c.code(textContent(n))
		return
	case "br":
		c.newLine()
		return
	case "p", "div":
		if c.len() > 0 {
			c.newLine()
		}
	}

	htmlInlineChildren(n, c)
}

func htmlList(n *html.Node, out []*Node) []*Node {
	kind := KindBulletList
	if n.Data == "ol" {
		kind = KindNumberedList
	}
	taskList := getAttrValue("data-type", n.Attr) == "taskList"

	var current *Node
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		if taskList || getAttrValue("data-type", li.Attr) == "taskItem" {
			item := htmlItem(li, KindTaskItem)
			item.Checked = getAttrValue("data-checked", li.Attr) == "true"
			out = append(out, item)
			current = nil
			continue
		}
		if current == nil {
			current = Element(kind)
			out = append(out, current)
		}
		current.Children = append(current.Children, htmlItem(li, KindListItem))
	}
	return out
}

func htmlItem(li *html.Node, kind Kind) *Node {
	c := newInlineCollector(nil)
	var nested []*Node
	for child := li.FirstChild; child != nil; child = child.NextSibling {
		if isInlineHTML(child) || (child.Type == html.ElementNode && child.Data == "p") {
			htmlInline(child, c)
			continue
		}
		nested = htmlBlock(child, nested)
	}
	return &Node{Kind: kind, Children: orEmpty(append(c.joined(), nested...))}
}

func htmlBlockquote(n *html.Node, out []*Node) []*Node {
	var run []*html.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		c := newInlineCollector(nil)
		for _, r := range run {
			htmlInline(r, c)
		}
		for _, s := range c.lines() {
			out = append(out, Element(KindBlockquote, s.leaves...))
		}
		run = run[:0]
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch {
		case isInlineHTML(child):
			run = append(run, child)
		case child.Type == html.ElementNode && child.Data == "p":
			flush()
			lines := htmlLines(child)
			if len(lines) == 0 {
				out = append(out, Element(KindBlockquote, Text("")))
			}
			for _, leaves := range lines {
				out = append(out, Element(KindBlockquote, leaves...))
			}
		default:
			flush()
			out = htmlBlock(child, out)
		}
	}
	flush()
	return out
}

func htmlTable(n *html.Node) *Node {
	table := Element(KindTable)

	var walk func(*html.Node)
	walk = func(parent *html.Node) {
		for child := parent.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.Data {
			case "tr":
				table.Children = append(table.Children, htmlTableRow(child))
			case "thead", "tbody", "tfoot":
				walk(child)
			}
		}
	}
	walk(n)

	return table
}

func htmlTableRow(tr *html.Node) *Node {
	row := Element(KindTableRow)
	for cell := tr.FirstChild; cell != nil; cell = cell.NextSibling {
		if cell.Type != html.ElementNode {
			continue
		}
		kind := KindTableCell
		switch cell.Data {
		case "th":
			kind = KindTableHeaderCell
		case "td":
		default:
			continue
		}
		c := newInlineCollector(nil)
		c.literalMath = true
		htmlInlineChildren(cell, c)
		row.Children = append(row.Children, Element(kind, orEmpty(c.joined())...))
	}
	return row
}

func htmlCode(pre *html.Node) []*Node {
	var out []*Node
	for _, line := range strings.Split(textContent(pre), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, Element(KindParagraph, Styled(line, Marks{Code: true})))
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace replaces every run of HTML whitespace with a single space.
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}
