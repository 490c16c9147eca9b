package md

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/stateful/notes/pkg/document"
)

// Render writes doc as markdown. Deserializing the result yields the blocks
// of doc again for every document the markdown deserializer produces.
func Render(doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	return new(renderer).render(doc)
}

type renderer struct {
	w         bulkWriter
	beginLine bool
	needCR    int
	prefix    string
}

func (r *renderer) blankline() {
	if r.needCR < 2 {
		r.needCR = 2
	}
}

func (r *renderer) cr() {
	if r.needCR < 1 {
		r.needCR = 1
	}
}

func (r *renderer) out(data string) {
	b := r.w.Bytes()
	k := len(b) - 1

	for r.needCR > 0 {
		if k < 0 || b[k] == '\n' {
			k--
		} else {
			r.w.WriteByte('\n')
			if r.needCR > 1 {
				r.w.Write([]byte(strings.TrimRight(r.prefix, " ")))
			}
		}

		r.beginLine = true
		r.needCR--
	}

	for _, c := range data {
		if r.beginLine {
			r.w.Write([]byte(r.prefix))
		}

		if c == '\n' {
			r.w.WriteByte('\n')
			r.beginLine = true
		} else {
			r.w.WriteRune(c)
			r.beginLine = false
		}
	}
}

func (r *renderer) render(doc *document.Document) ([]byte, error) {
	r.w.buf = new(bytes.Buffer)

	if doc.Frontmatter != nil {
		raw, err := doc.Frontmatter.Marshal()
		if err != nil {
			return nil, err
		}
		r.out(string(raw))
		r.blankline()
	}

	r.blocks(doc.Blocks)

	r.needCR = 1
	r.out("")

	return r.w.Bytes(), errors.WithStack(r.w.Err())
}

func (r *renderer) blocks(blocks []*document.Node) {
	var prev *document.Node
	for _, b := range blocks {
		if prev != nil {
			// Task items and quote lines stay on consecutive lines; they
			// are separate nodes when read back either way.
			if b.Kind == prev.Kind && (b.Kind == document.KindTaskItem || b.Kind == document.KindBlockquote) {
				r.cr()
			} else {
				r.blankline()
			}
		}
		r.block(b)
		prev = b
	}
}

func (r *renderer) block(n *document.Node) {
	switch n.Kind {
	case document.KindParagraph:
		r.out(inlines(n.Children, inlineLineStart))
	case document.KindHeading1, document.KindHeading2, document.KindHeading3:
		r.out(strings.Repeat("#", document.HeadingLevel(n.Kind)) + " ")
		r.out(inlines(n.Children, inlineHeading))
	case document.KindBulletList, document.KindNumberedList:
		for i, item := range n.Children {
			if i > 0 {
				r.cr()
			}
			marker := "- "
			if n.Kind == document.KindNumberedList {
				marker = strconv.Itoa(i+1) + ". "
			}
			r.item(marker, item)
		}
	case document.KindListItem:
		r.item("- ", n)
	case document.KindTaskItem:
		box := "- [ ] "
		if n.Checked {
			box = "- [x] "
		}
		r.item(box, n)
	case document.KindBlockquote:
		r.out("> ")
		r.out(inlines(n.Children, inlineLineStart))
	case document.KindTable:
		r.table(n)
	case document.KindTableRow, document.KindTableCell, document.KindTableHeaderCell:
		r.table(document.Element(document.KindTable, n))
	case document.KindMath:
		r.out(mathSource(n))
	case document.KindText:
		r.out(inlines([]*document.Node{n}, inlineLineStart))
	}
}

// item writes a list or task item: its leading inline children after the
// marker, then its block children indented under it.
func (r *renderer) item(marker string, n *document.Node) {
	split := 0
	for split < len(n.Children) && isInline(n.Children[split]) {
		split++
	}

	r.out(marker)
	saved := r.prefix
	r.prefix += strings.Repeat(" ", len(marker))

	r.out(inlines(n.Children[:split], inlineLineStart))
	if split < len(n.Children) {
		switch {
		case split == 0:
			// An item with nothing on its marker line cannot hold blocks
			// below it, so the first block goes on the marker line.
		case opensBlock(n.Children[split]):
			r.cr()
		default:
			// Text right below the item would be read as a paragraph of
			// its own.
			r.blankline()
		}
		r.blocks(n.Children[split:])
	}

	r.prefix = saved
}

func (r *renderer) table(n *document.Node) {
	width := 0
	for _, row := range n.Children {
		width = max(width, len(row.Children))
	}

	for i, row := range n.Children {
		if i > 0 {
			r.cr()
		}
		cells := make([]string, width)
		for j, cell := range row.Children {
			cells[j] = inlines(cell.Children, 0)
		}
		r.out("| " + strings.Join(cells, " | ") + " |")

		if i == 0 {
			r.cr()
			r.out("|" + strings.Repeat(" --- |", width))
		}
	}
}

// opensBlock reports whether n is written starting with a block marker.
func opensBlock(n *document.Node) bool {
	switch n.Kind {
	case document.KindBulletList, document.KindNumberedList, document.KindListItem,
		document.KindTaskItem, document.KindBlockquote,
		document.KindHeading1, document.KindHeading2, document.KindHeading3:
		return true
	}
	return false
}

func isInline(n *document.Node) bool {
	return n.Kind == document.KindText || n.Kind == document.KindMath
}

func mathSource(n *document.Node) string {
	formula := strings.TrimSpace(n.Formula)
	if n.Display {
		return "$$" + formula + "$$"
	}
	return "$" + formula + "$"
}

type inlineContext int

const (
	// inlineLineStart marks content that begins a line, where block
	// markers must be escaped.
	inlineLineStart inlineContext = 1 << iota
	inlineHeading
)

type mark int

const (
	markUnderline mark = iota
	markBold
	markItalic
)

var (
	markOpeners = [...]string{markUnderline: "<u>", markBold: "**", markItalic: "*"}
	markClosers = [...]string{markUnderline: "</u>", markBold: "**", markItalic: "*"}
)

func wanted(n *document.Node) []mark {
	if n.Kind != document.KindText {
		return nil
	}
	var marks []mark
	if n.Marks.Underline {
		marks = append(marks, markUnderline)
	}
	if n.Marks.Bold {
		marks = append(marks, markBold)
	}
	if n.Marks.Italic {
		marks = append(marks, markItalic)
	}
	return marks
}

func contains(marks []mark, m mark) bool {
	for _, x := range marks {
		if x == m {
			return true
		}
	}
	return false
}

// inlines writes leaves and inline math. Emphasis is opened and closed only
// where the marks of neighboring leaves differ, and whitespace at the edge
// of a bold or italic leaf is moved outside the delimiters so they stay
// flanking. Underline tags have no such rule and keep their whitespace.
func inlines(nodes []*document.Node, ctx inlineContext) string {
	var (
		b       strings.Builder
		open    []mark
		pending string
		first   = true
	)

	for _, n := range nodes {
		if n.Kind == document.KindText && n.Value == "" {
			continue
		}
		want := wanted(n)

		// Close from the outermost mark that is no longer wanted.
		for i, m := range open {
			if !contains(want, m) {
				for j := len(open) - 1; j >= i; j-- {
					b.WriteString(markClosers[open[j]])
				}
				open = open[:i]
				break
			}
		}
		b.WriteString(pending)
		pending = ""

		if n.Kind == document.KindMath {
			b.WriteString(mathSource(n))
			first = false
			continue
		}

		value := strings.ReplaceAll(n.Value, "\n", " ")

		var (
			openers  strings.Builder
			emphasis bool
		)
		for _, m := range want {
			if !contains(open, m) {
				openers.WriteString(markOpeners[m])
				open = append(open, m)
				emphasis = emphasis || m != markUnderline
			}
		}
		if emphasis && !n.Marks.Code {
			trimmed := strings.TrimLeftFunc(value, unicode.IsSpace)
			b.WriteString(value[:len(value)-len(trimmed)])
			value = trimmed
		}
		b.WriteString(openers.String())

		switch {
		case n.Marks.Code:
			b.WriteString(codeSpan(value))
		default:
			trimmed := value
			if n.Marks.Bold || n.Marks.Italic {
				trimmed = strings.TrimRightFunc(value, unicode.IsSpace)
				pending = value[len(trimmed):]
			}
			lineStart := first && openers.Len() == 0 && ctx&inlineLineStart != 0
			b.WriteString(escape(trimmed, lineStart, ctx&inlineHeading != 0))
		}
		first = false
	}

	for j := len(open) - 1; j >= 0; j-- {
		b.WriteString(markClosers[open[j]])
	}
	b.WriteString(pending)

	return b.String()
}

func codeSpan(value string) string {
	ticks := strings.Repeat("`", longestBacktickSeq([]byte(value))+1)
	if value[0] == '`' || value[len(value)-1] == '`' || value[0] == ' ' || value[len(value)-1] == ' ' {
		value = " " + value + " "
	}
	return ticks + value + ticks
}

var escaped = [utf8.RuneSelf]bool{
	'\\': true, '*': true, '_': true, '`': true, '$': true,
	'[': true, ']': true, '<': true, '|': true,
}

func escape(s string, lineStart, heading bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < utf8.RuneSelf && (escaped[c] || heading && c == '#') {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	if lineStart {
		return escapeLineStart(b.String())
	}
	return b.String()
}

// escapeLineStart escapes characters that would open a block when they
// begin a line.
func escapeLineStart(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '>', '-', '+', '=', '~':
		return `\` + s
	}
	i := 0
	for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[:i] + `\` + s[i:]
	}
	return s
}

func longestBacktickSeq(data []byte) int {
	longest, current := 0, 0
	for _, b := range data {
		if b == '`' {
			current++
		} else {
			current = 0
		}
		longest = max(longest, current)
	}
	return longest
}

type bulkWriter struct {
	buf *bytes.Buffer
	n   int
	err error
}

func (w *bulkWriter) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *bulkWriter) Err() error {
	return w.err
}

func (w *bulkWriter) Write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.buf.Write(p)
	w.n += n
	w.err = err
}

func (w *bulkWriter) WriteByte(b byte) {
	if w.err != nil {
		return
	}
	w.Write([]byte{b})
}

func (w *bulkWriter) WriteRune(r rune) {
	if w.err != nil {
		return
	}
	n, err := w.buf.WriteRune(r)
	w.n += n
	w.err = err
}
