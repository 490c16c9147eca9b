package document

import (
	"bytes"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineText
	lineItem
	lineQuote
	lineHeading
	lineFence
	lineBreak
)

// separateLines rewrites markdown so that goldmark reads every line on its
// own. A text line right below a list item or a quote starts a paragraph of
// its own and ends the list. A list marker below a text line starts a list
// whatever its number. Indentation is kept only as deep as the content of
// an open list item. Fenced code is copied as is.
func separateLines(source []byte) []byte {
	var (
		out bytes.Buffer
		// Content columns of the open list items, innermost last.
		columns []int
		prev    = lineBlank
		fence   []byte
	)
	out.Grow(len(source) + 16)

	for _, line := range bytes.SplitAfter(source, []byte("\n")) {
		body := bytes.TrimRight(line, "\r\n")
		eol := line[len(body):]
		indent, rest := indentation(body)

		if fence != nil {
			if !closesFence(rest, fence) {
				out.Write(line)
				continue
			}
			fence = nil
			writeLine(&out, top(columns), rest, eol)
			prev = lineFence
			continue
		}

		kind, offset := classifyLine(rest)
		if kind == lineBlank {
			out.Write(line)
			prev = lineBlank
			continue
		}

		for len(columns) > 0 && indent < top(columns) {
			columns = columns[:len(columns)-1]
		}

		switch {
		case kind == lineText && (prev == lineItem || prev == lineQuote):
			columns = columns[:0]
			out.WriteByte('\n')
		case kind != lineText && kind != lineBreak && prev == lineText:
			out.WriteByte('\n')
		}

		base := top(columns)
		writeLine(&out, base, rest, eol)

		switch kind {
		case lineItem:
			// An item without text on its marker line holds nothing below.
			if offset > 0 {
				columns = append(columns, base+offset)
				fence = fenceMarker(rest[offset:])
			}
		case lineFence:
			fence = fenceMarker(rest)
		}
		prev = kind
	}

	return out.Bytes()
}

func top(columns []int) int {
	if len(columns) == 0 {
		return 0
	}
	return columns[len(columns)-1]
}

func writeLine(out *bytes.Buffer, indent int, rest, eol []byte) {
	for i := 0; i < indent; i++ {
		out.WriteByte(' ')
	}
	out.Write(rest)
	out.Write(eol)
}

// indentation returns the width of the leading whitespace of line, with
// tabs stopping at multiples of four, and the line without it.
func indentation(line []byte) (int, []byte) {
	width := 0
	for i, c := range line {
		switch c {
		case ' ':
			width++
		case '\t':
			width += 4 - width%4
		default:
			return width, line[i:]
		}
	}
	return width, nil
}

// classifyLine tells what a line without its indentation starts. For list
// items offset is the distance from the marker to the item text, or zero
// when the marker line has no text.
func classifyLine(rest []byte) (kind lineKind, offset int) {
	if len(bytes.TrimSpace(rest)) == 0 {
		return lineBlank, 0
	}
	if isThematicBreak(rest) {
		return lineBreak, 0
	}
	if fenceMarker(rest) != nil {
		return lineFence, 0
	}

	switch c := rest[0]; {
	case c == '>':
		return lineQuote, 0
	case c == '#':
		level := 0
		for level < len(rest) && rest[level] == '#' {
			level++
		}
		if level <= 6 && (level == len(rest) || isSpaceByte(rest[level])) {
			return lineHeading, 0
		}
	case c == '-' || c == '*' || c == '+':
		if width := listItemOffset(rest, 1); width >= 0 {
			return lineItem, width
		}
	case c >= '0' && c <= '9':
		digits := 0
		for digits < len(rest) && digits < 10 && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits <= 9 && digits < len(rest) && (rest[digits] == '.' || rest[digits] == ')') {
			if width := listItemOffset(rest, digits+1); width >= 0 {
				return lineItem, width
			}
		}
	}
	return lineText, 0
}

// listItemOffset returns the column of the item text for a marker of the
// given width, zero for an empty item and -1 when no item starts here.
func listItemOffset(rest []byte, marker int) int {
	if marker == len(rest) {
		return 0
	}
	if !isSpaceByte(rest[marker]) {
		return -1
	}
	spaces := 0
	for marker+spaces < len(rest) && isSpaceByte(rest[marker+spaces]) {
		spaces++
	}
	if marker+spaces == len(rest) {
		return 0
	}
	if spaces > 4 {
		spaces = 1
	}
	return marker + spaces
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t'
}

func isThematicBreak(rest []byte) bool {
	var (
		marker byte
		count  int
	)
	for _, c := range rest {
		switch {
		case isSpaceByte(c) || c == '\r':
		case marker == 0 && (c == '-' || c == '*' || c == '_'):
			marker = c
			count++
		case c == marker:
			count++
		default:
			return false
		}
	}
	return count >= 3
}

// fenceMarker returns the backtick or tilde run opening a code fence, or nil.
func fenceMarker(rest []byte) []byte {
	if len(rest) < 3 || (rest[0] != '`' && rest[0] != '~') {
		return nil
	}
	n := 0
	for n < len(rest) && rest[n] == rest[0] {
		n++
	}
	if n < 3 {
		return nil
	}
	if rest[0] == '`' && bytes.IndexByte(rest[n:], '`') >= 0 {
		return nil
	}
	return rest[:n]
}

func closesFence(rest, fence []byte) bool {
	n := 0
	for n < len(rest) && rest[n] == fence[0] {
		n++
	}
	return n >= len(fence) && len(bytes.TrimSpace(rest[n:])) == 0
}
