package document

import (
	"bytes"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMathSpan is the goldmark node kind of a math span.
var KindMathSpan = ast.NewNodeKind("MathSpan")

// mathSpan is the goldmark inline node for "$...$" and "$$...$$".
type mathSpan struct {
	ast.BaseInline

	Formula []byte
	Display bool
}

func (n *mathSpan) Kind() ast.NodeKind {
	return KindMathSpan
}

func (n *mathSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Formula": string(n.Formula),
		"Display": strconv.FormatBool(n.Display),
	}, nil)
}

type mathParser struct{}

func (mathParser) Trigger() []byte {
	return []byte{'$'}
}

func (p mathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) > 1 && line[1] == '$' {
		return p.parseDisplay(block)
	}
	return p.parseInline(block, line)
}

// parseDisplay reads "$$...$$", which may span several lines of the
// paragraph.
func (mathParser) parseDisplay(block text.Reader) ast.Node {
	lineNo, pos := block.Position()
	block.Advance(2)

	var formula bytes.Buffer
	for {
		line, _ := block.PeekLine()
		if line == nil {
			block.SetPosition(lineNo, pos)
			return nil
		}
		if idx := bytes.Index(line, []byte("$$")); idx >= 0 {
			formula.Write(line[:idx])
			block.Advance(idx + 2)
			break
		}
		formula.Write(line)
		block.AdvanceLine()
	}

	value := bytes.TrimSpace(formula.Bytes())
	if len(value) == 0 {
		block.SetPosition(lineNo, pos)
		return nil
	}
	return &mathSpan{Formula: value, Display: true}
}

// parseInline reads "$...$" on a single line. The opener must not be
// followed by a space, the closer must not be preceded by a space nor
// followed by a digit, so prices like "$5 and $10" stay text.
func (mathParser) parseInline(block text.Reader, line []byte) ast.Node {
	if len(line) < 3 || util.IsSpace(line[1]) {
		return nil
	}
	for i := 2; i < len(line); i++ {
		switch line[i] {
		case '\n', '\r':
			return nil
		case '\\':
			i++
		case '$':
			if util.IsSpace(line[i-1]) {
				continue
			}
			if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
				continue
			}
			block.Advance(i + 1)
			return &mathSpan{Formula: bytes.TrimSpace(line[1:i])}
		}
	}
	return nil
}

// mathExtension registers the math span parser.
type mathExtension struct{}

func (mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(mathParser{}, 150),
	))
}
