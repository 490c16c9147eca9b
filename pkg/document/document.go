package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FallbackText is the content of the document shown when content could
// not be loaded at all.
const FallbackText = "could not load content"

// Document is an ordered, non-empty sequence of top-level blocks.
type Document struct {
	Blocks []*Node

	// Frontmatter is set when markdown content started with one.
	Frontmatter *Frontmatter
}

// New returns a sanitized document made of blocks.
func New(blocks ...*Node) *Document {
	return &Document{Blocks: SanitizeBlocks(blocks)}
}

// Default returns the document used for empty content: one empty paragraph.
func Default() *Document {
	return &Document{Blocks: []*Node{Paragraph()}}
}

// Fallback returns the document used when content could not be loaded.
func Fallback() *Document {
	return &Document{Blocks: []*Node{Paragraph(Text(FallbackText))}}
}

// Title returns the frontmatter title or, without one, the title extracted
// from the content.
func (d *Document) Title() string {
	if d.Frontmatter != nil && strings.TrimSpace(d.Frontmatter.Title) != "" {
		return strings.TrimSpace(d.Frontmatter.Title)
	}
	return ExtractTitle(d)
}

func (d *Document) Clone() *Document {
	c := &Document{Blocks: make([]*Node, len(d.Blocks))}
	for i, b := range d.Blocks {
		c.Blocks[i] = b.Clone()
	}
	if d.Frontmatter != nil {
		fm := *d.Frontmatter
		c.Frontmatter = &fm
	}
	return c
}

// Walk visits every node of the document depth-first.
func (d *Document) Walk(fn func(*Node) bool) {
	for _, b := range d.Blocks {
		b.Walk(fn)
	}
}

// MarshalJSON encodes the document as the array of its blocks.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil || len(d.Blocks) == 0 {
		return json.Marshal(Default().Blocks)
	}
	return json.Marshal(d.Blocks)
}

// UnmarshalJSON decodes and sanitizes a stored tree.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Blocks = SanitizeRawBlocks(raw)
	return nil
}

// Content is the input of Deserialize: Markdown, HTML, Tree or Raw.
// A nil Content yields the default document.
type Content interface {
	content()
}

// Markdown is markdown text, typically language-model output.
type Markdown string

// HTML is an HTML fragment as written by the HTML renderer or older editors.
type HTML string

// Tree is a JSON encoded node tree.
type Tree []byte

// Raw is an already decoded untyped tree.
type Raw struct {
	Value any
}

func (Markdown) content() {}
func (HTML) content()     {}
func (Tree) content()     {}
func (Raw) content()      {}

// Detect classifies stored content. JSON strings are markdown unless they
// look like HTML, arrays and objects are trees, null is empty.
func Detect(data []byte) Content {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Markdown(data)
		}
		return DetectString(s)
	}
	return Tree(data)
}

// DetectString classifies a string as HTML or markdown.
func DetectString(s string) Content {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 1 && trimmed[0] == '<' && isASCIILetter(trimmed[1]) && strings.Contains(trimmed, ">") {
		return HTML(s)
	}
	return Markdown(s)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Deserialize turns content into a sanitized document. It never fails: empty
// content yields the default document and content that cannot be processed
// yields the fallback document.
func Deserialize(c Content, opts ...Option) (doc *Document) {
	o := newOptions(opts)

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("failed to deserialize content", zap.String("panic", fmt.Sprint(r)))
			doc = Fallback()
		}
	}()

	s := &sanitizer{opts: o}

	var (
		blocks      []*Node
		frontmatter *Frontmatter
	)

	switch c := c.(type) {
	case nil:
		return Default()

	case Markdown:
		if strings.TrimSpace(string(c)) == "" {
			return Default()
		}
		source := []byte(c)
		raw, content := splitFrontmatter(source)
		if raw != nil {
			f, err := ParseFrontmatter(raw)
			if err != nil {
				o.logger.Warn("ignoring invalid frontmatter", zap.Error(err))
				content = source
			} else {
				frontmatter = f
			}
		}
		blocks = parseMarkdown(content)

	case HTML:
		if strings.TrimSpace(string(c)) == "" {
			return Default()
		}
		var err error
		blocks, err = parseHTML(string(c))
		if err != nil {
			o.logger.Error("failed to parse HTML content", zap.Error(err))
			return Fallback()
		}

	case Tree:
		if len(bytes.TrimSpace(c)) == 0 {
			return Default()
		}
		var v any
		if err := json.Unmarshal(c, &v); err != nil {
			o.logger.Warn("stored tree is not valid JSON", zap.Error(err))
			return Default()
		}
		blocks = decodeRawBlocks(v, s)

	case Raw:
		blocks = decodeRawBlocks(c.Value, s)

	default:
		o.logger.Error("unsupported content", zap.String("type", fmt.Sprintf("%T", c)))
		return Fallback()
	}

	return &Document{Blocks: s.blocks(blocks), Frontmatter: frontmatter}
}
