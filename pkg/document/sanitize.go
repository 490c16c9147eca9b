package document

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Repair describes a single correction made while restoring tree invariants.
type Repair struct {
	// Path locates the repaired node as child indexes from the document root.
	Path   string
	Kind   Kind
	Reason string
}

func (r Repair) String() string {
	return fmt.Sprintf("%s at %s: %s", r.Kind, r.Path, r.Reason)
}

type options struct {
	logger   *zap.Logger
	onRepair func(Repair)
}

// Option configures sanitization and deserialization.
type Option func(*options)

// WithLogger reports repairs as warnings on logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepairHook calls fn for every repair.
func WithRepairHook(fn func(Repair)) Option {
	return func(o *options) {
		o.onRepair = fn
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// sanitizer carries reporting state through one pass. A nil *sanitizer is
// valid and reports nothing.
type sanitizer struct {
	opts options
	path []int
}

func (s *sanitizer) push(i int) {
	if s != nil {
		s.path = append(s.path, i)
	}
}

func (s *sanitizer) pop() {
	if s != nil {
		s.path = s.path[:len(s.path)-1]
	}
}

func (s *sanitizer) repair(kind Kind, format string, args ...any) {
	if s == nil {
		return
	}
	parts := make([]string, len(s.path))
	for i, p := range s.path {
		parts[i] = strconv.Itoa(p)
	}
	r := Repair{
		Path:   "/" + strings.Join(parts, "/"),
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
	}
	s.opts.logger.Warn("repaired document node",
		zap.String("path", r.Path),
		zap.Stringer("kind", r.Kind),
		zap.String("reason", r.Reason),
	)
	if s.opts.onRepair != nil {
		s.opts.onRepair(r)
	}
}

// Sanitize returns a copy of n that satisfies every tree invariant. It never
// fails and is idempotent: sanitizing its own output yields an equal tree.
func Sanitize(n *Node, opts ...Option) *Node {
	s := &sanitizer{opts: newOptions(opts)}
	return s.node(n)
}

// SanitizeBlocks sanitizes a sequence of top-level blocks. The result is
// never empty.
func SanitizeBlocks(blocks []*Node, opts ...Option) []*Node {
	s := &sanitizer{opts: newOptions(opts)}
	return s.blocks(blocks)
}

// SanitizeRaw sanitizes an untyped tree such as the result of decoding JSON
// into an any. Values that are not objects become empty paragraphs.
func SanitizeRaw(v any, opts ...Option) *Node {
	s := &sanitizer{opts: newOptions(opts)}
	return s.node(decodeRaw(v, s))
}

// SanitizeRawBlocks sanitizes an untyped document: an array of nodes or a
// single node object.
func SanitizeRawBlocks(v any, opts ...Option) []*Node {
	s := &sanitizer{opts: newOptions(opts)}
	return s.blocks(decodeRawBlocks(v, s))
}

func (s *sanitizer) blocks(blocks []*Node) []*Node {
	result := make([]*Node, 0, len(blocks))
	for i, b := range blocks {
		s.push(i)
		switch {
		case b == nil:
			s.repair(KindParagraph, "null block dropped")
		case b.Kind == KindText:
			s.repair(KindText, "top-level text leaf wrapped in a paragraph")
			result = append(result, Paragraph(s.node(b)))
		default:
			result = append(result, s.node(b))
		}
		s.pop()
	}
	if len(result) == 0 {
		result = append(result, Paragraph())
	}
	return result
}

func (s *sanitizer) node(n *Node) *Node {
	if n == nil {
		s.repair(KindParagraph, "null node replaced by an empty paragraph")
		return Paragraph()
	}

	kind := n.Kind
	if !kind.Valid() {
		s.repair(KindParagraph, "unknown kind %d defaulted to paragraph", int(kind))
		kind = KindParagraph
	}

	if kind == KindText {
		if len(n.Children) > 0 {
			s.repair(kind, "children of a text leaf dropped")
		}
		return &Node{Kind: KindText, Value: s.validUTF8(kind, n.Value), Marks: n.Marks}
	}

	result := &Node{Kind: kind}

	switch kind {
	case KindTaskItem:
		result.Checked = n.Checked
	case KindMath:
		result.Formula = s.validUTF8(kind, n.Formula)
		result.Display = n.Display
		if len(n.Children) != 1 || !isEmptyLeaf(n.Children[0]) {
			s.repair(kind, "math content reset to a single empty leaf")
		}
		result.Children = []*Node{Text("")}
		return result
	}

	children := make([]*Node, 0, len(n.Children))
	for i, c := range n.Children {
		s.push(i)
		switch {
		case c == nil:
			s.repair(kind, "null child dropped")
		case !allowedChild(kind, normalKind(c.Kind)):
			s.repair(kind, "%s child not allowed in %s dropped", normalKind(c.Kind), kind)
		default:
			children = append(children, s.node(c))
		}
		s.pop()
	}

	if len(children) == 0 {
		if len(n.Children) == 0 {
			s.repair(kind, "missing children replaced by defaults")
		}
		children = defaultChildren(kind)
	}
	result.Children = children

	return result
}

// validUTF8 replaces invalid UTF-8 in v with U+FFFD, which is what every
// serialization would turn it into.
func (s *sanitizer) validUTF8(kind Kind, v string) string {
	if utf8.ValidString(v) {
		return v
	}
	s.repair(kind, "invalid UTF-8 replaced")
	return strings.ToValidUTF8(v, "\uFFFD")
}

func normalKind(k Kind) Kind {
	if !k.Valid() {
		return KindParagraph
	}
	return k
}

func allowedChild(parent, child Kind) bool {
	switch parent {
	case KindTable:
		return child == KindTableRow
	case KindTableRow:
		return child.IsCell()
	case KindTableCell, KindTableHeaderCell:
		return child == KindText
	default:
		return true
	}
}

func defaultChildren(kind Kind) []*Node {
	switch kind {
	case KindTable:
		return []*Node{Element(KindTableRow, Element(KindTableCell, Text("")))}
	case KindTableRow:
		return []*Node{Element(KindTableCell, Text(""))}
	default:
		return []*Node{Text("")}
	}
}

func isEmptyLeaf(n *Node) bool {
	return n != nil && n.Kind == KindText && n.Value == "" && n.Marks.Zero() && len(n.Children) == 0
}
