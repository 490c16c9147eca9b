package document

import (
	"encoding/json"
	"strings"
)

// Marks are the formatting flags carried by a text leaf.
type Marks struct {
	Bold      bool `json:"bold,omitempty"`
	Italic    bool `json:"italic,omitempty"`
	Underline bool `json:"underline,omitempty"`
	Code      bool `json:"code,omitempty"`
}

// Zero reports whether no mark is set.
func (m Marks) Zero() bool {
	return m == Marks{}
}

// Node is one element of a document tree: a block, an inline element or a
// text leaf. Only the fields relevant to Kind are meaningful; the sanitizer
// clears the rest.
type Node struct {
	Kind     Kind
	Children []*Node

	// Text leaves.
	Value string
	Marks Marks

	// Task items.
	Checked bool

	// Math.
	Formula string
	Display bool
}

// Text returns an unformatted text leaf.
func Text(value string) *Node {
	return &Node{Kind: KindText, Value: value}
}

// Styled returns a text leaf with marks.
func Styled(value string, marks Marks) *Node {
	return &Node{Kind: KindText, Value: value, Marks: marks}
}

// Element returns a non-text node of the given kind.
func Element(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// TaskItem returns a task item with the given checked state.
func TaskItem(checked bool, children ...*Node) *Node {
	return &Node{Kind: KindTaskItem, Checked: checked, Children: children}
}

// Math returns a math node with its single empty text leaf.
func Math(formula string, display bool) *Node {
	return &Node{Kind: KindMath, Formula: formula, Display: display, Children: []*Node{Text("")}}
}

// Paragraph returns an empty paragraph.
func Paragraph(children ...*Node) *Node {
	if len(children) == 0 {
		children = []*Node{Text("")}
	}
	return Element(KindParagraph, children...)
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool {
	return n != nil && n.Kind == KindText
}

// PlainText concatenates the values of all text leaves below n.
// Math nodes contribute their formula.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.writePlain(&b)
	return b.String()
}

func (n *Node) writePlain(b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText:
		b.WriteString(n.Value)
	case KindMath:
		b.WriteString(n.Formula)
	default:
		for _, c := range n.Children {
			c.writePlain(b)
		}
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

type textJSON struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Marks
}

type elementJSON struct {
	Kind     string  `json:"kind"`
	Checked  *bool   `json:"checked,omitempty"`
	Formula  *string `json:"formula,omitempty"`
	Display  *bool   `json:"displayMode,omitempty"`
	Children []*Node `json:"children"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Kind == KindText {
		return json.Marshal(textJSON{Kind: n.Kind.String(), Value: n.Value, Marks: n.Marks})
	}
	v := elementJSON{Kind: n.Kind.String(), Children: n.Children}
	if v.Children == nil {
		v.Children = []*Node{}
	}
	switch n.Kind {
	case KindTaskItem:
		v.Checked = &n.Checked
	case KindMath:
		v.Formula = &n.Formula
		v.Display = &n.Display
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes any JSON value into a node leniently. The result is
// not sanitized; pass it through Sanitize before handing it to a renderer.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = *decodeRaw(raw, nil)
	return nil
}
