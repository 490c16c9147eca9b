package document

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// rawNode is the lenient shape of a stored node. It accepts both the current
// wire form and the one written by older editors ("type" instead of "kind",
// leaves carrying "text" instead of "value").
type rawNode struct {
	Kind      string `mapstructure:"kind"`
	Type      string `mapstructure:"type"`
	Children  any    `mapstructure:"children"`
	Value     any    `mapstructure:"value"`
	Text      any    `mapstructure:"text"`
	Bold      any    `mapstructure:"bold"`
	Italic    any    `mapstructure:"italic"`
	Underline any    `mapstructure:"underline"`
	Code      any    `mapstructure:"code"`
	Checked   any    `mapstructure:"checked"`
	Formula   any    `mapstructure:"formula"`
	Display   any    `mapstructure:"displayMode"`
}

// rawObject is a decoded node together with the keys present in its source.
type rawObject struct {
	rawNode
	keys map[string]struct{}
}

func (r *rawObject) has(key string) bool {
	_, ok := r.keys[key]
	return ok
}

func (r *rawObject) kindName() string {
	if r.Kind != "" {
		return r.Kind
	}
	return r.Type
}

// isLeaf reports whether the object describes a text leaf. Objects without a
// kind that carry "text" or "value" but no children are leaves too.
func (r *rawObject) isLeaf() bool {
	name := r.kindName()
	if name == "text" {
		return true
	}
	return name == "" && !r.has("children") && (r.has("text") || r.has("value"))
}

func decodeRawNode(m map[string]any, s *sanitizer) *rawObject {
	var r rawObject
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &r.rawNode,
	})
	if err == nil {
		err = dec.Decode(m)
	}
	if err != nil {
		s.repair(KindParagraph, "malformed node fields: %v", err)
	}
	r.keys = make(map[string]struct{}, len(m))
	for k := range m {
		r.keys[k] = struct{}{}
	}
	return &r
}

// decodeRawBlocks converts an untyped document into blocks. Arrays are read
// element-wise, a single object is a one-block document, anything else is
// empty.
func decodeRawBlocks(v any, s *sanitizer) []*Node {
	switch v := v.(type) {
	case []any:
		blocks := make([]*Node, 0, len(v))
		for i, item := range v {
			s.push(i)
			if item == nil {
				blocks = append(blocks, nil)
			} else {
				blocks = append(blocks, decodeRawChild(item, s))
			}
			s.pop()
		}
		return blocks
	case map[string]any:
		return []*Node{decodeRaw(v, s)}
	case nil:
		return nil
	default:
		s.repair(KindParagraph, "document of type %T is not a node list", v)
		return nil
	}
}

// decodeRaw converts one untyped node. Values that are not objects become an
// empty paragraph.
func decodeRaw(v any, s *sanitizer) *Node {
	m, ok := v.(map[string]any)
	if !ok {
		s.repair(KindParagraph, "node of type %T replaced by an empty paragraph", v)
		return Paragraph()
	}
	r := decodeRawNode(m, s)
	if r.isLeaf() {
		return rawLeaf(r, s)
	}
	return rawElement(r, s)
}

func decodeRawChild(v any, s *sanitizer) *Node {
	switch v := v.(type) {
	case map[string]any:
		return decodeRaw(v, s)
	case string:
		return Text(v)
	default:
		s.repair(KindText, "child of type %T converted to text", v)
		return Text(ensureString(v))
	}
}

func rawLeaf(r *rawObject, s *sanitizer) *Node {
	value := r.Value
	if !r.has("value") {
		value = r.Text
	}
	if _, ok := value.(string); !ok {
		s.repair(KindText, "text value of type %T coerced to string", value)
	}
	n := &Node{
		Kind:  KindText,
		Value: ensureString(value),
		Marks: Marks{
			Bold:      truthy(r.Bold),
			Italic:    truthy(r.Italic),
			Underline: truthy(r.Underline),
			Code:      truthy(r.Code),
		},
	}
	if children, ok := r.Children.([]any); ok && len(children) > 0 {
		s.repair(KindText, "children of a text leaf dropped")
	}
	return n
}

func rawElement(r *rawObject, s *sanitizer) *Node {
	name := r.kindName()
	kind, ok := ParseKind(name)
	if !ok {
		s.repair(KindParagraph, "kind %q defaulted to paragraph", name)
		kind = KindParagraph
	}

	n := &Node{Kind: kind}
	switch kind {
	case KindTaskItem:
		if _, ok := r.Checked.(bool); !ok && r.has("checked") {
			s.repair(kind, "checked of type %T coerced to bool", r.Checked)
		}
		n.Checked = truthy(r.Checked)
	case KindMath:
		formula, ok := r.Formula.(string)
		if !ok && r.Formula != nil {
			s.repair(kind, "formula of type %T dropped", r.Formula)
		}
		n.Formula = formula
		n.Display = truthy(r.Display)
	}

	switch children := r.Children.(type) {
	case []any:
		n.Children = make([]*Node, 0, len(children))
		for i, c := range children {
			s.push(i)
			if c == nil {
				n.Children = append(n.Children, nil)
			} else {
				n.Children = append(n.Children, decodeRawChild(c, s))
			}
			s.pop()
		}
	case nil:
	default:
		s.repair(kind, "children of type %T replaced by defaults", children)
	}

	return n
}

// ensureString converts any decoded JSON value to its string form: strings
// as-is, null as empty, numbers and booleans formatted, objects and arrays as
// JSON.
func ensureString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int, int64, int32, uint, uint64, uint32:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// truthy mirrors the boolean coercion stored documents were written with.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}
