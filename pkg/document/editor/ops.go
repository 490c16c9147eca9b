package editor

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"

	"github.com/stateful/notes/pkg/document"
)

var (
	ErrInvalidPath      = stderrors.New("invalid node path")
	ErrInvalidOperation = stderrors.New("operation not allowed on node")
)

const (
	MaxTableRows    = 20
	MaxTableColumns = 10
)

// Path addresses a node by child indexes, starting at the top-level blocks.
type Path []int

func (p Path) String() string {
	return fmt.Sprint([]int(p))
}

// Mark is a formatting flag of text leaves.
type Mark int

const (
	MarkBold Mark = iota + 1
	MarkItalic
	MarkUnderline
	MarkCode
)

func (m Mark) get(marks document.Marks) bool {
	switch m {
	case MarkBold:
		return marks.Bold
	case MarkItalic:
		return marks.Italic
	case MarkUnderline:
		return marks.Underline
	case MarkCode:
		return marks.Code
	}
	return false
}

func (m Mark) set(marks *document.Marks, v bool) {
	switch m {
	case MarkBold:
		marks.Bold = v
	case MarkItalic:
		marks.Italic = v
	case MarkUnderline:
		marks.Underline = v
	case MarkCode:
		marks.Code = v
	}
}

// Editor applies editing operations to a document. The document is
// normalized after every operation, so it satisfies the tree invariants
// between calls. An Editor is not safe for concurrent use.
type Editor struct {
	doc  *document.Document
	opts Options
}

// New returns an editor working on a sanitized copy of doc.
func New(doc *document.Document, opts Options) *Editor {
	if doc == nil {
		doc = document.Default()
	}
	e := &Editor{doc: doc.Clone(), opts: opts}
	e.normalize()
	return e
}

// Document returns a copy of the edited document.
func (e *Editor) Document() *document.Document {
	return e.doc.Clone()
}

// Node returns a copy of the node at p.
func (e *Editor) Node(p Path) (*document.Node, error) {
	n, err := e.lookup(p)
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

func (e *Editor) normalize() {
	e.doc.Blocks = document.SanitizeBlocks(e.doc.Blocks, e.opts.DocumentOptions()...)
}

// siblings returns the child list containing the node at p and the index
// of that node. The index may equal the list length when insert is set.
func (e *Editor) siblings(p Path, insert bool) (*[]*document.Node, int, error) {
	if len(p) == 0 {
		return nil, 0, errors.Wrap(ErrInvalidPath, "empty path")
	}

	list := &e.doc.Blocks
	for depth, i := range p {
		last := depth == len(p)-1
		limit := len(*list)
		if last && insert {
			limit++
		}
		if i < 0 || i >= limit {
			return nil, 0, errors.Wrapf(ErrInvalidPath, "index %d out of range at %s", i, p[:depth+1])
		}
		if last {
			return list, i, nil
		}
		if (*list)[i].Kind == document.KindText {
			return nil, 0, errors.Wrapf(ErrInvalidPath, "text leaf at %s has no children", p[:depth+1])
		}
		list = &(*list)[i].Children
	}
	return nil, 0, errors.WithStack(ErrInvalidPath)
}

func (e *Editor) lookup(p Path) (*document.Node, error) {
	list, i, err := e.siblings(p, false)
	if err != nil {
		return nil, err
	}
	return (*list)[i], nil
}

// Insert places nodes before the node at p. The last index of p may equal
// the number of siblings to append.
func (e *Editor) Insert(p Path, nodes ...*document.Node) error {
	list, i, err := e.siblings(p, true)
	if err != nil {
		return err
	}
	inserted := make([]*document.Node, 0, len(nodes))
	for _, n := range nodes {
		inserted = append(inserted, n.Clone())
	}
	*list = append((*list)[:i], append(inserted, (*list)[i:]...)...)
	e.normalize()
	return nil
}

// Delete removes the node at p. Removing the last block leaves the default
// empty paragraph.
func (e *Editor) Delete(p Path) error {
	list, i, err := e.siblings(p, false)
	if err != nil {
		return err
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	e.normalize()
	return nil
}

// SetText replaces the value of the text leaf at p.
func (e *Editor) SetText(p Path, value string) error {
	n, err := e.lookup(p)
	if err != nil {
		return err
	}
	if n.Kind != document.KindText {
		return errors.Wrapf(ErrInvalidOperation, "set text on %s", n.Kind)
	}
	n.Value = value
	e.normalize()
	return nil
}

// SetChecked changes the state of the task item at p.
func (e *Editor) SetChecked(p Path, checked bool) error {
	n, err := e.lookup(p)
	if err != nil {
		return err
	}
	if n.Kind != document.KindTaskItem {
		return errors.Wrapf(ErrInvalidOperation, "set checked on %s", n.Kind)
	}
	n.Checked = checked
	e.normalize()
	return nil
}

// ToggleMark sets mark on every text leaf below the node at p, or clears
// it when all of them carry it already.
func (e *Editor) ToggleMark(p Path, mark Mark) error {
	if mark < MarkBold || mark > MarkCode {
		return errors.Wrapf(ErrInvalidOperation, "unknown mark %d", mark)
	}
	n, err := e.lookup(p)
	if err != nil {
		return err
	}

	var leaves []*document.Node
	n.Walk(func(c *document.Node) bool {
		if c.Kind == document.KindText {
			leaves = append(leaves, c)
		}
		return c.Kind != document.KindMath
	})

	active := len(leaves) > 0
	for _, l := range leaves {
		active = active && mark.get(l.Marks)
	}
	for _, l := range leaves {
		mark.set(&l.Marks, !active)
	}

	e.normalize()
	return nil
}

// textBlocks are the kinds ToggleBlock converts between.
func isTextBlock(k document.Kind) bool {
	switch k {
	case document.KindParagraph, document.KindHeading1, document.KindHeading2, document.KindHeading3,
		document.KindBlockquote, document.KindTaskItem, document.KindListItem:
		return true
	}
	return false
}

// ToggleBlock switches the block at p to kind, or back to a paragraph when
// it already has that kind. List kinds wrap the block in a list with one
// item; toggling the list kind of an item unwraps it from its list.
func (e *Editor) ToggleBlock(p Path, kind document.Kind) error {
	if !isTextBlock(kind) && !kind.IsList() || kind == document.KindListItem {
		return errors.Wrapf(ErrInvalidOperation, "toggle to %s", kind)
	}

	list, i, err := e.siblings(p, false)
	if err != nil {
		return err
	}
	n := (*list)[i]

	var parent *document.Node
	if len(p) > 1 {
		parent, _ = e.lookup(p[:len(p)-1])
	}

	switch {
	case n.Kind == document.KindListItem && parent != nil && parent.Kind.IsList():
		if err := e.unwrapItem(p, parent, kind); err != nil {
			return err
		}
	case n.Kind.IsList():
		// Toggling the list itself converts all of its items.
		if n.Kind == kind {
			items := make([]*document.Node, 0, len(n.Children))
			for _, item := range n.Children {
				items = append(items, asKind(item, document.KindParagraph))
			}
			*list = append((*list)[:i], append(items, (*list)[i+1:]...)...)
		} else if kind.IsList() {
			n.Kind = kind
		} else {
			return errors.Wrapf(ErrInvalidOperation, "toggle %s to %s", n.Kind, kind)
		}
	case !isTextBlock(n.Kind):
		return errors.Wrapf(ErrInvalidOperation, "toggle %s", n.Kind)
	case kind.IsList():
		(*list)[i] = document.Element(kind, asKind(n, document.KindListItem))
	case n.Kind == kind:
		(*list)[i] = asKind(n, document.KindParagraph)
	default:
		(*list)[i] = asKind(n, kind)
	}

	e.normalize()
	return nil
}

// unwrapItem handles ToggleBlock on a list item: the same list kind lifts
// the item out of its list, splitting the list around it; another list kind
// moves the item into a list of that kind; a block kind lifts and converts.
func (e *Editor) unwrapItem(p Path, list *document.Node, kind document.Kind) error {
	if kind == list.Kind {
		kind = document.KindParagraph
	}
	if kind.IsList() {
		list.Kind = kind
		return nil
	}

	outer, li, err := e.siblings(p[:len(p)-1], false)
	if err != nil {
		return err
	}
	idx := p[len(p)-1]

	before := list.Children[:idx]
	item := list.Children[idx]
	after := list.Children[idx+1:]

	replacement := make([]*document.Node, 0, 3)
	if len(before) > 0 {
		replacement = append(replacement, document.Element(list.Kind, before...))
	}
	replacement = append(replacement, asKind(item, kind))
	if len(after) > 0 {
		replacement = append(replacement, document.Element(list.Kind, after...))
	}

	*outer = append((*outer)[:li], append(replacement, (*outer)[li+1:]...)...)
	return nil
}

// asKind converts a text block keeping its inline children. Nested blocks
// of list items are dropped when the target cannot hold them.
func asKind(n *document.Node, kind document.Kind) *document.Node {
	children := n.Children
	if kind != document.KindListItem && kind != document.KindTaskItem {
		children = make([]*document.Node, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Kind == document.KindText || c.Kind == document.KindMath {
				children = append(children, c)
			}
		}
	}
	return &document.Node{Kind: kind, Children: children, Checked: n.Checked && kind == document.KindTaskItem}
}

// InsertTable inserts a rows by cols table at p. The first row holds
// header cells.
func (e *Editor) InsertTable(p Path, rows, cols int) error {
	if rows < 1 || rows > MaxTableRows || cols < 1 || cols > MaxTableColumns {
		return errors.Wrapf(ErrInvalidOperation, "table of %dx%d", rows, cols)
	}

	table := document.Element(document.KindTable)
	for r := 0; r < rows; r++ {
		kind := document.KindTableCell
		if r == 0 {
			kind = document.KindTableHeaderCell
		}
		row := document.Element(document.KindTableRow)
		for c := 0; c < cols; c++ {
			row.Children = append(row.Children, document.Element(kind, document.Text("")))
		}
		table.Children = append(table.Children, row)
	}
	return e.Insert(p, table)
}

// InsertMath inserts a math node at p.
func (e *Editor) InsertMath(p Path, formula string, display bool) error {
	return e.Insert(p, document.Math(formula, display))
}
