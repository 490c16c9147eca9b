package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txt(s string) *Node    { return Text(s) }
func bold(s string) *Node   { return Styled(s, Marks{Bold: true}) }
func italic(s string) *Node { return Styled(s, Marks{Italic: true}) }
func code(s string) *Node   { return Styled(s, Marks{Code: true}) }

func para(children ...*Node) *Node { return Element(KindParagraph, children...) }
func h(kind Kind, s string) *Node  { return Element(kind, txt(s)) }
func ul(items ...*Node) *Node      { return Element(KindBulletList, items...) }
func ol(items ...*Node) *Node      { return Element(KindNumberedList, items...) }
func li(children ...*Node) *Node   { return Element(KindListItem, children...) }
func quote(s string) *Node         { return Element(KindBlockquote, txt(s)) }
func row(cells ...*Node) *Node     { return Element(KindTableRow, cells...) }
func th(s string) *Node            { return Element(KindTableHeaderCell, txt(s)) }
func td(s string) *Node            { return Element(KindTableCell, txt(s)) }

func requireBlocks(t *testing.T, want []*Node, doc *Document) {
	t.Helper()
	require.NotNil(t, doc)
	if diff := cmp.Diff(want, doc.Blocks); diff != "" {
		t.Fatalf("unexpected blocks (-want +got):\n%s", diff)
	}
}

// assertValid checks every tree invariant on doc.
func assertValid(t *testing.T, doc *Document) {
	t.Helper()
	require.NotNil(t, doc)
	require.NotEmpty(t, doc.Blocks)

	doc.Walk(func(n *Node) bool {
		require.NotNil(t, n)
		assert.True(t, n.Kind.Valid(), "invalid kind %d", n.Kind)

		if n.Kind == KindText {
			assert.Empty(t, n.Children)
			return true
		}
		assert.NotEmpty(t, n.Children, "%s without children", n.Kind)

		for _, c := range n.Children {
			require.NotNil(t, c)
			switch n.Kind {
			case KindTable:
				assert.Equal(t, KindTableRow, c.Kind)
			case KindTableRow:
				assert.True(t, c.Kind.IsCell(), "%s in a table row", c.Kind)
			case KindTableCell, KindTableHeaderCell:
				assert.Equal(t, KindText, c.Kind)
			}
		}

		if n.Kind == KindMath {
			require.Len(t, n.Children, 1)
			assert.Equal(t, Text(""), n.Children[0])
		}
		return true
	})
}
