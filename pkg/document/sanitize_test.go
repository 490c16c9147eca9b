package document

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var malformedTrees = []*Node{
	nil,
	{Kind: 0},
	{Kind: 99, Children: []*Node{Text("x")}},
	{Kind: KindParagraph},
	{Kind: KindParagraph, Children: []*Node{nil, nil}},
	{Kind: KindText, Value: "leaf", Children: []*Node{Text("nested")}},
	{Kind: KindMath, Formula: "x"},
	{Kind: KindMath, Formula: "x", Children: []*Node{Text("a"), Text("b")}},
	{Kind: KindTable},
	{Kind: KindTable, Children: []*Node{Text("stray"), Element(KindParagraph)}},
	{Kind: KindTable, Children: []*Node{
		{Kind: KindTableRow, Children: []*Node{Element(KindParagraph, Text("p"))}},
	}},
	{Kind: KindTable, Children: []*Node{
		{Kind: KindTableRow, Children: []*Node{
			{Kind: KindTableCell, Children: []*Node{Element(KindBulletList), Text("ok"), Math("m", false)}},
		}},
	}},
	{Kind: KindBulletList, Children: []*Node{{Kind: KindListItem}, nil}},
	{Kind: KindTaskItem, Checked: true},
	{Kind: KindParagraph, Value: "ignored", Checked: true, Formula: "f", Children: []*Node{Text("t")}},
	{Kind: KindParagraph, Children: []*Node{Text("[\xff"), Styled("\xc3", Marks{Bold: true})}},
	Math("\xff\xfe", true),
}

func TestSanitizeIdempotent(t *testing.T) {
	for i, tree := range malformedTrees {
		once := Sanitize(tree)
		twice := Sanitize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("tree %d changed on second pass (-once +twice):\n%s", i, diff)
		}
		assertValid(t, &Document{Blocks: []*Node{once}})
	}
}

func TestSanitizeIdempotentNoRepairs(t *testing.T) {
	for _, tree := range malformedTrees {
		once := Sanitize(tree)

		var repairs []Repair
		Sanitize(once, WithRepairHook(func(r Repair) {
			repairs = append(repairs, r)
		}))
		assert.Empty(t, repairs)
	}
}

func TestSanitizeRepairs(t *testing.T) {
	t.Run("MissingChildren", func(t *testing.T) {
		assert.Equal(t, para(txt("")), Sanitize(&Node{Kind: KindParagraph}))
	})

	t.Run("NullChildrenDropped", func(t *testing.T) {
		var repairs []Repair
		got := Sanitize(
			&Node{Kind: KindParagraph, Children: []*Node{nil, Text("a"), nil}},
			WithRepairHook(func(r Repair) { repairs = append(repairs, r) }),
		)
		assert.Equal(t, para(txt("a")), got)
		require.Len(t, repairs, 2)
		assert.Equal(t, "/0", repairs[0].Path)
		assert.Equal(t, "/2", repairs[1].Path)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		assert.Equal(t, para(txt("x")), Sanitize(&Node{Kind: 42, Children: []*Node{Text("x")}}))
	})

	t.Run("MathSingleton", func(t *testing.T) {
		got := Sanitize(&Node{Kind: KindMath, Formula: "y", Display: true, Children: []*Node{Text("y"), para()}})
		assert.Equal(t, Math("y", true), got)
	})

	t.Run("EmptyTable", func(t *testing.T) {
		got := Sanitize(&Node{Kind: KindTable, Children: []*Node{Text("x")}})
		assert.Equal(t, Element(KindTable, row(td(""))), got)
	})

	t.Run("RowKeepsCells", func(t *testing.T) {
		got := Sanitize(&Node{Kind: KindTableRow, Children: []*Node{th("h"), para(), td("c")}})
		assert.Equal(t, row(th("h"), td("c")), got)
	})

	t.Run("CellKeepsText", func(t *testing.T) {
		got := Sanitize(&Node{Kind: KindTableCell, Children: []*Node{ul(), txt("ok"), Math("m", false)}})
		assert.Equal(t, td("ok"), got)
	})

	t.Run("IrrelevantFieldsCleared", func(t *testing.T) {
		got := Sanitize(&Node{Kind: KindParagraph, Value: "v", Checked: true, Formula: "f", Children: []*Node{txt("t")}})
		assert.Equal(t, para(txt("t")), got)
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		var repairs []Repair
		got := Sanitize(
			para(txt("[\xff")),
			WithRepairHook(func(r Repair) { repairs = append(repairs, r) }),
		)
		assert.Equal(t, para(txt("[\uFFFD")), got)
		require.Len(t, repairs, 1)
		assert.Equal(t, "/0", repairs[0].Path)
		assert.Equal(t, got, Sanitize(got))
	})

	t.Run("InvalidUTF8Formula", func(t *testing.T) {
		assert.Equal(t, Math("\uFFFD", false), Sanitize(Math("\xff\xfe", false)))
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		in := &Node{Kind: KindParagraph, Children: []*Node{nil, txt("a")}}
		Sanitize(in)
		assert.Len(t, in.Children, 2)
	})
}

func TestSanitizeBlocks(t *testing.T) {
	assert.Equal(t, []*Node{para(txt(""))}, SanitizeBlocks(nil))
	assert.Equal(t, []*Node{para(txt(""))}, SanitizeBlocks([]*Node{nil}))
	assert.Equal(t, []*Node{para(txt("loose"))}, SanitizeBlocks([]*Node{txt("loose")}))
}

func TestSanitizeRaw(t *testing.T) {
	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "bulleted-list",
		"children": [
			{"type": "list-item", "children": [{"text": 12.5, "bold": 1}]},
			null,
			"bare"
		]
	}`), &raw))

	got := SanitizeRaw(raw)
	assert.Equal(t, ul(
		li(Styled("12.5", Marks{Bold: true})),
		txt("bare"),
	), got)

	assert.Equal(t, para(txt("")), SanitizeRaw(nil))
	assert.Equal(t, para(txt("")), SanitizeRaw([]any{1, 2}))
}
