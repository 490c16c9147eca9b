package md

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/pkg/document"
)

func TestRender(t *testing.T) {
	text := document.Text
	styled := document.Styled
	el := document.Element

	testCases := []struct {
		name     string
		blocks   []*document.Node
		expected string
	}{
		{
			name:     "Empty",
			blocks:   nil,
			expected: "",
		},
		{
			name: "HeadingAndList",
			blocks: []*document.Node{
				el(document.KindHeading1, text("Title")),
				el(document.KindBulletList,
					el(document.KindListItem, text("one")),
					el(document.KindListItem, text("two")),
				),
			},
			expected: "# Title\n\n- one\n- two\n",
		},
		{
			name: "NumberedNested",
			blocks: []*document.Node{
				el(document.KindNumberedList,
					el(document.KindListItem, text("first")),
					el(document.KindListItem, text("second"),
						el(document.KindBulletList, el(document.KindListItem, text("inner"))),
					),
				),
			},
			expected: "1. first\n2. second\n   - inner\n",
		},
		{
			name: "Marks",
			blocks: []*document.Node{
				el(document.KindParagraph,
					text("a "),
					styled("b", document.Marks{Bold: true}),
					text(" "),
					styled("i", document.Marks{Italic: true}),
					text(" "),
					styled("u", document.Marks{Underline: true}),
					text(" "),
					styled("c", document.Marks{Code: true}),
				),
			},
			expected: "a **b** *i* <u>u</u> `c`\n",
		},
		{
			name: "SharedMarkSpansLeaves",
			blocks: []*document.Node{
				el(document.KindParagraph,
					styled("a ", document.Marks{Bold: true}),
					styled("b", document.Marks{Bold: true, Italic: true}),
				),
			},
			expected: "**a *b***\n",
		},
		{
			name: "WhitespaceMovedOutsideDelimiters",
			blocks: []*document.Node{
				el(document.KindParagraph,
					text("x"),
					styled(" y ", document.Marks{Bold: true}),
					text("z"),
				),
			},
			expected: "x **y** z\n",
		},
		{
			name: "UnderlineKeepsWhitespace",
			blocks: []*document.Node{
				el(document.KindParagraph,
					styled("# ", document.Marks{Underline: true}),
					text("x"),
				),
			},
			expected: "<u># </u>x\n",
		},
		{
			name: "ItemWithoutTextHoldsNestedBlock",
			blocks: []*document.Node{
				el(document.KindNumberedList,
					el(document.KindListItem, document.TaskItem(false, text("x"))),
				),
			},
			expected: "1. - [ ] x\n",
		},
		{
			name: "ParagraphInsideItem",
			blocks: []*document.Node{
				el(document.KindBulletList,
					el(document.KindListItem, text("a"), el(document.KindParagraph, text("more"))),
				),
			},
			expected: "- a\n\n  more\n",
		},
		{
			name: "Escapes",
			blocks: []*document.Node{
				el(document.KindParagraph, text("# not *a* heading, costs $5 | [x]")),
				el(document.KindParagraph, text("1. not a list")),
			},
			expected: "\\# not \\*a\\* heading, costs \\$5 \\| \\[x\\]\n\n1\\. not a list\n",
		},
		{
			name: "CodeWithBackticks",
			blocks: []*document.Node{
				el(document.KindParagraph, styled("a`b", document.Marks{Code: true})),
			},
			expected: "``a`b``\n",
		},
		{
			name: "TasksAndQuotes",
			blocks: []*document.Node{
				document.TaskItem(false, text("todo")),
				document.TaskItem(true, text("done")),
				el(document.KindBlockquote, text("one")),
				el(document.KindBlockquote, text("two")),
			},
			expected: "- [ ] todo\n- [x] done\n\n> one\n> two\n",
		},
		{
			name: "Table",
			blocks: []*document.Node{
				el(document.KindTable,
					el(document.KindTableRow,
						el(document.KindTableHeaderCell, text("A")),
						el(document.KindTableHeaderCell, text("B")),
					),
					el(document.KindTableRow,
						el(document.KindTableCell, text("x|y")),
					),
				),
			},
			expected: "| A | B |\n| --- | --- |\n| x\\|y |  |\n",
		},
		{
			name: "Math",
			blocks: []*document.Node{
				document.Math("E=mc^2", true),
				el(document.KindParagraph, text("where "), document.Math("c", false), text(" is fast")),
			},
			expected: "$$E=mc^2$$\n\nwhere $c$ is fast\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Render(&document.Document{Blocks: tc.blocks})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(result))
		})
	}
}

func TestRenderFrontmatter(t *testing.T) {
	doc := document.Deserialize(document.Markdown("---\ntitle: Plan\n---\n\nbody"))

	result, err := Render(doc)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Plan\n---\n\nbody\n", string(result))
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello world",
		"# Title\n- one\n- two",
		"This is **bold** text",
		"| Name | Value |\n| --- | --- |\n| a | 1 |",
		"$$E=mc^2$$",
		"first line\nsecond line",
		"## Two\n### Three",
		"1. first\n2. second\n   - nested",
		"- a\n\n- b",
		"- a\n1. b",
		"- [ ] todo\n- [x] done",
		"- a\n- [x] t\n- b",
		"> quote one\n> quote two",
		"| A | B |\n| --- | --- |\n| 1 |",
		"| A | B |\n| --- | --- |",
		"Before $$x+1$$ after",
		"Energy $E=mc^2$ holds",
		"costs $5 and $10",
		"```\nfirst()\nsecond()\n```",
		"Unterminated **bold",
		"snake_case_name and 2 * 3",
		"***both*** and <u>under</u>",
		"**a *b***",
		"# C# and F#",
		"\\- literal dash",
		"run `a | b` now",
		"1. - [ ] ---",
		"<u># </u>x",
		"***a** b*",
		"- one\n- two\nthree",
		"Intro\n2. second",
		"- a\n\n  more",
		"- ```\n  code()\n  ```",
		"[\xff",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			doc := document.Deserialize(document.Markdown(input))

			result, err := Render(doc)
			require.NoError(t, err)

			again := document.Deserialize(document.Markdown(result))
			if diff := cmp.Diff(doc.Blocks, again.Blocks); diff != "" {
				t.Fatalf("round trip through %q changed blocks (-want +got):\n%s", result, diff)
			}
		})
	}
}
