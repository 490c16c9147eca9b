package html

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/pkg/document"
)

func TestRender(t *testing.T) {
	text := document.Text
	el := document.Element

	testCases := []struct {
		name     string
		blocks   []*document.Node
		expected string
	}{
		{
			name:     "Paragraph",
			blocks:   []*document.Node{el(document.KindParagraph, text("a < b"))},
			expected: "<p>a &lt; b</p>",
		},
		{
			name: "Marks",
			blocks: []*document.Node{
				el(document.KindParagraph, document.Styled("x", document.Marks{Bold: true, Italic: true, Underline: true, Code: true})),
			},
			expected: "<p><u><strong><em><code>x</code></em></strong></u></p>",
		},
		{
			name: "TaskItemsGrouped",
			blocks: []*document.Node{
				document.TaskItem(true, text("a")),
				document.TaskItem(false, text("b")),
				el(document.KindHeading2, text("h")),
			},
			expected: `<ul data-type="taskList"><li data-type="taskItem" data-checked="true">a</li><li data-type="taskItem" data-checked="false">b</li></ul>` +
				"\n<h2>h</h2>",
		},
		{
			name: "NestedList",
			blocks: []*document.Node{
				el(document.KindNumberedList,
					el(document.KindListItem, text("a"),
						el(document.KindBulletList, el(document.KindListItem, text("b"))),
					),
				),
			},
			expected: "<ol><li>a<ul><li>b</li></ul></li></ol>",
		},
		{
			name: "Table",
			blocks: []*document.Node{
				el(document.KindTable,
					el(document.KindTableRow, el(document.KindTableHeaderCell, text("H"))),
					el(document.KindTableRow, el(document.KindTableCell, text("c"))),
				),
			},
			expected: "<table><tbody><tr><th>H</th></tr><tr><td>c</td></tr></tbody></table>",
		},
		{
			name: "Math",
			blocks: []*document.Node{
				document.Math("x<1", true),
				el(document.KindParagraph, document.Math("y", false)),
			},
			expected: `<div data-type="math" data-formula="x&lt;1" data-display="true"></div>` +
				"\n" + `<p><span data-type="math" data-formula="y" data-display="false"></span></p>`,
		},
		{
			name:     "Blockquote",
			blocks:   []*document.Node{el(document.KindBlockquote, text("q"))},
			expected: "<blockquote><p>q</p></blockquote>",
		},
		{
			name:     "WhitespaceRun",
			blocks:   []*document.Node{el(document.KindParagraph, text("a  b"))},
			expected: `<p><span data-whitespace="pre" style="white-space:pre-wrap">a  b</span></p>`,
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

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello world",
		"# Title\n- one\n- two",
		"This is **bold** text and *italic*",
		"| Name | Value |\n| --- | --- |\n| a | 1 |",
		"$$E=mc^2$$",
		"Energy $E=mc^2$ holds",
		"1. first\n2. second\n   - nested",
		"- [ ] todo\n- [x] done\n\nafter",
		"> quote one\n> quote two",
		"```\nfirst()\n```",
		"<u>under</u> and `code`",
		"a < b & c",
		"Text with  two spaces",
		"tab\tinside and **bold  run**",
		"",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			doc := document.Deserialize(document.Markdown(input))

			result, err := Render(doc)
			require.NoError(t, err)

			again := document.Deserialize(document.HTML(result))
			if diff := cmp.Diff(doc.Blocks, again.Blocks); diff != "" {
				t.Fatalf("round trip through %q changed blocks (-want +got):\n%s", result, diff)
			}
		})
	}
}
