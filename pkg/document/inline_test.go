package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatInline(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []*Node
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []*Node{txt("")},
		},
		{
			name:     "NoMarkers",
			input:    "plain text",
			expected: []*Node{txt("plain text")},
		},
		{
			name:     "Bold",
			input:    "This is **bold** text",
			expected: []*Node{txt("This is "), bold("bold"), txt(" text")},
		},
		{
			name:     "BoldUnderscores",
			input:    "__strong__ words",
			expected: []*Node{bold("strong"), txt(" words")},
		},
		{
			name:     "Italic",
			input:    "an *italic* and _another_",
			expected: []*Node{txt("an "), italic("italic"), txt(" and "), italic("another")},
		},
		{
			name:     "CodeIsNotRescanned",
			input:    "run `**not bold**` now",
			expected: []*Node{txt("run "), code("**not bold**"), txt(" now")},
		},
		{
			name:     "BoldAndItalic",
			input:    "***both***",
			expected: []*Node{Styled("both", Marks{Bold: true, Italic: true})},
		},
		{
			name:     "UnterminatedBold",
			input:    "a stray ** marker",
			expected: []*Node{txt("a stray ** marker")},
		},
		{
			name:     "UnterminatedCode",
			input:    "tick ` here",
			expected: []*Node{txt("tick ` here")},
		},
		{
			name:     "Underline",
			input:    "<u>under</u>lined",
			expected: []*Node{Styled("under", Marks{Underline: true}), txt("lined")},
		},
		{
			name:     "EscapedMarker",
			input:    `not \*italic\*`,
			expected: []*Node{txt("not *italic*")},
		},
		{
			name:     "IntrawordUnderscore",
			input:    "snake_case_name",
			expected: []*Node{txt("snake_case_name")},
		},
		{
			name:     "OuterWhitespaceTrimmed",
			input:    "  hi  ",
			expected: []*Node{txt("hi")},
		},
		{
			name:     "LinesJoined",
			input:    "one\ntwo",
			expected: []*Node{txt("one two")},
		},
		{
			name:     "WhitespaceOnly",
			input:    "   ",
			expected: []*Node{txt("   ")},
		},
		{
			name:     "EdgeSpaceIsNotEmphasized",
			input:    "***a** b*",
			expected: []*Node{Styled("a", Marks{Bold: true, Italic: true}), txt(" "), italic("b")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInline(tc.input))
		})
	}
}

func TestFormatInlineMergesRuns(t *testing.T) {
	leaves := FormatInline("**a****b**")
	for i := 1; i < len(leaves); i++ {
		assert.NotEqual(t, leaves[i-1].Marks, leaves[i].Marks, "adjacent leaves share marks")
	}
}
