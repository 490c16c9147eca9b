package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTitle(t *testing.T) {
	long := strings.Repeat("x", 120)

	testCases := []struct {
		name     string
		doc      *Document
		expected string
	}{
		{
			name:     "Nil",
			doc:      nil,
			expected: UntitledNote,
		},
		{
			name:     "Empty",
			doc:      Default(),
			expected: UntitledNote,
		},
		{
			name:     "FirstHeading",
			doc:      New(para(txt("intro")), h(KindHeading2, "  Minutes  "), h(KindHeading1, "Later")),
			expected: "Minutes",
		},
		{
			name:     "SkipsEmptyHeading",
			doc:      New(h(KindHeading1, " "), h(KindHeading3, "Real")),
			expected: "Real",
		},
		{
			name:     "LongHeading",
			doc:      New(h(KindHeading1, long)),
			expected: strings.Repeat("x", 97) + "...",
		},
		{
			name:     "ParagraphFallback",
			doc:      New(para(txt("Buy "), bold("milk"))),
			expected: "Buy milk",
		},
		{
			name:     "LongParagraph",
			doc:      New(para(txt(long))),
			expected: strings.Repeat("x", 47) + "...",
		},
		{
			name:     "MultibyteTruncation",
			doc:      New(para(txt(strings.Repeat("ä", 60)))),
			expected: strings.Repeat("ä", 47) + "...",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractTitle(tc.doc))
		})
	}
}
