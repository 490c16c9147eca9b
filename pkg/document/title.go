package document

import "strings"

const (
	UntitledNote = "Untitled Note"

	maxHeadingTitle   = 100
	maxParagraphTitle = 50
)

// ExtractTitle derives a note title from its content: the first non-empty
// heading, else the first non-empty paragraph, else UntitledNote. Long
// titles are cut with an ellipsis.
func ExtractTitle(d *Document) string {
	if d == nil {
		return UntitledNote
	}
	for _, b := range d.Blocks {
		if !b.Kind.IsHeading() {
			continue
		}
		if t := strings.TrimSpace(b.PlainText()); t != "" {
			return truncate(t, maxHeadingTitle)
		}
	}
	for _, b := range d.Blocks {
		if b.Kind != KindParagraph {
			continue
		}
		if t := strings.TrimSpace(b.PlainText()); t != "" {
			return truncate(t, maxParagraphTitle)
		}
	}
	return UntitledNote
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
