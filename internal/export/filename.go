package export

import (
	"strings"
	"unicode"
)

// DefaultFileName is used when a title yields no usable characters.
const DefaultFileName = "notes.pdf"

const maxSlug = 80

// FileName returns the name of the PDF file exported for a note title.
func FileName(title string) string {
	var (
		b    strings.Builder
		dash bool
	)
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= maxSlug {
			break
		}
	}
	slug := b.String()
	if slug == "" {
		return DefaultFileName
	}
	return slug + ".pdf"
}
