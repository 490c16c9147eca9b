package document

import (
	"strconv"
	"strings"
)

// Kind is the closed set of node kinds a document tree is built from.
type Kind int

const (
	KindParagraph Kind = iota + 1
	KindHeading1
	KindHeading2
	KindHeading3
	KindBulletList
	KindNumberedList
	KindListItem
	KindBlockquote
	KindTaskItem
	KindTable
	KindTableRow
	KindTableCell
	KindTableHeaderCell
	KindMath
	KindText
)

var kindNames = [...]string{
	KindParagraph:       "paragraph",
	KindHeading1:        "heading1",
	KindHeading2:        "heading2",
	KindHeading3:        "heading3",
	KindBulletList:      "bulletList",
	KindNumberedList:    "numberedList",
	KindListItem:        "listItem",
	KindBlockquote:      "blockquote",
	KindTaskItem:        "taskItem",
	KindTable:           "table",
	KindTableRow:        "tableRow",
	KindTableCell:       "tableCell",
	KindTableHeaderCell: "tableHeaderCell",
	KindMath:            "math",
	KindText:            "text",
}

// legacyKinds maps names written by older versions of the editor.
var legacyKinds = map[string]Kind{
	"heading-one":   KindHeading1,
	"heading-two":   KindHeading2,
	"heading-three": KindHeading3,
	"bulleted-list": KindBulletList,
	"numbered-list": KindNumberedList,
	"list-item":     KindListItem,
	"block-quote":   KindBlockquote,
	"task-item":     KindTaskItem,
	"table-row":     KindTableRow,
	"table-cell":    KindTableCell,
	"table-header":  KindTableHeaderCell,
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k >= KindParagraph && k <= KindText
}

// IsHeading reports whether k is one of the heading kinds.
func (k Kind) IsHeading() bool {
	return k >= KindHeading1 && k <= KindHeading3
}

// IsList reports whether k is a bullet or a numbered list.
func (k Kind) IsList() bool {
	return k == KindBulletList || k == KindNumberedList
}

// IsCell reports whether k is a table body or header cell.
func (k Kind) IsCell() bool {
	return k == KindTableCell || k == KindTableHeaderCell
}

// ParseKind resolves a kind name, including legacy names. The second
// return value is false when the name is unknown.
func ParseKind(name string) (Kind, bool) {
	name = strings.TrimSpace(name)
	for k, n := range kindNames {
		if n != "" && n == name {
			return Kind(k), true
		}
	}
	if k, ok := legacyKinds[name]; ok {
		return k, true
	}
	return 0, false
}

// HeadingKind returns the heading kind for a markdown heading level.
// Levels deeper than three degrade to KindHeading3.
func HeadingKind(level int) Kind {
	switch {
	case level <= 1:
		return KindHeading1
	case level == 2:
		return KindHeading2
	default:
		return KindHeading3
	}
}

// HeadingLevel is the inverse of HeadingKind. It returns 0 for non-heading kinds.
func HeadingLevel(k Kind) int {
	if !k.IsHeading() {
		return 0
	}
	return int(k-KindHeading1) + 1
}
