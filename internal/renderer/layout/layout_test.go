package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/pkg/document"
)

func layoutMarkdown(t *testing.T, md string, opts Options) *Scene {
	t.Helper()
	scene, err := Layout(document.Deserialize(document.Markdown(md)), opts)
	require.NoError(t, err)
	return scene
}

func TestLoadFonts(t *testing.T) {
	fonts, err := LoadFonts()
	require.NoError(t, err)

	for s := StyleRegular; s < numStyles; s++ {
		assert.NotNil(t, fonts.Font(s), s.String())
	}
	assert.Zero(t, fonts.Measure(StyleRegular, 11, ""))
	assert.Greater(t, fonts.Measure(StyleRegular, 11, "hello"), 0)
	assert.Greater(t, fonts.Measure(StyleRegular, 22, "hello"), fonts.Measure(StyleRegular, 11, "hello"))
	assert.Equal(t, fonts.Measure(StyleMono, 11, "iiii"), fonts.Measure(StyleMono, 11, "MMMM"))
}

func TestLayoutStacksBlocks(t *testing.T) {
	scene := layoutMarkdown(t, "# Title\n\nfirst\nsecond\n\n- a\n- b\n\n> quote", Options{})

	assert.Equal(t, "Title", scene.Title)
	assert.Equal(t, DefaultWidth+2*DefaultPadding, scene.Width)
	require.NotNil(t, scene.Root)

	blocks := scene.Root.Children
	require.Len(t, blocks, 5)
	assert.Equal(t, DefaultPadding, blocks[0].Y)
	for i := 1; i < len(blocks); i++ {
		assert.Greater(t, blocks[i].Y, blocks[i-1].Bottom()-1, "block %d overlaps the previous one", i)
	}
	assert.Equal(t, blocks[len(blocks)-1].Bottom()+DefaultPadding, scene.Height)
	assert.Equal(t, scene.Height, scene.Root.Height)

	heading := blocks[0]
	require.Len(t, heading.Lines, 1)
	require.Len(t, heading.Lines[0].Runs, 1)
	assert.Equal(t, StyleBold, heading.Lines[0].Runs[0].Style)
	assert.Greater(t, heading.Height, blocks[1].Height)

	list := blocks[3]
	assert.Equal(t, document.KindBulletList, list.Kind)
	require.Len(t, list.Children, 2)
	assert.Equal(t, "•", list.Children[0].Lines[0].Runs[0].Text)

	quote := blocks[4]
	require.Len(t, quote.Rules, 1)
	assert.Equal(t, StyleItalic, quote.Lines[0].Runs[0].Style)
}

func TestLayoutEmptyDocument(t *testing.T) {
	scene, err := Layout(nil, Options{})
	require.NoError(t, err)

	require.Len(t, scene.Root.Children, 1)
	p := scene.Root.Children[0]
	require.Len(t, p.Lines, 1)
	assert.Empty(t, p.Lines[0].Runs)
	assert.Greater(t, p.Height, 0)
}

func TestLayoutWrapsText(t *testing.T) {
	const width = 120
	scene := layoutMarkdown(t, strings.Repeat("lorem ipsum dolor ", 20)+"supercalifragilisticexpialidocious"+strings.Repeat("x", 60), Options{Width: width})

	p := scene.Root.Children[0]
	require.Greater(t, len(p.Lines), 3)

	var text strings.Builder
	for i, l := range p.Lines {
		if i > 0 {
			assert.Equal(t, p.Lines[i-1].Y+p.Lines[i-1].Height, l.Y)
		}
		require.NotEmpty(t, l.Runs)
		first, last := l.Runs[0], l.Runs[len(l.Runs)-1]
		assert.GreaterOrEqual(t, first.X, DefaultPadding)
		assert.LessOrEqual(t, last.X+last.Width, DefaultPadding+width)
		assert.False(t, strings.HasSuffix(last.Text, " "), "line %d ends with a space", i)
		for _, r := range l.Runs {
			text.WriteString(r.Text)
		}
	}
	assert.Contains(t, text.String(), "supercali")
	assert.Equal(t, p.Height, p.Lines[len(p.Lines)-1].Y+p.Lines[len(p.Lines)-1].Height-p.Y)
}

func TestLayoutMarks(t *testing.T) {
	scene := layoutMarkdown(t, "plain **bold** *it* `code` <u>under</u>", Options{})

	runs := map[string]Run{}
	for _, r := range scene.Root.Children[0].Lines[0].Runs {
		runs[strings.TrimSpace(r.Text)] = r
	}
	assert.Equal(t, StyleBold, runs["bold"].Style)
	assert.Equal(t, StyleItalic, runs["it"].Style)
	assert.Equal(t, StyleMono, runs["code"].Style)
	assert.True(t, runs["code"].Shade)
	assert.True(t, runs["under"].Underline)
}

func TestLayoutUnbreakable(t *testing.T) {
	scene := layoutMarkdown(t, "| A | B |\n| --- | --- |\n| 1 | 2 |\n\n$$E=mc^2$$\n\nInline $x$ math", Options{})

	blocks := scene.Root.Children
	require.Len(t, blocks, 3)

	table := blocks[0]
	assert.True(t, table.Unbreakable)
	require.Len(t, table.Children, 2)
	header := table.Children[0].Children[0]
	assert.Equal(t, document.KindTableHeaderCell, header.Kind)
	assert.Len(t, header.Rules, 2)
	assert.Equal(t, table.Height, table.Children[0].Height+table.Children[1].Height)

	math := blocks[1]
	assert.True(t, math.Unbreakable)
	assert.Equal(t, "E=mc^2", math.Lines[0].Runs[0].Text)
	assert.Greater(t, math.Lines[0].Runs[0].X, math.X)

	assert.False(t, blocks[2].Unbreakable)
	assert.Equal(t, []*Box{table, math}, scene.Unbreakable())
}

func TestLayoutTaskItems(t *testing.T) {
	scene := layoutMarkdown(t, "- [x] done\n- [ ] todo", Options{})

	blocks := scene.Root.Children
	require.Len(t, blocks, 2)
	assert.Len(t, blocks[0].Rules, 2)
	assert.Len(t, blocks[1].Rules, 1)
	assert.Equal(t, Muted, blocks[0].Lines[0].Runs[0].Color)
}
