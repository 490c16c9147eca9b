package export

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stateful/notes/internal/renderer/layout"
	"github.com/stateful/notes/pkg/document"
)

func longScene(t *testing.T) *layout.Scene {
	t.Helper()
	var md strings.Builder
	md.WriteString("# Meeting notes\n\n")
	for i := 0; i < 100; i++ {
		md.WriteString(strings.Repeat("Paragraph with enough words to wrap across more than a single line. ", 2) + "\n\n")
		if i%10 == 5 {
			md.WriteString("| A | B |\n| --- | --- |\n| 1 | 2 |\n| 3 | 4 |\n\n")
		}
	}
	scene, err := layout.Layout(document.Deserialize(document.Markdown(md.String())), layout.Options{})
	require.NoError(t, err)
	return scene
}

func requireCover(t *testing.T, bands []Band, height int) {
	t.Helper()
	require.NotEmpty(t, bands)
	y, total := 0, 0
	for _, b := range bands {
		assert.Equal(t, y, b.Y)
		assert.Greater(t, b.Height, 0)
		y = b.Bottom()
		total += b.Height
	}
	assert.Equal(t, height, total)
}

func TestBandsCoverScene(t *testing.T) {
	scene := longScene(t)
	pageHeight := PageHeight(scene.Width)
	require.Greater(t, scene.Height, 2*pageHeight)

	plain := Bands(scene, pageHeight, false)
	requireCover(t, plain, scene.Height)
	for _, b := range plain[:len(plain)-1] {
		assert.Equal(t, pageHeight, b.Height)
	}

	avoiding := Bands(scene, pageHeight, true)
	requireCover(t, avoiding, scene.Height)
	for _, band := range avoiding[:len(avoiding)-1] {
		for _, box := range scene.Unbreakable() {
			straddles := box.Y < band.Bottom() && box.Bottom() > band.Bottom()
			assert.False(t, straddles && box.Y > band.Y, "box at %d split by band ending at %d", box.Y, band.Bottom())
		}
	}
}

func TestBandsAvoidBreaks(t *testing.T) {
	table := &layout.Box{Y: 80, Height: 40, Unbreakable: true}
	scene := &layout.Scene{Width: 100, Height: 250, Root: &layout.Box{Height: 250, Children: []*layout.Box{table}}}

	assert.Equal(t, []Band{{0, 100}, {100, 100}, {200, 50}}, Bands(scene, 100, false))
	assert.Equal(t, []Band{{0, 80}, {80, 100}, {180, 70}}, Bands(scene, 100, true))

	table.Height = 150
	assert.Equal(t, []Band{{0, 100}, {100, 100}, {200, 50}}, Bands(scene, 100, true))

	assert.Nil(t, Bands(&layout.Scene{}, 100, true))
}

func TestExport(t *testing.T) {
	scene := longScene(t)

	var calls []int
	e := New(nil, Options{
		AvoidBreaks:    true,
		LoggerInstance: zaptest.NewLogger(t),
		Progress:       func(done, total int) { calls = append(calls, done) },
	})

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), scene, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	bands := Bands(scene, PageHeight(scene.Width), true)
	require.Len(t, calls, len(bands))
	assert.Equal(t, len(bands), calls[len(calls)-1])
}

func TestExportContainerNotFound(t *testing.T) {
	e := New(nil, Options{})

	var buf bytes.Buffer
	assert.ErrorIs(t, e.Export(context.Background(), nil, &buf), ErrContainerNotFound)
	assert.ErrorIs(t, e.Export(context.Background(), &layout.Scene{Width: 10, Height: 10}, &buf), ErrContainerNotFound)
	assert.Zero(t, buf.Len())
}

func TestExportCancelled(t *testing.T) {
	scene := longScene(t)

	t.Run("BeforeStart", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var buf bytes.Buffer
		assert.ErrorIs(t, New(nil, Options{}).Export(ctx, scene, &buf), context.Canceled)
		assert.Zero(t, buf.Len())
	})

	t.Run("AfterFirstBand", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		bands := 0
		e := New(nil, Options{Progress: func(done, total int) {
			bands = done
			cancel()
		}})

		var buf bytes.Buffer
		assert.ErrorIs(t, e.Export(ctx, scene, &buf), context.Canceled)
		assert.Equal(t, 1, bands)
		assert.Zero(t, buf.Len())
	})
}

func TestExportSerializesSurface(t *testing.T) {
	scene, err := layout.Layout(document.Deserialize(document.Markdown("# One\n\ntext")), layout.Options{})
	require.NoError(t, err)

	e := New(nil, Options{})
	var wg sync.WaitGroup
	outputs := make([]bytes.Buffer, 4)
	for i := range outputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Export(context.Background(), scene, &outputs[i]))
		}()
	}
	wg.Wait()

	for i := range outputs {
		assert.True(t, bytes.HasPrefix(outputs[i].Bytes(), []byte("%PDF-")))
	}
}

func TestFileName(t *testing.T) {
	for title, expected := range map[string]string{
		"Weekly Sync: Q3 plans!": "weekly-sync-q3-plans.pdf",
		"  Café notes  ":         "café-notes.pdf",
		"":                       DefaultFileName,
		"!!!":                    DefaultFileName,
		document.UntitledNote:    "untitled-note.pdf",
	} {
		assert.Equal(t, expected, FileName(title), title)
	}
}
