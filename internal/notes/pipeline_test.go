package notes

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stateful/notes/pkg/document"
)

func TestPipelineGenerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	audio := strings.NewReader("RIFF")

	transcriber := NewMockTranscriber(ctrl)
	transcriber.EXPECT().Transcribe(ctx, audio).Return("we talked about cells", nil)

	summarizer := NewMockSummarizer(ctrl)
	summarizer.EXPECT().Summarize(ctx, "we talked about cells", "focus on biology").
		Return("# Cells\n- membrane\n- [ ] review", nil)

	result, err := NewPipeline(transcriber, summarizer, zaptest.NewLogger(t)).Generate(ctx, audio, "focus on biology")
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	assert.Equal(t, "we talked about cells", result.Transcript)
	assert.Equal(t, []*document.Node{
		document.Element(document.KindHeading1, document.Text("Cells")),
		document.Element(document.KindBulletList, document.Element(document.KindListItem, document.Text("membrane"))),
		document.TaskItem(false, document.Text("review")),
	}, result.Document.Blocks)
}

func TestPipelineDegradesToTranscript(t *testing.T) {
	for name, summarize := range map[string]func(*MockSummarizer){
		"Error": func(m *MockSummarizer) {
			m.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("model unavailable"))
		},
		"Empty": func(m *MockSummarizer) {
			m.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).Return("  \n", nil)
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			summarizer := NewMockSummarizer(ctrl)
			summarize(summarizer)

			result, err := NewPipeline(nil, summarizer, zaptest.NewLogger(t)).
				FromTranscript(context.Background(), "**raw** transcript", "")
			require.NoError(t, err)

			assert.True(t, result.Degraded)
			assert.Equal(t, "**raw** transcript", result.Markdown)
			assert.Equal(t, []*document.Node{
				document.Element(document.KindParagraph,
					document.Styled("raw", document.Marks{Bold: true}),
					document.Text(" transcript"),
				),
			}, result.Document.Blocks)
		})
	}
}

func TestPipelineErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	transcriber := NewMockTranscriber(ctrl)
	transcriber.EXPECT().Transcribe(ctx, gomock.Any()).Return("", errors.New("quota exceeded"))
	_, err := NewPipeline(transcriber, nil, nil).Generate(ctx, strings.NewReader(""), "")
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = NewPipeline(nil, nil, nil).FromTranscript(ctx, "   ", "")
	assert.ErrorIs(t, err, ErrEmptyTranscript)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	summarizer := NewMockSummarizer(ctrl)
	summarizer.EXPECT().Summarize(cancelled, "text", "").Return("", cancelled.Err())
	_, err = NewPipeline(nil, summarizer, nil).FromTranscript(cancelled, "text", "")
	assert.ErrorIs(t, err, context.Canceled)
}
