package notes

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/notes/pkg/document"
	"github.com/stateful/notes/pkg/document/editor"
)

//go:generate mockgen --build_flags=--mod=mod -destination=./notes_mock_gen.go -package=notes . Transcriber,Summarizer,Store

// ErrEmptyTranscript is returned when transcription produced no text.
var ErrEmptyTranscript = stderrors.New("transcription is required for note generation")

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Summarizer turns a transcript into markdown notes, following the
// user's prompt.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, prompt string) (string, error)
}

// Generated is the outcome of the note pipeline.
type Generated struct {
	Transcript string
	// Markdown is the summarizer output, or the transcript when the
	// summarizer failed.
	Markdown string
	Document *document.Document
	// Degraded is set when the summarizer failed.
	Degraded bool
}

// Pipeline produces documents from audio: transcription, summarization,
// then deserialization.
type Pipeline struct {
	transcriber Transcriber
	summarizer  Summarizer
	logger      *zap.Logger
}

func NewPipeline(transcriber Transcriber, summarizer Summarizer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{transcriber: transcriber, summarizer: summarizer, logger: logger}
}

// Generate transcribes audio and builds notes from the transcript.
func (p *Pipeline) Generate(ctx context.Context, audio io.Reader, prompt string) (*Generated, error) {
	if p.transcriber == nil {
		return nil, errors.New("no transcriber configured")
	}
	transcript, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, errors.Wrap(err, "failed to transcribe audio")
	}
	return p.FromTranscript(ctx, transcript, prompt)
}

// FromTranscript builds notes from a transcript. When the summarizer
// fails or returns nothing, the transcript itself is deserialized the same
// way model output would be.
func (p *Pipeline) FromTranscript(ctx context.Context, transcript, prompt string) (*Generated, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, errors.WithStack(ErrEmptyTranscript)
	}

	result := &Generated{Transcript: transcript}

	var (
		markdown string
		err      error
	)
	if p.summarizer == nil {
		err = errors.New("no summarizer configured")
	} else {
		markdown, err = p.summarizer.Summarize(ctx, transcript, prompt)
		if err == nil && strings.TrimSpace(markdown) == "" {
			err = errors.New("summarizer returned no notes")
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.logger.Warn("summarization failed, using transcript", zap.Error(err))
		markdown = transcript
		result.Degraded = true
	}

	result.Markdown = markdown
	result.Document = editor.Deserialize([]byte(markdown), editor.FormatMarkdown, editor.Options{LoggerInstance: p.logger})
	return result, nil
}
