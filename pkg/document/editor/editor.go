package editor

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	htmlrenderer "github.com/stateful/notes/internal/renderer/html"
	mdrenderer "github.com/stateful/notes/internal/renderer/md"
	"github.com/stateful/notes/pkg/document"
)

// Format is a serialized representation of a document.
type Format int

const (
	FormatMarkdown Format = iota + 1
	FormatHTML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatHTML:
		return "html"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, errors.Errorf("unknown format %q", s)
	}
}

type Options struct {
	LoggerInstance *zap.Logger
	// OnRepair is called for every correction made while normalizing.
	OnRepair func(document.Repair)
}

func (o Options) Logger() *zap.Logger {
	if o.LoggerInstance == nil {
		return zap.NewNop()
	}
	return o.LoggerInstance
}

// DocumentOptions returns the options passed to the document package.
func (o Options) DocumentOptions() []document.Option {
	opts := []document.Option{document.WithLogger(o.Logger())}
	if o.OnRepair != nil {
		opts = append(opts, document.WithRepairHook(o.OnRepair))
	}
	return opts
}

// Deserialize reads data in format. It never fails: content that cannot be
// read yields the fallback document. JSON input may be a stored tree or a
// JSON string holding markdown or HTML.
func Deserialize(data []byte, format Format, opts Options) *document.Document {
	var c document.Content
	switch format {
	case FormatMarkdown:
		c = document.Markdown(data)
	case FormatHTML:
		c = document.HTML(data)
	case FormatJSON:
		c = document.Detect(data)
	default:
		opts.Logger().Warn("unknown format, reading as markdown", zap.Stringer("format", format))
		c = document.Markdown(data)
	}
	return document.Deserialize(c, opts.DocumentOptions()...)
}

// Serialize writes doc in format.
func Serialize(doc *document.Document, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return mdrenderer.Render(doc)
	case FormatHTML:
		return htmlrenderer.Render(doc)
	case FormatJSON:
		data, err := json.Marshal(doc)
		return data, errors.WithStack(err)
	default:
		return nil, errors.Errorf("unsupported format %s", format)
	}
}
