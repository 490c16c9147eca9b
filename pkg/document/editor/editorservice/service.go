package editorservice

import (
	"bytes"
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stateful/notes/internal/export"
	"github.com/stateful/notes/internal/metrics"
	"github.com/stateful/notes/internal/renderer/layout"
	"github.com/stateful/notes/internal/rpc"
	"github.com/stateful/notes/pkg/document"
	"github.com/stateful/notes/pkg/document/editor"
)

const ServiceName = "notes.v1.EditorService"

// EditorServiceServer reads, normalizes, renders and exports documents.
//
// Documents travel as their JSON tree in the "document" field. A string is
// accepted there too and read as markdown or HTML.
type EditorServiceServer interface {
	// Deserialize reads "source" in "format" (markdown, html or json).
	Deserialize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sanitize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenderHTML(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenderMarkdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ExportPDF returns the PDF in "pdf" as base64 along with "fileName"
	// and "pages".
	ExportPDF(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var EditorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EditorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method[EditorServiceServer](ServiceName, "Deserialize", EditorServiceServer.Deserialize),
		rpc.Method[EditorServiceServer](ServiceName, "Sanitize", EditorServiceServer.Sanitize),
		rpc.Method[EditorServiceServer](ServiceName, "RenderHTML", EditorServiceServer.RenderHTML),
		rpc.Method[EditorServiceServer](ServiceName, "RenderMarkdown", EditorServiceServer.RenderMarkdown),
		rpc.Method[EditorServiceServer](ServiceName, "ExportPDF", EditorServiceServer.ExportPDF),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterEditorServiceServer(s grpc.ServiceRegistrar, srv EditorServiceServer) {
	s.RegisterService(&EditorServiceDesc, srv)
}

type Option func(*editorServiceServer)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *editorServiceServer) {
		s.metrics = m
	}
}

// WithLayout sets the page width, font size and fonts of exports.
func WithLayout(opts layout.Options) Option {
	return func(s *editorServiceServer) {
		s.layout = opts
	}
}

// WithAvoidBreaks sets the page break mode of exports that do not choose
// one.
func WithAvoidBreaks(avoid bool) Option {
	return func(s *editorServiceServer) {
		s.avoidBreaks = avoid
	}
}

type editorServiceServer struct {
	logger      *zap.Logger
	metrics     *metrics.Metrics
	layout      layout.Options
	avoidBreaks bool

	once      sync.Once
	exporters map[bool]*export.Exporter
}

func NewEditorServiceServer(logger *zap.Logger, opts ...Option) EditorServiceServer {
	s := &editorServiceServer{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// repairs collects the corrections of one request.
type repairs struct {
	metrics *metrics.Metrics
	list    []any
}

func (r *repairs) add(repair document.Repair) {
	r.metrics.Repaired(repair)
	r.list = append(r.list, repair.String())
}

func (s *editorServiceServer) options(r *repairs) editor.Options {
	return editor.Options{LoggerInstance: s.logger, OnRepair: r.add}
}

func (s *editorServiceServer) document(in *structpb.Struct, r *repairs) *document.Document {
	return rpc.Document(in, "document", s.options(r).DocumentOptions()...)
}

func (s *editorServiceServer) Deserialize(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := rpc.String(req, "source")
	s.logger.Info("Deserialize", zap.String("source", source[:min(len(source), 64)]))

	format := editor.FormatMarkdown
	if name := rpc.String(req, "format"); name != "" {
		var err error
		if format, err = editor.ParseFormat(name); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	r := &repairs{metrics: s.metrics}
	doc := editor.Deserialize([]byte(source), format, s.options(r))
	s.metrics.Deserialized(format.String())

	return s.documentResponse(doc, r, map[string]any{"title": doc.Title()})
}

func (s *editorServiceServer) Sanitize(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info("Sanitize")
	r := &repairs{metrics: s.metrics}
	return s.documentResponse(s.document(req, r), r, nil)
}

func (s *editorServiceServer) documentResponse(doc *document.Document, r *repairs, fields map[string]any) (*structpb.Struct, error) {
	value, err := rpc.DocumentValue(doc)
	if err != nil {
		s.logger.Info("failed to encode document", zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	if fields == nil {
		fields = make(map[string]any, 2)
	}
	fields["document"] = value
	fields["repairs"] = r.list
	return structResponse(fields)
}

func (s *editorServiceServer) RenderHTML(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info("RenderHTML")
	return s.render(req, editor.FormatHTML)
}

func (s *editorServiceServer) RenderMarkdown(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info("RenderMarkdown")
	return s.render(req, editor.FormatMarkdown)
}

func (s *editorServiceServer) render(req *structpb.Struct, format editor.Format) (*structpb.Struct, error) {
	doc := s.document(req, &repairs{metrics: s.metrics})
	data, err := editor.Serialize(doc, format)
	if err != nil {
		s.logger.Info("failed to render document", zap.Stringer("format", format), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return structResponse(map[string]any{"source": string(data)})
}

func (s *editorServiceServer) exporter(avoidBreaks bool) *export.Exporter {
	s.once.Do(func() {
		s.exporters = make(map[bool]*export.Exporter, 2)
		for _, avoid := range []bool{false, true} {
			s.exporters[avoid] = export.New(s.layout.Fonts, export.Options{
				AvoidBreaks:    avoid,
				LoggerInstance: s.logger,
			})
		}
	})
	return s.exporters[avoidBreaks]
}

func (s *editorServiceServer) ExportPDF(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info("ExportPDF")

	doc := s.document(req, &repairs{metrics: s.metrics})
	avoidBreaks := s.avoidBreaks
	if _, ok := req.GetFields()["avoidBreaks"]; ok {
		avoidBreaks = rpc.Bool(req, "avoidBreaks")
	}

	scene, err := layout.Layout(doc, s.layout)
	if err != nil {
		s.metrics.Exported(0, err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	var buf bytes.Buffer
	err = s.exporter(avoidBreaks).Export(ctx, scene, &buf)
	pages := len(export.Bands(scene, export.PageHeight(scene.Width), avoidBreaks))
	s.metrics.Exported(pages, err)
	if err != nil {
		s.logger.Info("failed to export document", zap.Error(err))
		return nil, exportStatus(err)
	}

	return structResponse(map[string]any{
		"fileName": export.FileName(scene.Title),
		"pages":    pages,
		"pdf":      buf.Bytes(),
	})
}

func exportStatus(err error) error {
	switch {
	case errors.Is(err, export.ErrContainerNotFound):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func structResponse(fields map[string]any) (*structpb.Struct, error) {
	out, err := rpc.Struct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

type EditorServiceClient interface {
	Deserialize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Sanitize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RenderHTML(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RenderMarkdown(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ExportPDF(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type editorServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEditorServiceClient(cc grpc.ClientConnInterface) EditorServiceClient {
	return &editorServiceClient{cc: cc}
}

func (c *editorServiceClient) Deserialize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "Deserialize", in, opts...)
}

func (c *editorServiceClient) Sanitize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "Sanitize", in, opts...)
}

func (c *editorServiceClient) RenderHTML(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "RenderHTML", in, opts...)
}

func (c *editorServiceClient) RenderMarkdown(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "RenderMarkdown", in, opts...)
}

func (c *editorServiceClient) ExportPDF(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "ExportPDF", in, opts...)
}
