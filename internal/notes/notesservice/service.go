package notesservice

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stateful/notes/internal/metrics"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/rpc"
	"github.com/stateful/notes/pkg/document"
)

const ServiceName = "notes.v1.NotesService"

// NotesServiceServer stores notes. A note travels as an object with "id",
// "owner", "title", "document", "createdAt" and "updatedAt".
type NotesServiceServer interface {
	// SaveNote creates a note when "id" is empty and updates it otherwise.
	// An empty "title" defaults to the title of the document.
	SaveNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListNotes returns the notes of "owner" without their documents, most
	// recently updated first.
	ListNotes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteNote(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var NotesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NotesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method[NotesServiceServer](ServiceName, "SaveNote", NotesServiceServer.SaveNote),
		rpc.Method[NotesServiceServer](ServiceName, "GetNote", NotesServiceServer.GetNote),
		rpc.Method[NotesServiceServer](ServiceName, "ListNotes", NotesServiceServer.ListNotes),
		rpc.Method[NotesServiceServer](ServiceName, "DeleteNote", NotesServiceServer.DeleteNote),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterNotesServiceServer(s grpc.ServiceRegistrar, srv NotesServiceServer) {
	s.RegisterService(&NotesServiceDesc, srv)
}

type notesServiceServer struct {
	store   notes.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewNotesServiceServer(store notes.Store, m *metrics.Metrics, logger *zap.Logger) NotesServiceServer {
	return &notesServiceServer{store: store, logger: logger, metrics: m}
}

func (s *notesServiceServer) documentOptions() []document.Option {
	return []document.Option{
		document.WithLogger(s.logger),
		document.WithRepairHook(s.metrics.Repaired),
	}
}

func (s *notesServiceServer) SaveNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := rpc.String(req, "id")
	s.logger.Info("SaveNote", zap.String("id", id))

	doc := rpc.Document(req, "document", s.documentOptions()...)
	n, err := notes.New(rpc.String(req, "owner"), rpc.String(req, "title"), doc)
	if err != nil {
		return nil, toStatus(err)
	}

	if id == "" {
		n, err = s.store.Create(ctx, n)
	} else {
		n.ID = id
		n, err = s.store.Update(ctx, n)
	}
	if err != nil {
		s.logger.Info("failed to save note", zap.String("id", id), zap.Error(err))
		return nil, toStatus(err)
	}
	return s.noteResponse(n, true)
}

func (s *notesServiceServer) GetNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := rpc.String(req, "id")
	s.logger.Info("GetNote", zap.String("id", id))

	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.noteResponse(n, true)
}

func (s *notesServiceServer) ListNotes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner := rpc.String(req, "owner")
	s.logger.Info("ListNotes", zap.String("owner", owner))

	if owner == "" {
		return nil, status.Error(codes.InvalidArgument, "owner is required")
	}

	list, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(list))
	for _, n := range list {
		fields, err := s.noteFields(n, false)
		if err != nil {
			return nil, toStatus(err)
		}
		values = append(values, structpb.NewStructValue(fields))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"notes": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}, nil
}

func (s *notesServiceServer) DeleteNote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := rpc.String(req, "id")
	s.logger.Info("DeleteNote", zap.String("id", id))

	if err := s.store.Delete(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (s *notesServiceServer) noteResponse(n *notes.Note, withDocument bool) (*structpb.Struct, error) {
	fields, err := s.noteFields(n, withDocument)
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"note": structpb.NewStructValue(fields),
	}}, nil
}

func (s *notesServiceServer) noteFields(n *notes.Note, withDocument bool) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":        n.ID,
		"owner":     n.Owner,
		"title":     n.Title,
		"createdAt": n.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": n.UpdatedAt.Format(time.RFC3339Nano),
	}
	if withDocument {
		value, err := rpc.DocumentValue(n.Document(s.documentOptions()...))
		if err != nil {
			return nil, err
		}
		fields["document"] = value
	}
	return rpc.Struct(fields)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, notes.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, notes.ErrInvalidNote):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

type NotesServiceClient interface {
	SaveNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListNotes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type notesServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNotesServiceClient(cc grpc.ClientConnInterface) NotesServiceClient {
	return &notesServiceClient{cc: cc}
}

func (c *notesServiceClient) SaveNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "SaveNote", in, opts...)
}

func (c *notesServiceClient) GetNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "GetNote", in, opts...)
}

func (c *notesServiceClient) ListNotes(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "ListNotes", in, opts...)
}

func (c *notesServiceClient) DeleteNote(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return rpc.Invoke(ctx, c.cc, ServiceName, "DeleteNote", in, opts...)
}
