package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	healthv1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stateful/notes/internal/notes/notesservice"
	"github.com/stateful/notes/internal/rpc"
	"github.com/stateful/notes/internal/version"
	"github.com/stateful/notes/pkg/document/editor/editorservice"
)

const maxBodySize = 8 * 1024 * 1024

type method func(context.Context, *structpb.Struct) (*structpb.Struct, error)

type gateway struct {
	editor editorservice.EditorServiceServer
	notes  notesservice.NotesServiceServer
	health healthv1.HealthServer
	logger *zap.Logger
}

// newGateway exposes the services as JSON over HTTP. Request and response
// bodies are the same objects the gRPC methods exchange.
func newGateway(
	editor editorservice.EditorServiceServer,
	notes notesservice.NotesServiceServer,
	health healthv1.HealthServer,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	g := &gateway{editor: editor, notes: notes, health: health, logger: logger}

	r := chi.NewRouter()

	r.Get("/healthz", g.healthz)
	r.Get("/version", g.version)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/deserialize", g.call(editor.Deserialize, nil))
		r.Post("/sanitize", g.call(editor.Sanitize, nil))
		r.Post("/render/html", g.call(editor.RenderHTML, nil))
		r.Post("/render/markdown", g.call(editor.RenderMarkdown, nil))
		r.Post("/export", g.export)

		r.Get("/notes", g.call(notes.ListNotes, fromQuery("owner")))
		r.Post("/notes", g.call(notes.SaveNote, withoutID))
		r.Get("/notes/{id}", g.call(notes.GetNote, fromURLParam("id")))
		r.Put("/notes/{id}", g.call(notes.SaveNote, fromURLParam("id")))
		r.Delete("/notes/{id}", g.call(notes.DeleteNote, fromURLParam("id")))
	})

	return r
}

// binder adds request parameters to the decoded body.
type binder func(r *http.Request, in *structpb.Struct)

func fromURLParam(key string) binder {
	return func(r *http.Request, in *structpb.Struct) {
		in.Fields[key] = structpb.NewStringValue(chi.URLParam(r, key))
	}
}

func fromQuery(key string) binder {
	return func(r *http.Request, in *structpb.Struct) {
		if v := r.URL.Query().Get(key); v != "" {
			in.Fields[key] = structpb.NewStringValue(v)
		}
	}
}

func withoutID(_ *http.Request, in *structpb.Struct) {
	delete(in.Fields, "id")
}

func (g *gateway) decode(r *http.Request, bind binder) (*structpb.Struct, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{}}

	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodDelete {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if len(data) > 0 {
			if err := protojson.Unmarshal(data, in); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			if in.Fields == nil {
				in.Fields = map[string]*structpb.Value{}
			}
		}
	}

	if bind != nil {
		bind(r, in)
	}
	return in, nil
}

func (g *gateway) call(m method, bind binder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := g.decode(r, bind)
		if err != nil {
			g.error(w, err)
			return
		}

		out, err := m(r.Context(), in)
		if err != nil {
			g.error(w, err)
			return
		}

		data, err := protojson.Marshal(out)
		if err != nil {
			g.error(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			g.logger.Info("failed to write response", zap.Error(err))
		}
	}
}

// export responds with the PDF itself instead of its base64 encoding.
func (g *gateway) export(w http.ResponseWriter, r *http.Request) {
	in, err := g.decode(r, nil)
	if err != nil {
		g.error(w, err)
		return
	}

	out, err := g.editor.ExportPDF(r.Context(), in)
	if err != nil {
		g.error(w, err)
		return
	}

	pdf, err := base64.StdEncoding.DecodeString(rpc.String(out, "pdf"))
	if err != nil {
		g.error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rpc.String(out, "fileName")))
	if _, err := w.Write(pdf); err != nil {
		g.logger.Info("failed to write response", zap.Error(err))
	}
}

func (g *gateway) healthz(w http.ResponseWriter, r *http.Request) {
	resp, err := g.health.Check(r.Context(), &healthv1.HealthCheckRequest{})
	if err != nil || resp.GetStatus() != healthv1.HealthCheckResponse_SERVING {
		http.Error(w, "not serving", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "ok\n")
}

func (g *gateway) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(version.Get()); err != nil {
		g.logger.Info("failed to write response", zap.Error(err))
	}
}

func (g *gateway) error(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	code := httpStatus(st.Code())
	if code == http.StatusInternalServerError {
		g.logger.Info("gateway request failed", zap.Error(err))
	}
	http.Error(w, st.Message(), code)
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.Canceled:
		return 499
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
