package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthv1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/stateful/notes/internal/metrics"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/notes/notesservice"
	"github.com/stateful/notes/internal/renderer/layout"
	"github.com/stateful/notes/pkg/document/editor/editorservice"
)

const (
	maxMsgSize      = 32 * 1024 * 1024 // 32 MiB, exported PDFs travel in one message
	shutdownTimeout = 5 * time.Second
)

type Config struct {
	Address string
	// HTTPAddress enables the JSON gateway when set.
	HTTPAddress string

	Layout      layout.Options
	AvoidBreaks bool
}

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	lis        net.Listener

	httpServer *http.Server
	httpLis    net.Listener

	logger *zap.Logger
}

func listen(addr string) (net.Listener, error) {
	protocol := "tcp"

	if strings.HasPrefix(addr, "unix://") {
		protocol = "unix"
		addr = strings.TrimPrefix(addr, "unix://")

		if _, err := os.Stat(addr); !os.IsNotExist(err) {
			return nil, errors.Errorf("socket %s already exists", addr)
		}
	}

	lis, err := net.Listen(protocol, addr)
	return lis, errors.WithStack(err)
}

// New creates a server of the editor and notes services. gatherer is
// exposed on the gateway's /metrics endpoint and may be nil.
func New(
	c *Config,
	store notes.Store,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) (_ *Server, err error) {
	lis, err := listen(c.Address)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, lis.Close())
		}
	}()

	logger.Info("server listening", zap.String("address", lis.Addr().String()))

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
		grpc.ChainUnaryInterceptor(m.UnaryServerInterceptor()),
	)

	editorService := editorservice.NewEditorServiceServer(
		logger,
		editorservice.WithMetrics(m),
		editorservice.WithLayout(c.Layout),
		editorservice.WithAvoidBreaks(c.AvoidBreaks),
	)
	notesService := notesservice.NewNotesServiceServer(store, m, logger)

	editorservice.RegisterEditorServiceServer(grpcServer, editorService)
	notesservice.RegisterNotesServiceServer(grpcServer, notesService)

	// Register health service.
	healthcheck := health.NewServer()
	healthv1.RegisterHealthServer(grpcServer, healthcheck)
	// Setting SERVING for the whole system.
	healthcheck.SetServingStatus("", healthv1.HealthCheckResponse_SERVING)

	// Register reflection service.
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer: grpcServer,
		health:     healthcheck,
		lis:        lis,
		logger:     logger,
	}

	if c.HTTPAddress != "" {
		s.httpLis, err = listen(c.HTTPAddress)
		if err != nil {
			return nil, err
		}
		logger.Info("gateway listening", zap.String("address", s.httpLis.Addr().String()))

		s.httpServer = &http.Server{
			Handler:           newGateway(editorService, notesService, healthcheck, gatherer, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// HTTPAddr returns the gateway address or "" when it is disabled.
func (s *Server) HTTPAddr() string {
	if s.httpLis == nil {
		return ""
	}
	return s.httpLis.Addr().String()
}

// Serve blocks until both the gRPC server and the gateway stop.
func (s *Server) Serve() error {
	var g errgroup.Group

	g.Go(func() error {
		return errors.WithStack(s.grpcServer.Serve(s.lis))
	})

	if s.httpServer != nil {
		g.Go(func() error {
			err := s.httpServer.Serve(s.httpLis)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.WithStack(err)
		})
	}

	return g.Wait()
}

func (s *Server) Shutdown() {
	s.health.Shutdown()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Info("failed to shut down gateway", zap.Error(err))
		}
	}

	s.grpcServer.GracefulStop()
}
