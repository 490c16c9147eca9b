package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/config/autoconfig"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		httpAddr string
	)

	cmd := cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server and the HTTP gateway.",
		Long: `Start the gRPC server and the HTTP gateway.

The addresses come from the server section of notes.yaml. The gRPC address
can be a unix socket, for example "unix:///tmp/notes.sock". An empty HTTP
address disables the gateway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := autoconfig.NewBuilder()

			err := builder.Decorate(func(cfg *config.Config) *config.Config {
				if !cmd.Flags().Changed("address") && !cmd.Flags().Changed("http-address") {
					return cfg
				}
				if cfg.Server == nil {
					cfg.Server = &config.ConfigServer{}
				}
				if cmd.Flags().Changed("address") {
					cfg.Server.Address = addr
				}
				if cmd.Flags().Changed("http-address") {
					cfg.Server.HTTPAddress = httpAddr
				}
				return cfg
			})
			if err != nil {
				return errors.WithStack(err)
			}

			return builder.Invoke(
				func(s *server.Server, store notes.Store, logger *zap.Logger) (err error) {
					defer logger.Sync()
					defer func() { err = multierr.Append(err, closeStore(store)) }()

					if s == nil {
						return errors.New("server is not configured")
					}

					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "gRPC server listening on %s\n", s.Addr())
					if a := s.HTTPAddr(); a != "" {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "HTTP gateway listening on http://%s\n", a)
					}

					ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
					defer stop()

					g, gctx := errgroup.WithContext(ctx)

					g.Go(func() error {
						return s.Serve()
					})

					g.Go(func() error {
						<-gctx.Done()
						logger.Info("stopping the server")
						s.Shutdown()
						return nil
					})

					return errors.WithStack(g.Wait())
				},
			)
		},
	}

	cmd.Flags().StringVar(&addr, "address", "", "Address of the gRPC server.")
	cmd.Flags().StringVar(&httpAddr, "http-address", "", "Address of the HTTP gateway.")

	return &cmd
}
