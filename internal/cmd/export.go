package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/config/autoconfig"
	"github.com/stateful/notes/internal/export"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/renderer/layout"
	"github.com/stateful/notes/pkg/document"
)

func exportCmd() *cobra.Command {
	var (
		id          string
		from        string
		output      string
		avoidBreaks bool
		progress    bool
	)

	cmd := cobra.Command{
		Use:   "export [file]",
		Short: "Export a note to PDF.",
		Long: `Export a note to PDF.

The note is read from a file or, with --id, from the store. The PDF is named
after the note title unless --output is set.`,
		Example: `Export a markdown file:
  notes export weekly-sync.md

Export a stored note without moving page breaks:
  notes export --id 01HW3Z... --avoid-breaks=false`,
		Args: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := autoconfig.NewBuilder()

			var (
				doc   *document.Document
				title string
			)

			if id != "" {
				err := builder.Invoke(func(cfg *config.Config, store notes.Store) (err error) {
					defer func() { err = multierr.Append(err, closeStore(store)) }()

					n, err := store.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					doc, title = n.Document(), n.Title
					return nil
				})
				if err != nil {
					return err
				}
			}

			return builder.Invoke(func(cfg *config.Config, opts layout.Options, logger *zap.Logger) error {
				defer logger.Sync()

				if doc == nil {
					var err error
					if doc, err = readDocument(cmd, args[0], from, false, logger); err != nil {
						return err
					}
					title = doc.Title()
				}

				if !cmd.Flags().Changed("avoid-breaks") {
					avoidBreaks = cfg.Export.AvoidBreaks
				}

				exportOpts := export.Options{
					AvoidBreaks:    avoidBreaks,
					LoggerInstance: logger,
				}
				if progress {
					exportOpts.Progress = func(done, total int) {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "page %d/%d\n", done, total)
					}
				}

				scene, err := layout.Layout(doc, opts)
				if err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()

				var buf bytes.Buffer
				if err := export.New(opts.Fonts, exportOpts).Export(ctx, scene, &buf); err != nil {
					return err
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return errors.Wrap(err, "failed to write result")
				}

				name := output
				if name == "" {
					name = export.FileName(title)
				}
				if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
					return errors.Wrapf(err, "failed to write file %q", name)
				}

				logger.Info("exported note", zap.String("path", name), zap.Int("size", buf.Len()))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "ID of a stored note to export.")
	cmd.Flags().StringVar(&from, "from", "", "Input format (markdown, html, json).")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the PDF file. Use \"-\" for stdout.")
	cmd.Flags().BoolVar(&avoidBreaks, "avoid-breaks", true, "Move page breaks above tables and display math.")
	cmd.Flags().BoolVar(&progress, "progress", false, "Print progress to stderr.")

	return &cmd
}
