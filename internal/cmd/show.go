package cmd

import (
	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config/autoconfig"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/term"
	"github.com/stateful/notes/pkg/document"
	"github.com/stateful/notes/pkg/document/editor"
)

func showCmd() *cobra.Command {
	var (
		id   string
		from string
	)

	cmd := cobra.Command{
		Use:   "show [file]",
		Short: "Render a note in the terminal.",
		Args: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := autoconfig.NewBuilder()

			if id != "" {
				return builder.Invoke(func(store notes.Store, logger *zap.Logger) (err error) {
					defer func() { err = multierr.Append(err, closeStore(store)) }()

					n, err := store.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					return renderToTerminal(cmd, n.Document(document.WithLogger(logger)))
				})
			}

			return builder.Invoke(func(logger *zap.Logger) error {
				doc, err := readDocument(cmd, args[0], from, false, logger)
				if err != nil {
					return err
				}
				return renderToTerminal(cmd, doc)
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "ID of a stored note to show.")
	cmd.Flags().StringVar(&from, "from", "", "Input format (markdown, html, json).")

	return &cmd
}

// renderToTerminal prints doc as styled markdown. Output that is not a
// terminal gets the plain style.
func renderToTerminal(cmd *cobra.Command, doc *document.Document) error {
	out := term.FromWriter(cmd.OutOrStdout())

	style := glamour.WithStandardStyle("notty")
	if out.IsTTY() {
		style = glamour.WithAutoStyle()
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(out.Width()),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create renderer")
	}

	source, err := editor.Serialize(doc, editor.FormatMarkdown)
	if err != nil {
		return errors.Wrap(err, "failed to serialize document")
	}

	rendered, err := r.RenderBytes(source)
	if err != nil {
		return errors.Wrap(err, "failed to render document")
	}
	_, err = out.Write(rendered)
	return errors.Wrap(err, "failed to write result")
}
