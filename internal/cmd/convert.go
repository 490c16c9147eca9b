package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config/autoconfig"
	"github.com/stateful/notes/pkg/document/editor"
)

func convertCmd() *cobra.Command {
	var (
		from   string
		to     string
		report bool
	)

	cmd := cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a note between markdown, HTML and JSON.",
		Long: `Convert a note between markdown, HTML and JSON.

The input format is taken from --from or the file extension and defaults to markdown.
Use "-" to read from stdin. Content is always normalized; use --report to print
the corrections made to it.`,
		Example: `Convert a markdown file into its JSON tree:
  notes convert --to json notes.md

Convert HTML from stdin into markdown:
  notes convert --from html --to markdown -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return autoconfig.NewBuilder().Invoke(func(logger *zap.Logger) error {
				defer logger.Sync()

				target, err := editor.ParseFormat(to)
				if err != nil {
					return err
				}

				doc, err := readDocument(cmd, args[0], from, report, logger)
				if err != nil {
					return err
				}

				result, err := editor.Serialize(doc, target)
				if err != nil {
					return errors.Wrap(err, "failed to serialize document")
				}
				if target == editor.FormatJSON {
					result = append(result, '\n')
				}
				_, err = cmd.OutOrStdout().Write(result)
				return errors.Wrap(err, "failed to write result")
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format (markdown, html, json).")
	cmd.Flags().StringVar(&to, "to", "json", "Output format (markdown, html, json).")
	cmd.Flags().BoolVar(&report, "report", false, "Print corrections made while normalizing to stderr.")

	return &cmd
}
