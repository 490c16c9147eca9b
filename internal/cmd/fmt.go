package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config/autoconfig"
	"github.com/stateful/notes/pkg/document/editor"
)

func fmtCmd() *cobra.Command {
	var (
		write  bool
		report bool
	)

	cmd := cobra.Command{
		Use:   "fmt [file]",
		Short: "Format a markdown note into canonical form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return autoconfig.NewBuilder().Invoke(func(logger *zap.Logger) error {
				defer logger.Sync()

				fileName := args[0]
				if write && fileName == "-" {
					return errors.New("cannot write the result back to stdin")
				}

				doc, err := readDocument(cmd, fileName, "markdown", report, logger)
				if err != nil {
					return err
				}
				result, err := editor.Serialize(doc, editor.FormatMarkdown)
				if err != nil {
					return errors.Wrap(err, "failed to serialize document")
				}

				if write {
					info, err := os.Stat(fileName)
					if err != nil {
						return errors.WithStack(err)
					}
					return errors.Wrapf(os.WriteFile(fileName, result, info.Mode()), "failed to write file %q", fileName)
				}

				_, err = cmd.OutOrStdout().Write(result)
				return errors.Wrap(err, "failed to write result")
			})
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the source file instead of stdout.")
	cmd.Flags().BoolVar(&report, "report", false, "Print corrections made while normalizing to stderr.")

	return &cmd
}
