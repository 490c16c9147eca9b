package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	fChdir string
	fOwner string
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:   "notes",
		Short: "Convert, store and export rich-text notes",
		Long: `Convert, store and export rich-text notes.

Commands read the notes.yaml configuration file from the working directory.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if fChdir == "" || fChdir == "." {
				return nil
			}
			return errors.Wrapf(os.Chdir(fChdir), "failed to change directory to %q", fChdir)
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fChdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.StringVar(&fOwner, "owner", "", "Owner of the notes. Overrides the configured owner.")

	cmd.AddCommand(convertCmd())
	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(showCmd())
	cmd.AddCommand(noteCmd())
	cmd.AddCommand(serveCmd())

	return &cmd
}
