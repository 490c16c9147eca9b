package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/pkg/document"
	"github.com/stateful/notes/pkg/document/editor"
)

// readSource reads a file, stdin when name is "-", or an https:// URL.
func readSource(cmd *cobra.Command, name string) ([]byte, error) {
	switch {
	case name == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read from stdin")
	case strings.HasPrefix(name, "https://"):
		client := http.Client{
			Timeout: time.Second * 10,
		}
		resp, err := client.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get a file %q", name)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("failed to get a file %q: %s", name, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		return data, errors.Wrap(err, "failed to read body")
	default:
		data, err := os.ReadFile(name)
		return data, errors.Wrapf(err, "failed to read file %q", name)
	}
}

// sourceFormat returns the explicit format, else the format of the file
// extension, else markdown.
func sourceFormat(name, explicit string) (editor.Format, error) {
	if explicit != "" {
		return editor.ParseFormat(explicit)
	}
	if name != "-" {
		if f, err := editor.ParseFormat(filepath.Ext(name)); err == nil {
			return f, nil
		}
	}
	return editor.FormatMarkdown, nil
}

// readDocument reads and deserializes name. Repairs are reported as
// warnings on stderr when report is set.
func readDocument(cmd *cobra.Command, name, format string, report bool, logger *zap.Logger) (*document.Document, error) {
	data, err := readSource(cmd, name)
	if err != nil {
		return nil, err
	}
	f, err := sourceFormat(name, format)
	if err != nil {
		return nil, err
	}

	opts := editor.Options{LoggerInstance: logger}
	if report {
		opts.OnRepair = func(r document.Repair) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", r)
		}
	}
	return editor.Deserialize(data, f, opts), nil
}

func owner(cfg *config.Config) string {
	if fOwner != "" {
		return fOwner
	}
	return cfg.Owner
}

// closeStore releases stores holding connections or files.
func closeStore(store notes.Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
