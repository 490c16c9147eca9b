package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cli/go-gh/v2/pkg/jsonpretty"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/config/autoconfig"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/term"
	"github.com/stateful/notes/pkg/document/editor"
)

func noteCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Manage stored notes.",
		Long: `Manage stored notes.

The store is configured in notes.yaml; without one, notes are kept in notes.db
in the working directory.`,
	}

	cmd.AddCommand(noteSaveCmd())
	cmd.AddCommand(noteGenerateCmd())
	cmd.AddCommand(noteGetCmd())
	cmd.AddCommand(noteListCmd())
	cmd.AddCommand(noteDeleteCmd())

	return &cmd
}

// invokeWithStore runs fn with the configured store and closes the store
// afterwards.
func invokeWithStore(fn func(*config.Config, notes.Store, *zap.Logger) error) error {
	return autoconfig.NewBuilder().Invoke(
		func(cfg *config.Config, store notes.Store, logger *zap.Logger) (err error) {
			defer logger.Sync()
			defer func() { err = multierr.Append(err, closeStore(store)) }()
			return fn(cfg, store, logger)
		},
	)
}

func noteSaveCmd() *cobra.Command {
	var (
		id     string
		title  string
		from   string
		report bool
	)

	cmd := cobra.Command{
		Use:   "save [file]",
		Short: "Save a note from a file.",
		Long: `Save a note from a file.

Without --id a new note is created and its ID is printed. With --id the note
is updated; the stored title is kept unless --title is set. A note without a
title is named after its first heading or paragraph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeWithStore(func(cfg *config.Config, store notes.Store, logger *zap.Logger) error {
				doc, err := readDocument(cmd, args[0], from, report, logger)
				if err != nil {
					return err
				}

				session := notes.NewSession(store, owner(cfg), logger)
				if id != "" {
					if err := session.Load(cmd.Context(), id); err != nil {
						return err
					}
				}
				session.Replace(doc)
				if title != "" {
					session.SetTitle(title)
				}

				if id != "" && !session.Dirty() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "note %s is unchanged\n", id)
					_, err := fmt.Fprintln(cmd.OutOrStdout(), id)
					return errors.WithStack(err)
				}

				n, err := session.Save(cmd.Context())
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return errors.WithStack(err)
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "ID of the note to update.")
	cmd.Flags().StringVar(&title, "title", "", "Title of the note.")
	cmd.Flags().StringVar(&from, "from", "", "Input format (markdown, html, json).")
	cmd.Flags().BoolVar(&report, "report", false, "Print corrections made while normalizing to stderr.")

	return &cmd
}

func noteGenerateCmd() *cobra.Command {
	var (
		title         string
		prompt        string
		summarizeWith string
	)

	cmd := cobra.Command{
		Use:   "generate [transcript]",
		Short: "Create a note from a transcript.",
		Long: `Create a note from a transcript and print its ID.

The transcript is summarized by the program given with --summarize-with. It
reads the transcript on stdin, gets the prompt in NOTES_PROMPT and writes
markdown notes to stdout. Without a summarizer, or when it fails, the
transcript itself is saved.`,
		Example: `Summarize a transcript with a local model:
  notes note generate --summarize-with "llm -m small" --prompt "list action items" meeting.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeWithStore(func(cfg *config.Config, store notes.Store, logger *zap.Logger) error {
				transcript, err := readSource(cmd, args[0])
				if err != nil {
					return err
				}

				var summarizer notes.Summarizer
				if s := notes.ParseCommandSummarizer(summarizeWith); s != nil {
					summarizer = s
				}

				generated, err := notes.NewPipeline(nil, summarizer, logger).
					FromTranscript(cmd.Context(), string(transcript), prompt)
				if err != nil {
					return err
				}
				if generated.Degraded {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: transcript was not summarized, saving it as is")
				}

				session := notes.NewSession(store, owner(cfg), logger)
				session.Replace(generated.Document)
				if title != "" {
					session.SetTitle(title)
				}

				n, err := session.Save(cmd.Context())
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), n.ID)
				return errors.WithStack(err)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title of the note.")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Instructions for the summarizer.")
	cmd.Flags().StringVar(&summarizeWith, "summarize-with", "", "Command line of the summarizer program.")

	return &cmd
}

func noteGetCmd() *cobra.Command {
	var format string

	cmd := cobra.Command{
		Use:   "get [id]",
		Short: "Print a stored note.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeWithStore(func(_ *config.Config, store notes.Store, logger *zap.Logger) error {
				f, err := editor.ParseFormat(format)
				if err != nil {
					return err
				}

				n, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				// Stored content is untrusted and goes through the deserializer.
				doc := editor.Deserialize(n.Content, editor.FormatJSON, editor.Options{LoggerInstance: logger})

				result, err := editor.Serialize(doc, f)
				if err != nil {
					return errors.Wrap(err, "failed to serialize document")
				}
				if f == editor.FormatJSON {
					return errors.WithStack(
						jsonpretty.Format(cmd.OutOrStdout(), bytes.NewReader(result), "  ", false),
					)
				}
				_, err = cmd.OutOrStdout().Write(result)
				return errors.Wrap(err, "failed to write result")
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Output format (markdown, html, json).")

	return &cmd
}

func noteListCmd() *cobra.Command {
	var (
		format  string
		filters []string
	)

	cmd := cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored notes, most recently updated first.",
		Long: `List stored notes of the owner, most recently updated first.

Notes can be filtered with expressions evaluated for every note. Filters from
notes.yaml always apply; --filter adds more. Available variables are id, owner,
title, headings, blocks, tasks, open_tasks, created_at and updated_at.`,
		Example: `List notes with open tasks:
  notes note list --filter "open_tasks > 0"

List notes with an "Action Items" heading updated this year:
  notes note list --filter "'Action Items' in headings" --filter "updated_at > date('2026-01-01')"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeWithStore(func(cfg *config.Config, store notes.Store, logger *zap.Logger) error {
				all := append([]*config.Filter{}, cfg.Filters...)
				for _, condition := range filters {
					all = append(all, &config.Filter{Condition: condition})
				}

				list, err := store.List(cmd.Context(), owner(cfg))
				if err != nil {
					return err
				}
				logger.Info("found notes", zap.Int("count", len(list)))

				list, err = filterNotes(list, all)
				if err != nil {
					return err
				}
				logger.Info("filtered notes", zap.Int("count", len(list)))

				switch format {
				case "json":
					return renderNotesAsJSON(cmd, list)
				case "table":
					return renderNotesAsTable(cmd, list)
				default:
					return errors.Errorf("invalid format: %s", format)
				}
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json).")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter expression notes must satisfy. Can be repeated.")

	return &cmd
}

func renderNotesAsTable(cmd *cobra.Command, list []*notes.Note) error {
	out := term.FromWriter(cmd.OutOrStdout())

	table := tableprinter.New(out, out.IsTTY(), out.Width())

	idColor := color.New(color.FgCyan).SprintFunc()
	openColor := color.New(color.FgYellow).SprintFunc()
	if !out.IsTTY() {
		idColor, openColor = fmt.Sprint, fmt.Sprint
	}

	table.AddField("ID")
	table.AddField("TITLE")
	table.AddField("OPEN TASKS")
	table.AddField("UPDATED")
	table.EndRow()

	for _, n := range list {
		env := noteEnv(n, n.Document())

		table.AddField(n.ID, tableprinter.WithColor(func(s string) string { return idColor(s) }))
		table.AddField(n.Title)
		table.AddField(strconv.Itoa(env.OpenTasks), tableprinter.WithColor(func(s string) string {
			if env.OpenTasks == 0 {
				return s
			}
			return openColor(s)
		}))
		table.AddField(n.UpdatedAt.Local().Format(time.DateTime))
		table.EndRow()
	}

	return errors.WithStack(table.Render())
}

type noteSummary struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Tasks     int       `json:"tasks"`
	OpenTasks int       `json:"openTasks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func renderNotesAsJSON(cmd *cobra.Command, list []*notes.Note) error {
	summaries := make([]noteSummary, 0, len(list))
	for _, n := range list {
		env := noteEnv(n, n.Document())
		summaries = append(summaries, noteSummary{
			ID:        n.ID,
			Owner:     n.Owner,
			Title:     n.Title,
			Tasks:     env.Tasks,
			OpenTasks: env.OpenTasks,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}

	raw, err := json.Marshal(summaries)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(
		jsonpretty.Format(cmd.OutOrStdout(), bytes.NewReader(raw), "  ", false),
	)
}

func noteDeleteCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a stored note.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeWithStore(func(_ *config.Config, store notes.Store, logger *zap.Logger) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				logger.Info("deleted note", zap.String("id", args[0]))
				return nil
			})
		},
	}

	return &cmd
}
