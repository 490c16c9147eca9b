package notes

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// PromptEnv is the environment variable CommandSummarizer passes the
// prompt in.
const PromptEnv = "NOTES_PROMPT"

// CommandSummarizer runs a program that reads a transcript on stdin and
// writes markdown notes to stdout.
type CommandSummarizer struct {
	Name string
	Args []string
}

// ParseCommandSummarizer splits a command line on whitespace. It returns
// nil for an empty command line.
func ParseCommandSummarizer(commandLine string) *CommandSummarizer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	return &CommandSummarizer{Name: fields[0], Args: fields[1:]}
}

func (s *CommandSummarizer) Summarize(ctx context.Context, transcript, prompt string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, s.Name, s.Args...)
	cmd.Stdin = strings.NewReader(transcript)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), PromptEnv+"="+prompt)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Wrapf(err, "summarizer %s failed: %s", s.Name, msg)
		}
		return "", errors.Wrapf(err, "summarizer %s failed", s.Name)
	}
	return stdout.String(), nil
}
