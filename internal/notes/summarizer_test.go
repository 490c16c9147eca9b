package notes

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestParseCommandSummarizer(t *testing.T) {
	assert.Nil(t, ParseCommandSummarizer("  "))
	assert.Equal(t,
		&CommandSummarizer{Name: "llm", Args: []string{"-m", "small"}},
		ParseCommandSummarizer(" llm  -m small "),
	)
}

func TestCommandSummarizer(t *testing.T) {
	ctx := context.Background()

	t.Run("Stdin", func(t *testing.T) {
		requireCommand(t, "cat")

		out, err := ParseCommandSummarizer("cat").Summarize(ctx, "# Notes\n- one\n", "ignored")
		require.NoError(t, err)
		assert.Equal(t, "# Notes\n- one\n", out)
	})

	t.Run("Prompt", func(t *testing.T) {
		requireCommand(t, "sh")

		s := &CommandSummarizer{Name: "sh", Args: []string{"-c", "printf '%s' \"$" + PromptEnv + "\""}}
		out, err := s.Summarize(ctx, "", "focus on biology")
		require.NoError(t, err)
		assert.Equal(t, "focus on biology", out)
	})

	t.Run("Failure", func(t *testing.T) {
		requireCommand(t, "sh")

		s := &CommandSummarizer{Name: "sh", Args: []string{"-c", "echo model unavailable >&2; exit 3"}}
		_, err := s.Summarize(ctx, "text", "")
		assert.ErrorContains(t, err, "model unavailable")
	})

	t.Run("DegradesPipeline", func(t *testing.T) {
		requireCommand(t, "false")

		result, err := NewPipeline(nil, ParseCommandSummarizer("false"), nil).
			FromTranscript(ctx, "raw transcript", "")
		require.NoError(t, err)
		assert.True(t, result.Degraded)
		assert.Equal(t, "raw transcript", result.Markdown)
	})
}
