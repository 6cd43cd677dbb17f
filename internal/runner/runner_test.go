package runner

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaCommand(t *testing.T) {
	cmd := OllamaCommand("ollama", "gemma3:1b", 16)

	assert.Equal(t, "ollama", cmd.Path)
	assert.Equal(t, []string{"run", "gemma3:1b", "--num-thread", "16"}, cmd.Args)
	assert.Equal(t, "ollama run gemma3:1b --num-thread 16", cmd.String())
}

func TestRunMissingExecutable(t *testing.T) {
	err := Run(context.Background(), Command{Path: "definitely-not-an-installed-runtime-binary"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInstalled)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestRunExitCode(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	err = Run(context.Background(), Command{Path: sh, Args: []string{"-c", "exit 3"}})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.NotErrorIs(t, err, ErrNotInstalled)
}

func TestRunSuccess(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	assert.NoError(t, Run(context.Background(), Command{Path: sh, Args: []string{"-c", "exit 0"}}))
}
