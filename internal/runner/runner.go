package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// ErrNotInstalled is returned when the runtime executable cannot be found
var ErrNotInstalled = errors.New("executable not found in PATH")

// ExitError reports a runtime that exited with a non-zero status
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// Command describes one runtime invocation
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	s := c.Path
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// OllamaCommand builds `<binary> run <model> --num-thread <threads>`
func OllamaCommand(binary, model string, threads int) Command {
	return Command{
		Path: binary,
		Args: []string{"run", model, "--num-thread", strconv.Itoa(threads)},
	}
}

// Run starts cmd with inherited stdin/stdout/stderr and waits for it to exit.
// A missing executable yields ErrNotInstalled; a non-zero exit yields *ExitError.
func Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	err := c.Run()
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", cmd.Path, ErrNotInstalled)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}

	return fmt.Errorf("failed to run %s: %w", cmd.Path, err)
}
