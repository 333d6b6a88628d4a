package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Placeholders substituted in converter settings.
const (
	InputPlaceholder   = "$(InputFilename)"
	OutputPlaceholder  = "$(OutputFilename)"
	StartupPlaceholder = "$(StartupPath)"
)

// Runner converts one input file into output.
type Runner interface {
	Run(ctx context.Context, input, output string) error
}

// ExecConverter runs an external program once per input file.
type ExecConverter struct {
	// Command is the program path; $(StartupPath) expands to the directory
	// of the running executable.
	Command string

	// Arguments is split on white space and each field has $(InputFilename)
	// and $(OutputFilename) expanded, so paths with spaces stay one argument.
	Arguments string

	StartupPath string
}

// NewExecConverter creates a converter for the given templates.
func NewExecConverter(command, arguments string) *ExecConverter {
	startup := ""
	if exe, err := os.Executable(); err == nil {
		startup = filepath.Dir(exe)
	}
	return &ExecConverter{Command: command, Arguments: arguments, StartupPath: startup}
}

// Cmd builds the command for one file without starting it.
func (c *ExecConverter) Cmd(ctx context.Context, input, output string) *exec.Cmd {
	name := strings.ReplaceAll(c.Command, StartupPlaceholder, c.StartupPath)
	fields := strings.Fields(c.Arguments)
	args := make([]string, len(fields))
	for i, f := range fields {
		f = strings.ReplaceAll(f, InputPlaceholder, input)
		f = strings.ReplaceAll(f, OutputPlaceholder, output)
		args[i] = strings.ReplaceAll(f, StartupPlaceholder, c.StartupPath)
	}
	return exec.CommandContext(ctx, name, args...)
}

// Run executes the converter and waits for it to exit.
func (c *ExecConverter) Run(ctx context.Context, input, output string) error {
	cmd := c.Cmd(ctx, input, output)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", cmd.Path, err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("converter produced no output: %w", err)
	}
	return nil
}
