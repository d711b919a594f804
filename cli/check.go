package cli

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/brighton36/rvgp-sub001/journal"
)

type CheckCmd struct {
	File string `help:"Journal file to validate." arg:"" optional:"" type:"existingfile"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	path, err := journalPath(globals, cmd.File)
	if err != nil {
		return err
	}

	reg, err := globals.Registry()
	if err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	postings, err := journal.ParseJournal(reg, string(source))
	if err != nil {
		renderer := NewErrorRenderer(source)
		_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "check failed")
		return NewCommandError(1)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("%d postings valid", len(postings)))
	return nil
}

type DumpCmd struct {
	File string `help:"Journal file to parse." arg:"" optional:"" type:"existingfile"`
}

func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	path, err := journalPath(globals, cmd.File)
	if err != nil {
		return err
	}

	reg, err := globals.Registry()
	if err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	postings, err := journal.ParseJournal(reg, string(source))
	if err != nil {
		return err
	}

	repr.Println(postings)
	return nil
}

// journalPath resolves the journal argument, falling back to the configured
// path when the argument is omitted.
func journalPath(globals *Globals, arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}

	cfg, err := globals.LoadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Journal == "" {
		return "", fmt.Errorf("no journal file given and none configured")
	}
	return cfg.Journal, nil
}

// pricesPath resolves the prices flag against the configuration.
func pricesPath(globals *Globals, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	cfg, err := globals.LoadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Prices == "" {
		return "", fmt.Errorf("no prices file given and none configured")
	}
	return cfg.Prices, nil
}

// CommandError signals a command failure after all output has been printed.
// Main centralizes exit handling instead of commands calling os.Exit.
type CommandError struct {
	exitCode int
}

func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

func (e *CommandError) Error() string {
	return "command failed"
}

func (e *CommandError) ExitCode() int {
	return e.exitCode
}
