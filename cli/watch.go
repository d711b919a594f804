package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/brighton36/rvgp-sub001/journal"
)

type WatchCmd struct {
	File string `help:"Journal file to watch." arg:"" optional:"" type:"existingfile"`
}

// Run re-validates the journal whenever it changes on disk. Editors often
// replace files on save, so the watch is set on the containing directory and
// filtered by name.
func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	path, err := journalPath(globals, cmd.File)
	if err != nil {
		return err
	}

	reg, err := globals.Registry()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	check := func() {
		source, err := os.ReadFile(abs)
		if err != nil {
			printError(ctx.Stderr, err.Error())
			return
		}

		postings, err := journal.ParseJournal(reg, string(source))
		if err != nil {
			renderer := NewErrorRenderer(source)
			_, _ = fmt.Fprintln(ctx.Stderr, renderer.Render(err))
			return
		}
		printSuccess(ctx.Stdout, fmt.Sprintf("%d postings valid", len(postings)))
	}

	printInfof(ctx.Stdout, "watching %s", path)
	check()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				check()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(ctx.Stderr, err.Error())
		}
	}
}
