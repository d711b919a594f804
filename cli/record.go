package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/brighton36/rvgp-sub001/journal"
)

type RecordCmd struct {
	File string `help:"Journal file to replay." arg:"" optional:"" type:"existingfile"`

	To     string `help:"Currency code every amount must be convertible to." default:"USD"`
	Prices string `help:"Prices file to consult and append to." type:"existingfile" default:""`
	Yes    bool   `help:"Append discovered rates without confirming."`
}

// Run replays every journal amount through the pricer and collects the
// rates that had to be derived (typically by inverting an observation
// recorded in the opposite direction). Appending them to the prices file
// keeps later partial builds reproducible.
func (cmd *RecordCmd) Run(ctx *kong.Context, globals *Globals) error {
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

	var discovered []*journal.Price
	pricer, err := loadPricer(globals, cmd.Prices, journal.WithBeforeAdd(func(p *journal.Price) {
		discovered = append(discovered, p)
	}))
	if err != nil {
		return err
	}

	missing := 0
	for _, posting := range postings {
		for _, transfer := range posting.Transfers {
			c := transfer.Commodity
			if c == nil || c.AlphabeticCode == cmd.To {
				continue
			}

			rate, err := pricer.Price(posting.Date, c.AlphabeticCode, cmd.To)
			var noPrice *journal.NoPriceError
			if errors.As(err, &noPrice) {
				printError(ctx.Stderr, err.Error())
				missing++
				continue
			} else if err != nil {
				return err
			}

			pricer.Add(posting.Date, c.AlphabeticCode, rate)
		}
	}

	if len(discovered) == 0 {
		printSuccess(ctx.Stdout, "no rates to record")
		if missing > 0 {
			return NewCommandError(1)
		}
		return nil
	}

	var lines strings.Builder
	for _, price := range discovered {
		fmt.Fprintf(&lines, "P %s %s %s\n", price.At.Format("2006-01-02"), price.LCode, price.Amount)
	}
	_, _ = fmt.Fprint(ctx.Stdout, lines.String())

	if !cmd.Yes {
		confirmed, err := promptYesNo(fmt.Sprintf("Append %d rate(s) to the prices file?", len(discovered)))
		if err != nil {
			return err
		}
		if !confirmed {
			printInfof(ctx.Stdout, "nothing recorded")
			return nil
		}
	}

	pricesFile, err := pricesPath(globals, cmd.Prices)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(pricesFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(lines.String()); err != nil {
		return err
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("recorded %d rate(s)", len(discovered)))
	if missing > 0 {
		return NewCommandError(1)
	}
	return nil
}
