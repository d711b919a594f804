package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/brighton36/rvgp-sub001/journal"
)

type PriceCmd struct {
	From string `help:"Currency code or symbol to convert from." arg:""`
	To   string `help:"Currency code or symbol to convert to." arg:""`

	At     string `help:"Point in time to resolve the rate at (YYYY-MM-DD)." default:""`
	Prices string `help:"Prices file to consult." type:"existingfile" default:""`
}

func (cmd *PriceCmd) Run(ctx *kong.Context, globals *Globals) error {
	pricer, err := loadPricer(globals, cmd.Prices)
	if err != nil {
		return err
	}

	at, err := parseAt(cmd.At)
	if err != nil {
		return err
	}

	rate, err := pricer.Price(at, cmd.From, cmd.To)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(ctx.Stdout, rate)
	return nil
}

type ConvertCmd struct {
	Amount string `help:"Commodity to convert, e.g. '1000.00 USD'." arg:""`
	To     string `help:"Currency code or symbol to convert to." arg:""`

	At     string `help:"Point in time to resolve the rate at (YYYY-MM-DD)." default:""`
	Prices string `help:"Prices file to consult." type:"existingfile" default:""`
}

func (cmd *ConvertCmd) Run(ctx *kong.Context, globals *Globals) error {
	reg, err := globals.Registry()
	if err != nil {
		return err
	}

	amount, err := journal.ParseCommodity(reg, cmd.Amount)
	if err != nil {
		return err
	}

	pricer, err := loadPricer(globals, cmd.Prices)
	if err != nil {
		return err
	}

	at, err := parseAt(cmd.At)
	if err != nil {
		return err
	}

	converted, err := pricer.Convert(at, amount, cmd.To)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(ctx.Stdout, converted)
	return nil
}

func parseAt(at string) (time.Time, error) {
	if at == "" {
		return time.Now(), nil
	}

	parsed, err := time.Parse("2006-01-02", at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at date %q", at)
	}
	return parsed, nil
}

func loadPricer(globals *Globals, flag string, opts ...journal.PricerOption) (*journal.Pricer, error) {
	path, err := pricesPath(globals, flag)
	if err != nil {
		return nil, err
	}

	reg, err := globals.Registry()
	if err != nil {
		return nil, err
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return journal.NewPricerFromString(reg, string(text), opts...)
}
