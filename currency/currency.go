// Package currency provides ISO 4217 currency metadata lookups backed by a
// JSON table. A Registry is an explicit value so that tests and embedding
// applications can supply their own table instead of relying on process-wide
// state; Default returns a registry built from the bundled table, loaded once.
package currency

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	_ "embed"
)

//go:embed iso-4217.json
var bundledTable []byte

// Currency is a single ISO 4217 entry. Entries are immutable after load.
//
// AlphabeticCode is the canonical identity used for equality and conversion
// matching. MinorUnit is the canonical number of decimal places (2 for USD,
// 0 for JPY). Symbol is optional display shorthand ("$", "€").
type Currency struct {
	Entity         string
	Name           string
	AlphabeticCode string
	NumericCode    string
	MinorUnit      int
	Symbol         string
}

// IncompleteCurrencyError is returned when a table entry is missing one of
// the required ISO fields.
type IncompleteCurrencyError struct {
	Field string
	Entry string
}

func (e *IncompleteCurrencyError) Error() string {
	return fmt.Sprintf("currency table entry %s is missing required field %q", e.Entry, e.Field)
}

// currencyJSON mirrors the key names of the bundled ISO table. Pointer fields
// let us distinguish absent keys from zero values during validation.
type currencyJSON struct {
	Entity         *string `json:"Entity"`
	Currency       *string `json:"Currency"`
	AlphabeticCode *string `json:"Alphabetic Code"`
	NumericCode    *string `json:"Numeric Code"`
	MinorUnit      *int    `json:"Minor unit"`
	Symbol         string  `json:"Symbol"`
}

func (c *currencyJSON) validate() (*Currency, error) {
	entry := "(unnamed)"
	if c.Currency != nil {
		entry = *c.Currency
	} else if c.AlphabeticCode != nil {
		entry = *c.AlphabeticCode
	}

	switch {
	case c.Entity == nil:
		return nil, &IncompleteCurrencyError{Field: "Entity", Entry: entry}
	case c.Currency == nil:
		return nil, &IncompleteCurrencyError{Field: "Currency", Entry: entry}
	case c.AlphabeticCode == nil:
		return nil, &IncompleteCurrencyError{Field: "Alphabetic Code", Entry: entry}
	case c.NumericCode == nil:
		return nil, &IncompleteCurrencyError{Field: "Numeric Code", Entry: entry}
	case c.MinorUnit == nil:
		return nil, &IncompleteCurrencyError{Field: "Minor unit", Entry: entry}
	case *c.MinorUnit < 0:
		return nil, &IncompleteCurrencyError{Field: "Minor unit", Entry: entry}
	}

	return &Currency{
		Entity:         *c.Entity,
		Name:           *c.Currency,
		AlphabeticCode: *c.AlphabeticCode,
		NumericCode:    *c.NumericCode,
		MinorUnit:      *c.MinorUnit,
		Symbol:         c.Symbol,
	}, nil
}

// Registry holds a loaded currency table. It is read-only after construction
// and safe to share across goroutines.
type Registry struct {
	currencies []*Currency
}

// NewRegistry parses a JSON currency table. Every entry must carry all
// required ISO fields or construction fails.
func NewRegistry(data []byte) (*Registry, error) {
	var raw []currencyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid currency table: %w", err)
	}

	currencies := make([]*Currency, 0, len(raw))
	for i := range raw {
		c, err := raw[i].validate()
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}

	return &Registry{currencies: currencies}, nil
}

// LoadRegistry reads a currency table from disk. Unreadable paths fail fast.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read currency table %q: %w", path, err)
	}
	return NewRegistry(data)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(bundledTable)
	if err != nil {
		// The bundled table is validated by tests; a failure here means the
		// build itself is broken.
		panic(err)
	}
	return r
})

// Default returns the registry built from the bundled ISO 4217 table.
// The table is parsed once on first use.
func Default() *Registry {
	return defaultRegistry()
}

// FromCodeOrSymbol returns the first currency whose alphabetic code or symbol
// equals s, or nil when the table has no such entry.
func (r *Registry) FromCodeOrSymbol(s string) *Currency {
	if s == "" {
		return nil
	}
	for _, c := range r.currencies {
		if c.AlphabeticCode == s || (c.Symbol != "" && c.Symbol == s) {
			return c
		}
	}
	return nil
}

// Currencies returns the loaded table. Callers must not modify the entries.
func (r *Registry) Currencies() []*Currency {
	return r.currencies
}
