package journal

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brighton36/rvgp-sub001/currency"
)

// Price is one observed exchange rate: Amount is denominated in RCode and
// expresses the value of one unit of LCode at time At.
type Price struct {
	At     time.Time
	LCode  string
	RCode  string
	Amount *Commodity
}

// sameRate reports whether two prices express an identical rate in the same
// direction.
func (p *Price) sameRate(o *Price) bool {
	if p.LCode != o.LCode || p.Amount.AlphabeticCode != o.Amount.AlphabeticCode {
		return false
	}
	eq, err := p.Amount.Equal(o.Amount)
	return err == nil && eq
}

// Pricer resolves "convert commodity X to code Y as of time T" against a
// time-ordered database of exchange rate observations. Rates are stored
// bidirectionally: a USD to EUR observation also answers EUR to USD queries
// through its multiplicative inverse.
//
// Pricer.Add mutates shared state and must be externally synchronized when
// a Pricer is shared across goroutines; everything else is read-only.
type Pricer struct {
	reg       *currency.Registry
	prices    map[string][]*Price
	beforeAdd func(*Price)
}

// PricerOption configures a Pricer.
type PricerOption func(*Pricer)

// WithBeforeAdd registers a callback invoked just before a new rate enters
// the database. It fires only for rates that were not already known, which
// lets callers persist newly-discovered conversion rates for reproducibility
// across partial builds.
func WithBeforeAdd(fn func(*Price)) PricerOption {
	return func(p *Pricer) { p.beforeAdd = fn }
}

// NewPricer creates an empty price database. A nil registry uses
// currency.Default().
func NewPricer(reg *currency.Registry, opts ...PricerOption) *Pricer {
	if reg == nil {
		reg = currency.Default()
	}
	p := &Pricer{reg: reg, prices: make(map[string][]*Price)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var priceLineRe = regexp.MustCompile(
	`^P[ \t]+(\d{4}[-/]\d{2}[-/]\d{2})(?:[ \t]+(\d{2}:\d{2}:\d{2}))?[ \t]+(?:"((?:[^"\\]|\\.)+)"|(\S+))[ \t]+(.+?)[ \t]*$`)

// NewPricerFromString parses a prices file. Each non-blank line must match
//
//	P <date>[ <HH:MM:SS>] <code-or-symbol> <commodity-string>
//
// Comments from an unescaped semicolon onward are stripped, blank lines are
// skipped, and malformed lines fail with a line-cited error. Entries are
// globally sorted by timestamp before being grouped per currency pair.
func NewPricerFromString(reg *currency.Registry, text string, opts ...PricerOption) (*Pricer, error) {
	p := NewPricer(reg, opts...)

	var parsed []*Price
	for i, raw := range strings.Split(text, "\n") {
		content, _, _ := splitComment(raw)
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}

		price, err := p.parsePriceLine(i+1, raw, content)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, price)
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].At.Before(parsed[j].At)
	})
	for _, price := range parsed {
		key := pairKey(price.LCode, price.RCode)
		p.prices[key] = append(p.prices[key], price)
	}

	return p, nil
}

func (p *Pricer) parsePriceLine(number int, raw, content string) (*Price, error) {
	m := priceLineRe.FindStringSubmatch(content)
	if m == nil {
		return nil, &ParseError{Line: number, LineText: raw, Message: "invalid price line"}
	}

	stamp := strings.ReplaceAll(m[1], "/", "-")
	layout := "2006-01-02"
	if m[2] != "" {
		stamp += " " + m[2]
		layout = "2006-01-02 15:04:05"
	}
	at, err := time.Parse(layout, stamp)
	if err != nil {
		return nil, &ParseError{Line: number, LineText: raw, Message: "invalid price date"}
	}

	symbol := m[4]
	if m[3] != "" {
		symbol = unescapeCode(m[3])
	}

	amount, err := ParseCommodity(p.reg, m[5])
	if err != nil {
		return nil, &ParseError{Line: number, LineText: raw, Message: "invalid price commodity"}
	}

	return &Price{
		At:     at,
		LCode:  p.normalize(symbol),
		RCode:  amount.AlphabeticCode,
		Amount: amount,
	}, nil
}

// normalize resolves a code or symbol to its ISO alphabetic code, falling
// back to the raw string for codes the registry does not know.
func (p *Pricer) normalize(s string) string {
	if cur := p.reg.FromCodeOrSymbol(s); cur != nil {
		return cur.AlphabeticCode
	}
	return s
}

// pairKey builds the order-independent composite key for a currency pair.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + " " + b
}

// Price resolves the exchange rate from one code to another as of the given
// time: the most recent observation not later than at, inverted when it was
// recorded in the opposite direction. It fails with a NoPriceError when the
// database is empty, the pair is unknown, or every observation for the pair
// postdates at.
func (p *Pricer) Price(at time.Time, from, to string) (*Commodity, error) {
	fromCode := p.normalize(from)
	toCode := p.normalize(to)

	noPrice := &NoPriceError{At: at, From: fromCode, To: toCode}
	if len(p.prices) == 0 {
		return nil, noPrice
	}

	entries := p.prices[pairKey(fromCode, toCode)]
	if len(entries) == 0 {
		return nil, noPrice
	}

	// Entries are kept time-ascending, so the last one not later than at is
	// the applicable rate.
	var found *Price
	for _, price := range entries {
		if price.At.After(at) {
			break
		}
		found = price
	}
	if found == nil {
		return nil, noPrice
	}

	if found.LCode == fromCode && found.Amount.AlphabeticCode == toCode {
		return found.Amount, nil
	}

	inverse := decimal.NewFromInt(1).DivRound(found.Amount.Decimal(), MaxDecimalDigits)
	return FromSymbolAndAmount(p.reg, to, inverse.String())
}

// Convert re-expresses a commodity in another currency as of the given
// time, using exact decimal multiplication against the resolved rate.
func (p *Pricer) Convert(at time.Time, c *Commodity, to string) (*Commodity, error) {
	rate, err := p.Price(at, c.AlphabeticCode, to)
	if err != nil {
		return nil, err
	}

	value := c.Decimal().Mul(rate.Decimal())
	return FromSymbolAndAmount(p.reg, to, value.String())
}

// Add records an exchange rate observation, keeping the per-pair list
// sorted by time. An observation identical to the rate immediately
// preceding its insertion point is dropped and the existing entry returned;
// otherwise the before-add callback fires and the new price is inserted.
func (p *Pricer) Add(at time.Time, from string, amount *Commodity) *Price {
	price := &Price{
		At:     at,
		LCode:  p.normalize(from),
		RCode:  amount.AlphabeticCode,
		Amount: amount,
	}

	key := pairKey(price.LCode, price.RCode)
	entries := p.prices[key]
	if len(entries) == 0 {
		p.notifyBeforeAdd(price)
		p.prices[key] = []*Price{price}
		return price
	}

	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].At.After(at)
	})
	if idx > 0 && entries[idx-1].sameRate(price) {
		return entries[idx-1]
	}

	p.notifyBeforeAdd(price)
	entries = append(entries, nil)
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = price
	p.prices[key] = entries
	return price
}

func (p *Pricer) notifyBeforeAdd(price *Price) {
	if p.beforeAdd != nil {
		p.beforeAdd(price)
	}
}

// Prices returns the time-ascending observations for a currency pair, in
// either order. Callers must not modify the returned slice.
func (p *Pricer) Prices(a, b string) []*Price {
	return p.prices[pairKey(p.normalize(a), p.normalize(b))]
}
