package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

const pricesFixture = `
; historical EUR observations
P 2020-01-01 USD 0.9 EUR
P 2020-02-01 USD 0.8 EUR
`

func date(t *testing.T, s string) time.Time {
	t.Helper()
	at, err := time.Parse("2006-01-02", s)
	assert.NoError(t, err)
	return at
}

func TestNewPricerFromString(t *testing.T) {
	pricer, err := NewPricerFromString(nil, pricesFixture)
	assert.NoError(t, err)

	entries := pricer.Prices("USD", "EUR")
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "USD", entries[0].LCode)
	assert.Equal(t, "EUR", entries[0].RCode)
	assert.Equal(t, "0.90 EUR", entries[0].Amount.String())
}

func TestNewPricerFromStringVariants(t *testing.T) {
	pricer, err := NewPricerFromString(nil, strings.Join([]string{
		"P 2020/03/01 12:30:45 $ 0.75 EUR",
		`P 2020-04-01 "OLD USD" 1.01 USD`,
	}, "\n"))
	assert.NoError(t, err)

	// Symbols normalize to their alphabetic code.
	entries := pricer.Prices("USD", "EUR")
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "USD", entries[0].LCode)
	assert.Equal(t, time.Date(2020, 3, 1, 12, 30, 45, 0, time.UTC), entries[0].At)

	// Quoted codes the registry does not know pass through verbatim.
	entries = pricer.Prices("OLD USD", "USD")
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "OLD USD", entries[0].LCode)
}

func TestNewPricerFromStringSortsGlobally(t *testing.T) {
	pricer, err := NewPricerFromString(nil, strings.Join([]string{
		"P 2020-02-01 USD 0.8 EUR",
		"P 2020-01-01 USD 0.9 EUR",
	}, "\n"))
	assert.NoError(t, err)

	rate, err := pricer.Price(date(t, "2020-01-15"), "USD", "EUR")
	assert.NoError(t, err)
	assert.Equal(t, "0.90 EUR", rate.String())
}

func TestNewPricerFromStringErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "not a price line", input: "not a price", line: 1},
		{name: "invalid date", input: "P 2020-13-45 USD 0.9 EUR", line: 1},
		{name: "invalid commodity", input: "\nP 2020-01-01 USD nonsense", line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPricerFromString(nil, tt.input)
			assert.Error(t, err)

			parseErr, ok := err.(*ParseError)
			assert.True(t, ok)
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func TestPrice(t *testing.T) {
	pricer, err := NewPricerFromString(nil, pricesFixture)
	assert.NoError(t, err)

	tests := []struct {
		name string
		at   string
		want string
	}{
		{name: "between observations", at: "2020-01-15", want: "0.90 EUR"},
		{name: "exactly at observation", at: "2020-02-01", want: "0.80 EUR"},
		{name: "after last observation", at: "2020-02-15", want: "0.80 EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := pricer.Price(date(t, tt.at), "USD", "EUR")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, rate.String())
		})
	}
}

func TestPriceInverse(t *testing.T) {
	pricer, err := NewPricerFromString(nil, pricesFixture)
	assert.NoError(t, err)

	// 1/0.8 is exact.
	rate, err := pricer.Price(date(t, "2020-02-15"), "EUR", "USD")
	assert.NoError(t, err)
	assert.Equal(t, "1.25 USD", rate.String())

	// 1/0.9 is not; it truncates to the decimal digit budget.
	rate, err = pricer.Price(date(t, "2020-01-15"), "EUR", "USD")
	assert.NoError(t, err)
	assert.Equal(t, "1.11111111111111111 USD", rate.String())
}

func TestPriceNoPriceError(t *testing.T) {
	pricer, err := NewPricerFromString(nil, pricesFixture)
	assert.NoError(t, err)

	tests := []struct {
		name string
		at   string
		from string
		to   string
	}{
		{name: "before first observation", at: "2019-12-31", from: "USD", to: "EUR"},
		{name: "unknown pair", at: "2020-01-15", from: "USD", to: "GBP"},
		{name: "same currency", at: "2020-01-15", from: "USD", to: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pricer.Price(date(t, tt.at), tt.from, tt.to)
			assert.Error(t, err)

			noPrice, ok := err.(*NoPriceError)
			assert.True(t, ok)
			assert.Equal(t, tt.from, noPrice.From)
			assert.Equal(t, tt.to, noPrice.To)
		})
	}

	t.Run("empty database", func(t *testing.T) {
		_, err := NewPricer(nil).Price(date(t, "2020-01-15"), "USD", "EUR")
		_, ok := err.(*NoPriceError)
		assert.True(t, ok)
	})
}

func TestConvert(t *testing.T) {
	pricer, err := NewPricerFromString(nil, pricesFixture)
	assert.NoError(t, err)

	converted, err := pricer.Convert(date(t, "2020-01-15"), mustCommodity(t, "$ 100.00"), "EUR")
	assert.NoError(t, err)
	assert.Equal(t, "90.00 EUR", converted.String())

	converted, err = pricer.Convert(date(t, "2020-02-15"), mustCommodity(t, "80 EUR"), "USD")
	assert.NoError(t, err)
	assert.Equal(t, "100.00 USD", converted.String())

	_, err = pricer.Convert(date(t, "2019-01-01"), mustCommodity(t, "$ 1.00"), "EUR")
	assert.Error(t, err)
}

func TestPricerAdd(t *testing.T) {
	pricer := NewPricer(nil)

	// Out-of-order adds keep the pair list time-ascending.
	pricer.Add(date(t, "2020-02-01"), "USD", mustCommodity(t, "0.8 EUR"))
	pricer.Add(date(t, "2020-01-01"), "USD", mustCommodity(t, "0.9 EUR"))
	pricer.Add(date(t, "2020-03-01"), "USD", mustCommodity(t, "0.7 EUR"))

	entries := pricer.Prices("USD", "EUR")
	assert.Equal(t, 3, len(entries))
	for i := 1; i < len(entries); i++ {
		assert.True(t, !entries[i].At.Before(entries[i-1].At))
	}

	rate, err := pricer.Price(date(t, "2020-01-15"), "USD", "EUR")
	assert.NoError(t, err)
	assert.Equal(t, "0.90 EUR", rate.String())
}

func TestPricerAddDeduplicates(t *testing.T) {
	var notified []*Price
	pricer := NewPricer(nil, WithBeforeAdd(func(p *Price) {
		notified = append(notified, p)
	}))

	first := pricer.Add(date(t, "2020-01-01"), "USD", mustCommodity(t, "0.9 EUR"))
	assert.Equal(t, 1, len(notified))

	// Re-adding the rate already in effect returns the existing entry and
	// does not notify.
	again := pricer.Add(date(t, "2020-01-15"), "USD", mustCommodity(t, "0.9 EUR"))
	assert.Equal(t, first, again)
	assert.Equal(t, 1, len(notified))
	assert.Equal(t, 1, len(pricer.Prices("USD", "EUR")))

	// A changed rate is a genuinely new observation.
	pricer.Add(date(t, "2020-02-01"), "USD", mustCommodity(t, "0.8 EUR"))
	assert.Equal(t, 2, len(notified))
	assert.Equal(t, 2, len(pricer.Prices("USD", "EUR")))
}

func TestNewPricerFromStringDoesNotNotify(t *testing.T) {
	var notified []*Price
	_, err := NewPricerFromString(nil, pricesFixture, WithBeforeAdd(func(p *Price) {
		notified = append(notified, p)
	}))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(notified))
}
