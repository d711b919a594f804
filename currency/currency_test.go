package currency

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestFromCodeOrSymbol(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string // expected alphabetic code, "" for no match
	}{
		{name: "by code", arg: "USD", want: "USD"},
		{name: "by symbol", arg: "$", want: "USD"},
		{name: "euro symbol", arg: "€", want: "EUR"},
		{name: "zero minor unit currency", arg: "JPY", want: "JPY"},
		{name: "unknown code", arg: "HOUSE", want: ""},
		{name: "empty string", arg: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default().FromCodeOrSymbol(tt.arg)
			if tt.want == "" {
				assert.Equal(t, (*Currency)(nil), got)
				return
			}
			assert.NotZero(t, got)
			assert.Equal(t, tt.want, got.AlphabeticCode)
		})
	}
}

func TestBundledTable(t *testing.T) {
	usd := Default().FromCodeOrSymbol("USD")
	assert.NotZero(t, usd)
	assert.Equal(t, 2, usd.MinorUnit)
	assert.Equal(t, "$", usd.Symbol)
	assert.Equal(t, "840", usd.NumericCode)

	jpy := Default().FromCodeOrSymbol("JPY")
	assert.NotZero(t, jpy)
	assert.Equal(t, 0, jpy.MinorUnit)

	kwd := Default().FromCodeOrSymbol("KWD")
	assert.NotZero(t, kwd)
	assert.Equal(t, 3, kwd.MinorUnit)
}

func TestDefaultIsMemoized(t *testing.T) {
	assert.Equal(t, Default(), Default())
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry([]byte(`[
		{"Entity": "TESTLAND", "Currency": "Test Dollar", "Alphabetic Code": "TST",
		 "Numeric Code": "999", "Minor unit": 4, "Symbol": "T$"}
	]`))
	assert.NoError(t, err)

	tst := reg.FromCodeOrSymbol("T$")
	assert.NotZero(t, tst)
	assert.Equal(t, "TST", tst.AlphabeticCode)
	assert.Equal(t, 4, tst.MinorUnit)
	assert.Equal(t, "TESTLAND", tst.Entity)
}

func TestNewRegistryMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		table string
		field string
	}{
		{
			name:  "missing minor unit",
			table: `[{"Entity": "X", "Currency": "X Dollar", "Alphabetic Code": "XXD", "Numeric Code": "001"}]`,
			field: "Minor unit",
		},
		{
			name:  "missing entity",
			table: `[{"Currency": "X Dollar", "Alphabetic Code": "XXD", "Numeric Code": "001", "Minor unit": 2}]`,
			field: "Entity",
		},
		{
			name:  "negative minor unit",
			table: `[{"Entity": "X", "Currency": "X Dollar", "Alphabetic Code": "XXD", "Numeric Code": "001", "Minor unit": -1}]`,
			field: "Minor unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry([]byte(tt.table))
			assert.Error(t, err)

			incomplete, ok := err.(*IncompleteCurrencyError)
			assert.True(t, ok)
			assert.Equal(t, tt.field, incomplete.Field)
		})
	}
}

func TestNewRegistryInvalidJSON(t *testing.T) {
	_, err := NewRegistry([]byte("not json"))
	assert.Error(t, err)
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry("testdata/does-not-exist.json")
	assert.Error(t, err)
}
