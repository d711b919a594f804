// Package journal implements the value types and parsers behind plain text
// accounting journals: fixed-point commodity amounts, cost expressions,
// postings, and a temporal exchange rate database.
//
// Amounts are exact. A Commodity stores an arbitrary-precision integer
// mantissa together with the number of implied decimal digits, so no value
// ever passes through a float. Arithmetic between operands of different
// precisions re-denominates both sides to the larger precision first.
package journal

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/brighton36/rvgp-sub001/currency"
)

// MaxDecimalDigits is the precision budget applied to division results and
// inverted exchange rates before they are re-parsed into a Commodity.
const MaxDecimalDigits = 17

// Commodity is a typed fixed-point amount. The real value equals
// Quantity / 10^Precision; the sign lives in Quantity.
//
// Code is the display symbol used for serialization ("$", "HOUSE").
// AlphabeticCode is the canonical identity used for equality and conversion
// matching; it equals Code when the currency registry has no entry for it.
type Commodity struct {
	Quantity       *big.Int
	Precision      int
	Code           string
	AlphabeticCode string

	// Resolved registry entry, nil for unregistered codes. Used for the
	// minor-unit floor in FromSymbolAndAmount and the trailing-zero trim
	// in Add/Sub.
	cur *currency.Currency
}

const amountPattern = `-?\d+(?:,\d{3})*(?:\.\d+)?`

// A code is either a double-quoted string (escaped quotes supported) or an
// unquoted run of characters that are not spaces, digits, a minus sign, a
// quote, or a cost-expression metacharacter (@ = braces brackets parens).
// Quoted codes may carry any of those.
const codePattern = `"((?:[^"\\]|\\.)+)"|([^\s\d"@={}()\[\]-]+)`

// unquotableCodeChars are the characters the unquoted code grammar cannot
// carry; a code containing any of them is double-quoted on serialization.
const unquotableCodeChars = " \t\n\f\r0123456789-\"@={}()[]"

var (
	codeFirstRe   = regexp.MustCompile(`^(?:` + codePattern + `)[ \t]*(` + amountPattern + `)`)
	amountFirstRe = regexp.MustCompile(`^(` + amountPattern + `)[ \t]*(?:` + codePattern + `)`)
)

// ParseCommodity parses a commodity string in either "<code><amount>" or
// "<amount><code>" form. The whole input must be consumed; trailing text is
// a parse failure. A nil registry uses currency.Default().
func ParseCommodity(reg *currency.Registry, s string) (*Commodity, error) {
	c, remainder, err := ParseCommodityWithRemainder(reg, s)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(remainder) != "" {
		return nil, &UnimplementedError{Op: "ParseCommodity", Source: s}
	}
	return c, nil
}

// ParseCommodityWithRemainder parses a commodity prefix of s and returns the
// unconsumed trailing text. Cost expression parsing uses this to pop a
// commodity off the head of its input.
func ParseCommodityWithRemainder(reg *currency.Registry, s string) (*Commodity, string, error) {
	if reg == nil {
		reg = currency.Default()
	}

	trimmed := strings.TrimLeft(s, " \t")

	if m := codeFirstRe.FindStringSubmatchIndex(trimmed); m != nil {
		code := submatch(trimmed, m, 1)
		if code == "" {
			code = submatch(trimmed, m, 2)
		} else {
			code = unescapeCode(code)
		}
		amount := submatch(trimmed, m, 3)
		c, err := FromSymbolAndAmount(reg, code, amount)
		if err != nil {
			return nil, "", err
		}
		return c, trimmed[m[1]:], nil
	}

	if m := amountFirstRe.FindStringSubmatchIndex(trimmed); m != nil {
		amount := submatch(trimmed, m, 1)
		code := submatch(trimmed, m, 2)
		if code == "" {
			code = submatch(trimmed, m, 3)
		} else {
			code = unescapeCode(code)
		}
		c, err := FromSymbolAndAmount(reg, code, amount)
		if err != nil {
			return nil, "", err
		}
		return c, trimmed[m[1]:], nil
	}

	return nil, "", &UnimplementedError{Op: "ParseCommodity", Source: s}
}

func submatch(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

func unescapeCode(code string) string {
	return strings.ReplaceAll(code, `\"`, `"`)
}

// FromSymbolAndAmount builds a Commodity from a code or symbol and a decimal
// amount literal. Precision is derived from the literal's decimal point; when
// the registry knows the currency and its minor unit exceeds the derived
// precision, the quantity is up-scaled to the minor unit ("$ 1" becomes
// quantity 100, precision 2). A higher supplied precision is never truncated.
func FromSymbolAndAmount(reg *currency.Registry, symbol, amount string) (*Commodity, error) {
	if reg == nil {
		reg = currency.Default()
	}

	precision, quantity, err := precisionAndQuantity(amount)
	if err != nil {
		return nil, err
	}

	cur := reg.FromCodeOrSymbol(symbol)
	if cur != nil && cur.MinorUnit > precision {
		quantity.Mul(quantity, pow10(cur.MinorUnit-precision))
		precision = cur.MinorUnit
	}

	alphabeticCode := symbol
	if cur != nil {
		alphabeticCode = cur.AlphabeticCode
	}

	return &Commodity{
		Quantity:       quantity,
		Precision:      precision,
		Code:           symbol,
		AlphabeticCode: alphabeticCode,
		cur:            cur,
	}, nil
}

// FromSymbolAndQuantity builds a Commodity from a code or symbol and an
// already-scaled integer quantity, interpreted at the currency's minor unit
// (precision zero for codes the registry does not know). The quantity is
// copied, not aliased.
func FromSymbolAndQuantity(reg *currency.Registry, symbol string, quantity *big.Int) *Commodity {
	if reg == nil {
		reg = currency.Default()
	}

	precision := 0
	alphabeticCode := symbol
	cur := reg.FromCodeOrSymbol(symbol)
	if cur != nil {
		precision = cur.MinorUnit
		alphabeticCode = cur.AlphabeticCode
	}

	return &Commodity{
		Quantity:       new(big.Int).Set(quantity),
		Precision:      precision,
		Code:           symbol,
		AlphabeticCode: alphabeticCode,
		cur:            cur,
	}
}

var amountRe = regexp.MustCompile(`^` + amountPattern + `$`)

func precisionAndQuantity(amount string) (int, *big.Int, error) {
	if !amountRe.MatchString(amount) {
		return 0, nil, &ParseError{Message: "invalid amount", LineText: amount}
	}

	digits := strings.ReplaceAll(amount, ",", "")
	precision := 0
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		precision = len(digits) - i - 1
		digits = digits[:i] + digits[i+1:]
	}

	quantity, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return 0, nil, &ParseError{Message: "invalid amount", LineText: amount}
	}
	return precision, quantity, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func (c *Commodity) clone() *Commodity {
	return &Commodity{
		Quantity:       new(big.Int).Set(c.Quantity),
		Precision:      c.Precision,
		Code:           c.Code,
		AlphabeticCode: c.AlphabeticCode,
		cur:            c.cur,
	}
}

// Decimal returns the exact value as a shopspring decimal.
func (c *Commodity) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).Set(c.Quantity), int32(-c.Precision))
}

// Float64 returns the value as a float, losing exactness.
func (c *Commodity) Float64() float64 {
	return c.Decimal().InexactFloat64()
}

// IsPositive reports whether the quantity is greater than zero.
func (c *Commodity) IsPositive() bool {
	return c.Quantity.Sign() > 0
}

// IsNegative reports whether the quantity is less than zero.
func (c *Commodity) IsNegative() bool {
	return c.Quantity.Sign() < 0
}

// Invert negates the quantity in place and returns the receiver.
func (c *Commodity) Invert() *Commodity {
	c.Quantity.Neg(c.Quantity)
	return c
}

// Negated returns a new Commodity with the opposite sign.
func (c *Commodity) Negated() *Commodity {
	return c.clone().Invert()
}

// Abs returns a new Commodity with a non-negative quantity.
func (c *Commodity) Abs() *Commodity {
	out := c.clone()
	out.Quantity.Abs(out.Quantity)
	return out
}

// Round returns a new Commodity rescaled to the given precision, rounding
// half-up: the result moves away from zero when the leading truncated digit
// is five or more. Negative precisions are unimplemented.
func (c *Commodity) Round(digits int) (*Commodity, error) {
	return c.roundOrFloor(digits, true)
}

// Floor returns a new Commodity truncated (toward zero) to the given
// precision. Negative precisions are unimplemented.
func (c *Commodity) Floor(digits int) (*Commodity, error) {
	return c.roundOrFloor(digits, false)
}

func (c *Commodity) roundOrFloor(digits int, round bool) (*Commodity, error) {
	if digits < 0 {
		return nil, &UnimplementedError{Op: fmt.Sprintf("rounding to %d digits", digits)}
	}

	out := c.clone()
	if digits >= c.Precision {
		out.Quantity.Mul(out.Quantity, pow10(digits-c.Precision))
		out.Precision = digits
		return out, nil
	}

	divisor := pow10(c.Precision - digits)
	quotient, remainder := new(big.Int).QuoRem(out.Quantity, divisor, new(big.Int))

	if round && remainder.Sign() != 0 {
		lead := new(big.Int).Abs(remainder)
		lead.Quo(lead, pow10(c.Precision-digits-1))
		if lead.Int64() >= 5 {
			if c.Quantity.Sign() < 0 {
				quotient.Sub(quotient, big.NewInt(1))
			} else {
				quotient.Add(quotient, big.NewInt(1))
			}
		}
	}

	out.Quantity = quotient
	out.Precision = digits
	return out, nil
}

// sameKind reports whether the two commodities can be reconciled for
// arithmetic and comparison. The fallback to the other side's display code
// is deliberately asymmetric.
func (c *Commodity) sameKind(o *Commodity) bool {
	return c.AlphabeticCode == o.AlphabeticCode || c.AlphabeticCode == o.Code
}

// reconcile re-denominates both operands to their larger precision and
// returns the scaled raw quantities.
func (c *Commodity) reconcile(o *Commodity) (lq, rq *big.Int, precision int) {
	precision = c.Precision
	if o.Precision > precision {
		precision = o.Precision
	}
	lq = new(big.Int).Mul(c.Quantity, pow10(precision-c.Precision))
	rq = new(big.Int).Mul(o.Quantity, pow10(precision-o.Precision))
	return lq, rq, precision
}

// Cmp compares two same-kind commodities, returning -1, 0, or 1. Operands of
// different kinds fail with a ConversionError.
func (c *Commodity) Cmp(o *Commodity) (int, error) {
	if !c.sameKind(o) {
		return 0, &ConversionError{Code: c.AlphabeticCode, OtherCode: o.AlphabeticCode}
	}
	lq, rq, _ := c.reconcile(o)
	return lq.Cmp(rq), nil
}

// Equal reports whether two same-kind commodities have the same value.
func (c *Commodity) Equal(o *Commodity) (bool, error) {
	cmp, err := c.Cmp(o)
	return cmp == 0, err
}

// GreaterThan reports whether c is strictly greater than o.
func (c *Commodity) GreaterThan(o *Commodity) (bool, error) {
	cmp, err := c.Cmp(o)
	return cmp > 0, err
}

// GreaterThanOrEqual reports whether c is greater than or equal to o.
func (c *Commodity) GreaterThanOrEqual(o *Commodity) (bool, error) {
	cmp, err := c.Cmp(o)
	return cmp >= 0, err
}

// LessThan reports whether c is strictly less than o.
func (c *Commodity) LessThan(o *Commodity) (bool, error) {
	cmp, err := c.Cmp(o)
	return cmp < 0, err
}

// LessThanOrEqual reports whether c is less than or equal to o.
func (c *Commodity) LessThanOrEqual(o *Commodity) (bool, error) {
	cmp, err := c.Cmp(o)
	return cmp <= 0, err
}

// Add returns the sum of two same-kind commodities. The result is trimmed of
// precision creep: trailing zero digits beyond the currency's minor unit are
// dropped, never going below the minor unit itself. A zero result collapses
// to the minor unit. Unregistered currencies are left untrimmed.
func (c *Commodity) Add(o *Commodity) (*Commodity, error) {
	return c.addOrSub(o, false)
}

// Sub returns the difference of two same-kind commodities, with the same
// trimming behavior as Add.
func (c *Commodity) Sub(o *Commodity) (*Commodity, error) {
	return c.addOrSub(o, true)
}

func (c *Commodity) addOrSub(o *Commodity, subtract bool) (*Commodity, error) {
	if !c.sameKind(o) {
		return nil, &ConversionError{Code: c.AlphabeticCode, OtherCode: o.AlphabeticCode}
	}

	lq, rq, precision := c.reconcile(o)
	quantity := new(big.Int)
	if subtract {
		quantity.Sub(lq, rq)
	} else {
		quantity.Add(lq, rq)
	}

	out := c.clone()
	out.Quantity = quantity
	out.Precision = precision
	out.trim()
	return out, nil
}

// trim implements the precision-creep guard on arithmetic results. It is a
// no-op when the currency is not in the registry.
func (c *Commodity) trim() {
	if c.cur == nil {
		return
	}

	minorUnit := c.cur.MinorUnit
	if c.Quantity.Sign() == 0 {
		c.Precision = minorUnit
		return
	}

	ten := big.NewInt(10)
	quotient, remainder := new(big.Int), new(big.Int)
	for c.Precision > minorUnit {
		quotient.QuoRem(c.Quantity, ten, remainder)
		if remainder.Sign() != 0 {
			break
		}
		c.Quantity.Set(quotient)
		c.Precision--
	}
}

// Mul multiplies the commodity by a plain number, rounding the exact product
// to MaxDecimalDigits before re-parsing it at natural precision.
//
// Multiplying two commodities together has no defined semantic here; there
// is intentionally no operation for it.
func (c *Commodity) Mul(n decimal.Decimal) *Commodity {
	return c.fromDecimal(c.Decimal().Mul(n).Round(MaxDecimalDigits))
}

// Div divides the commodity by a plain number, rounding the exact quotient
// to MaxDecimalDigits before re-parsing it at natural precision.
func (c *Commodity) Div(n decimal.Decimal) (*Commodity, error) {
	if n.IsZero() {
		return nil, &UnimplementedError{Op: "dividing by zero", Source: c.String()}
	}
	return c.fromDecimal(c.Decimal().DivRound(n, MaxDecimalDigits)), nil
}

// fromDecimal re-parses a decimal value into a new Commodity with the
// receiver's code identity, applying the minor-unit floor.
func (c *Commodity) fromDecimal(val decimal.Decimal) *Commodity {
	precision, quantity, err := precisionAndQuantity(val.String())
	if err != nil {
		// val.String() always matches the amount grammar.
		panic(err)
	}

	if c.cur != nil && c.cur.MinorUnit > precision {
		quantity.Mul(quantity, pow10(c.cur.MinorUnit-precision))
		precision = c.cur.MinorUnit
	}

	out := c.clone()
	out.Quantity = quantity
	out.Precision = precision
	return out
}

// FormatOption adjusts commodity rendering.
type FormatOption func(*formatConfig)

type formatConfig struct {
	precision *int
	commatize bool
	noCode    bool
}

// WithPrecision overrides the rendered precision, rounding the value first.
func WithPrecision(digits int) FormatOption {
	return func(f *formatConfig) { f.precision = &digits }
}

// WithCommatize renders the integer part with thousands separators.
func WithCommatize() FormatOption {
	return func(f *formatConfig) { f.commatize = true }
}

// WithNoCode suppresses the currency code.
func WithNoCode() FormatOption {
	return func(f *formatConfig) { f.noCode = true }
}

// FormatQuantity renders the fixed-point value as digits, without the code.
// A leading "-" is always included for negative values, and the decimal
// point is omitted entirely at precision zero.
func (c *Commodity) FormatQuantity(opts ...FormatOption) (string, error) {
	var cfg formatConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	value := c
	if cfg.precision != nil && *cfg.precision != c.Precision {
		rounded, err := c.Round(*cfg.precision)
		if err != nil {
			return "", err
		}
		value = rounded
	}

	abs := new(big.Int).Abs(value.Quantity)
	digits := abs.String()

	var characteristic, mantissa string
	if value.Precision == 0 {
		characteristic = digits
	} else if len(digits) <= value.Precision {
		characteristic = "0"
		mantissa = strings.Repeat("0", value.Precision-len(digits)) + digits
	} else {
		characteristic = digits[:len(digits)-value.Precision]
		mantissa = digits[len(digits)-value.Precision:]
	}

	if cfg.commatize {
		characteristic = commatize(characteristic)
	}

	var b strings.Builder
	if value.Quantity.Sign() < 0 {
		b.WriteByte('-')
	}
	b.WriteString(characteristic)
	if mantissa != "" {
		b.WriteByte('.')
		b.WriteString(mantissa)
	}
	return b.String(), nil
}

func commatize(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// QuantityString renders the value's digits at natural precision.
func (c *Commodity) QuantityString() string {
	s, _ := c.FormatQuantity()
	return s
}

// Format renders the commodity with its code. Single-character codes are
// symbol-style and precede the amount ("$ 50.00"); longer codes follow it
// ("50.00 HOUSE"). Codes containing characters the unquoted grammar cannot
// carry are double-quoted so the output always reparses.
func (c *Commodity) Format(opts ...FormatOption) (string, error) {
	quantity, err := c.FormatQuantity(opts...)
	if err != nil {
		return "", err
	}

	var cfg formatConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.noCode {
		return quantity, nil
	}

	code := c.Code
	if strings.ContainsAny(code, unquotableCodeChars) {
		code = `"` + strings.ReplaceAll(code, `"`, `\"`) + `"`
	}

	if utf8.RuneCountInString(c.Code) == 1 {
		return code + " " + quantity, nil
	}
	return quantity + " " + code, nil
}

// String renders the commodity canonically at natural precision.
func (c *Commodity) String() string {
	s, _ := c.Format()
	return s
}
