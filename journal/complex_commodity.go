package journal

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/brighton36/rvgp-sub001/currency"
)

// LotOperation distinguishes per-unit from per-lot pricing, both for the
// @/@@ conversion operator and for {}/{{}} lot brackets.
type LotOperation uint8

const (
	NoLotOperation LotOperation = iota
	PerUnit                     // @ or {...}
	PerLot                      // @@ or {{...}}
)

func (op LotOperation) String() string {
	switch op {
	case PerUnit:
		return "@"
	case PerLot:
		return "@@"
	}
	return ""
}

// ErrNoLeftCommodity is returned by sign operations on a cost expression
// whose primary (left) commodity is absent.
var ErrNoLeftCommodity = errors.New("cost expression has no left commodity")

// ComplexCommodity is a parsed cost expression: the compound annotation
// syntax journals use to express lot pricing, conversion operators, lot
// dates, and free-text notes next to an amount.
//
//	10 AAPL {$ 100.00} [2024-01-15] @@ $ 1,100.00
//	= $ 50.00 (estimated)
//
// Each component may appear at most once; the parser rejects duplicates.
type ComplexCommodity struct {
	Left  *Commodity
	Right *Commodity

	// Operation is the @ (per-unit) or @@ (per-lot) conversion between the
	// left and right commodities.
	Operation LotOperation

	LeftDate         time.Time
	LeftLot          *Commodity
	LeftLotOperation LotOperation
	LeftLotIsEqual   bool

	LeftExpression  string
	RightExpression string
	LeftLambda      string

	LeftIsEqual  bool
	RightIsEqual bool
}

var (
	lotRe        = regexp.MustCompile(`^(=?)(\{\{?)[ \t]*([^{}]*?)[ \t]*(\}\}?)`)
	lambdaRe     = regexp.MustCompile(`^\(\((.*?)\)\)`)
	lotDateRe    = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2})\]`)
	operatorRe   = regexp.MustCompile(`^@+`)
	expressionRe = regexp.MustCompile(`^\((.*?)\)`)
)

// ParseComplexCommodity parses a cost expression left to right, repeatedly
// matching the head of the remaining input against the recognized component
// grammar until the input is exhausted. A nil registry uses
// currency.Default().
func ParseComplexCommodity(reg *currency.Registry, s string) (*ComplexCommodity, error) {
	if reg == nil {
		reg = currency.Default()
	}

	p := &complexParser{reg: reg, source: s, input: s}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.out, nil
}

// complexParser is a cursor over the unparsed tail of the input. Matchers
// are tried in priority order at the current position; whichever matches
// consumes its text and populates one component of the result.
type complexParser struct {
	reg    *currency.Registry
	source string
	input  string
	out    *ComplexCommodity
}

func (p *complexParser) run() error {
	p.out = &ComplexCommodity{}

	for {
		p.input = strings.TrimLeft(p.input, " \t")
		if p.input == "" {
			return nil
		}

		var (
			matched bool
			err     error
		)
		for _, match := range []func() (bool, error){
			p.matchLot,
			p.matchLambda,
			p.matchDate,
			p.matchOperator,
			p.matchExpression,
			p.matchEquality,
			p.matchCommodity,
		} {
			matched, err = match()
			if err != nil {
				return err
			}
			if matched {
				break
			}
		}

		if !matched {
			return &ParseError{Message: "unparseable cost expression", LineText: p.source}
		}
	}
}

// rightSide reports whether components should attach to the right of the
// conversion operator.
func (p *complexParser) rightSide() bool {
	return p.out.Operation != NoLotOperation
}

func (p *complexParser) matchLot() (bool, error) {
	m := lotRe.FindStringSubmatch(p.input)
	if m == nil {
		return false, nil
	}
	if len(m[2]) != len(m[4]) {
		return false, &ParseError{Message: "unbalanced lot braces", LineText: p.source}
	}
	if p.out.LeftLot != nil {
		return false, &TooManyComponentsError{Component: "lot", Source: p.source}
	}

	lot, err := ParseCommodity(p.reg, m[3])
	if err != nil {
		return false, err
	}

	p.out.LeftLot = lot
	p.out.LeftLotIsEqual = m[1] == "="
	if len(m[2]) == 2 {
		p.out.LeftLotOperation = PerLot
	} else {
		p.out.LeftLotOperation = PerUnit
	}

	p.input = p.input[len(m[0]):]
	return true, nil
}

func (p *complexParser) matchLambda() (bool, error) {
	m := lambdaRe.FindStringSubmatch(p.input)
	if m == nil {
		return false, nil
	}
	if p.out.LeftLambda != "" {
		return false, &TooManyComponentsError{Component: "lambda", Source: p.source}
	}

	p.out.LeftLambda = m[1]
	p.input = p.input[len(m[0]):]
	return true, nil
}

func (p *complexParser) matchDate() (bool, error) {
	m := lotDateRe.FindStringSubmatch(p.input)
	if m == nil {
		return false, nil
	}
	if !p.out.LeftDate.IsZero() {
		return false, &TooManyComponentsError{Component: "date", Source: p.source}
	}

	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return false, &ParseError{Message: "invalid lot date", LineText: p.source}
	}

	p.out.LeftDate = date
	p.input = p.input[len(m[0]):]
	return true, nil
}

func (p *complexParser) matchOperator() (bool, error) {
	m := operatorRe.FindString(p.input)
	if m == "" {
		return false, nil
	}
	if p.out.Operation != NoLotOperation {
		return false, &TooManyComponentsError{Component: "operation", Source: p.source}
	}

	switch m {
	case "@":
		p.out.Operation = PerUnit
	case "@@":
		p.out.Operation = PerLot
	default:
		return false, &UnrecognizedOperatorError{Operator: m, Source: p.source}
	}

	p.input = p.input[len(m):]
	return true, nil
}

func (p *complexParser) matchExpression() (bool, error) {
	m := expressionRe.FindStringSubmatch(p.input)
	if m == nil {
		return false, nil
	}

	if p.rightSide() {
		if p.out.RightExpression != "" {
			return false, &TooManyComponentsError{Component: "right expression", Source: p.source}
		}
		p.out.RightExpression = m[1]
	} else {
		if p.out.LeftExpression != "" {
			return false, &TooManyComponentsError{Component: "left expression", Source: p.source}
		}
		p.out.LeftExpression = m[1]
	}

	p.input = p.input[len(m[0]):]
	return true, nil
}

func (p *complexParser) matchEquality() (bool, error) {
	if !strings.HasPrefix(p.input, "=") {
		return false, nil
	}

	if p.rightSide() {
		if p.out.RightIsEqual {
			return false, &TooManyComponentsError{Component: "right equality", Source: p.source}
		}
		p.out.RightIsEqual = true
	} else {
		if p.out.LeftIsEqual {
			return false, &TooManyComponentsError{Component: "left equality", Source: p.source}
		}
		p.out.LeftIsEqual = true
	}

	p.input = p.input[1:]
	return true, nil
}

func (p *complexParser) matchCommodity() (bool, error) {
	c, remainder, err := ParseCommodityWithRemainder(p.reg, p.input)
	if err != nil {
		// Not a commodity prefix; let the caller report the expression as
		// unparseable.
		return false, nil
	}

	if p.rightSide() {
		if p.out.Right != nil {
			return false, &TooManyComponentsError{Component: "right commodity", Source: p.source}
		}
		p.out.Right = c
	} else {
		if p.out.Left != nil {
			return false, &TooManyComponentsError{Component: "left commodity", Source: p.source}
		}
		p.out.Left = c
	}

	p.input = remainder
	return true, nil
}

// IsPositive reports the sign of the left commodity, the primary side of the
// expression.
func (c *ComplexCommodity) IsPositive() (bool, error) {
	if c.Left == nil {
		return false, ErrNoLeftCommodity
	}
	return c.Left.IsPositive(), nil
}

// Invert negates the left commodity in place and returns the receiver.
func (c *ComplexCommodity) Invert() (*ComplexCommodity, error) {
	if c.Left == nil {
		return nil, ErrNoLeftCommodity
	}
	c.Left.Invert()
	return c, nil
}

// String serializes the expression in canonical component order, mirroring
// the parse grammar, with absent components omitted.
func (c *ComplexCommodity) String() string {
	var parts []string

	if c.LeftIsEqual {
		parts = append(parts, "=")
	}
	if c.Left != nil {
		parts = append(parts, c.Left.String())
	}
	if c.LeftLot != nil {
		var b strings.Builder
		if c.LeftLotIsEqual {
			b.WriteByte('=')
		}
		braces := 1
		if c.LeftLotOperation == PerLot {
			braces = 2
		}
		b.WriteString(strings.Repeat("{", braces))
		b.WriteString(c.LeftLot.String())
		b.WriteString(strings.Repeat("}", braces))
		parts = append(parts, b.String())
	}
	if c.LeftLambda != "" {
		parts = append(parts, "(("+c.LeftLambda+"))")
	}
	if !c.LeftDate.IsZero() {
		parts = append(parts, "["+c.LeftDate.Format("2006-01-02")+"]")
	}
	if c.LeftExpression != "" {
		parts = append(parts, "("+c.LeftExpression+")")
	}
	if c.Operation != NoLotOperation {
		parts = append(parts, c.Operation.String())
	}
	if c.RightIsEqual {
		parts = append(parts, "=")
	}
	if c.Right != nil {
		parts = append(parts, c.Right.String())
	}
	if c.RightExpression != "" {
		parts = append(parts, "("+c.RightExpression+")")
	}

	return strings.Join(parts, " ")
}
