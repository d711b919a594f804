package journal

import (
	"fmt"
	"time"
)

// Error types raised by the commodity, journal, and pricer parsers. All of
// them are deterministic parse or logic failures surfaced synchronously to
// the caller; nothing in this package retries or recovers.

// LineError is implemented by errors that cite a position in line-oriented
// input (journal files, prices files). The line number is 1-based.
type LineError interface {
	error
	GetLine() int
	GetLineText() string
}

// ParseError is returned when literal syntax is malformed. Line is zero when
// the input was a bare string rather than line-oriented text.
type ParseError struct {
	Line     int
	LineText string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.LineText)
	}
	return fmt.Sprintf("%s: %q", e.Message, e.LineText)
}

func (e *ParseError) GetLine() int {
	return e.Line
}

func (e *ParseError) GetLineText() string {
	return e.LineText
}

// ValidationError is returned when a posting violates a structural invariant
// of the journal format.
type ValidationError struct {
	Line     int
	LineText string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.LineText)
	}
	return e.Message
}

func (e *ValidationError) GetLine() int {
	return e.Line
}

func (e *ValidationError) GetLineText() string {
	return e.LineText
}

// ConversionError is returned when arithmetic or comparison is attempted
// between commodities of different kinds.
type ConversionError struct {
	Code      string
	OtherCode string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("unable to reconcile commodity %q with %q", e.OtherCode, e.Code)
}

// UnimplementedError is returned for operations that have no defined
// semantic: negative-precision rounding, multiplying two commodities, or a
// from-string parse that matches no recognizable code and amount pair.
type UnimplementedError struct {
	Op     string
	Source string
}

func (e *UnimplementedError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: unimplemented for %q", e.Op, e.Source)
	}
	return fmt.Sprintf("%s: unimplemented", e.Op)
}

// NoPriceError is returned by the Pricer when no applicable exchange rate
// exists for the requested pair and time.
type NoPriceError struct {
	At   time.Time
	From string
	To   string
}

func (e *NoPriceError) Error() string {
	return fmt.Sprintf("no %s to %s price known at %s", e.From, e.To, e.At.Format("2006-01-02 15:04:05"))
}

// TooManyComponentsError is returned when a cost expression sets the same
// component twice.
type TooManyComponentsError struct {
	Component string
	Source    string
}

func (e *TooManyComponentsError) Error() string {
	return fmt.Sprintf("too many %s components in %q", e.Component, e.Source)
}

// UnrecognizedOperatorError is returned for an @-family token that is
// neither @ nor @@.
type UnrecognizedOperatorError struct {
	Operator string
	Source   string
}

func (e *UnrecognizedOperatorError) Error() string {
	return fmt.Sprintf("unrecognized operator %q in %q", e.Operator, e.Source)
}
