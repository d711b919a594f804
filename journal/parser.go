package journal

import (
	"regexp"
	"strings"
	"time"

	"github.com/brighton36/rvgp-sub001/currency"
)

var (
	headerRe   = regexp.MustCompile(`^(\d{4})[-/](\d{2})[-/](\d{2})[ \t]+(.+?)[ \t]*$`)
	transferRe = regexp.MustCompile(`[ ]{2,}|[ ]*\t[ \t]*`)
)

// ParseJournal parses plain text accounting journal text into postings.
//
// The parser is a line-oriented state machine with two states: outside a
// posting and inside one. Header lines open a posting, indented lines add
// transfers, and blank lines validate and flush. Every failure is fatal and
// cites the 1-based line number and raw line text. A nil registry uses
// currency.Default().
func ParseJournal(reg *currency.Registry, input string) ([]*Posting, error) {
	if reg == nil {
		reg = currency.Default()
	}
	p := &journalParser{reg: reg}
	return p.run(input)
}

type journalParser struct {
	reg      *currency.Registry
	postings []*Posting
	open     *Posting
}

func (p *journalParser) run(input string) ([]*Posting, error) {
	for i, raw := range strings.Split(input, "\n") {
		if err := p.line(i+1, raw); err != nil {
			return nil, err
		}
	}

	// Input that does not end with a blank line still flushes its final
	// posting.
	if p.open != nil {
		if err := p.flush(); err != nil {
			return nil, err
		}
	}

	return p.postings, nil
}

func (p *journalParser) line(number int, raw string) error {
	content, comment, semicolons := splitComment(raw)
	if semicolons > 1 {
		return &ParseError{Line: number, LineText: raw, Message: "multiple comment separators"}
	}

	switch {
	case strings.TrimSpace(content) == "":
		if comment == "" {
			// A true blank line terminates any open posting.
			if p.open != nil {
				return p.flush()
			}
			return nil
		}
		if p.open == nil {
			return &ParseError{Line: number, LineText: raw, Message: "unexpected line"}
		}

	case !isIndented(raw):
		m := headerRe.FindStringSubmatch(content)
		if m == nil {
			return &ParseError{Line: number, LineText: raw, Message: "unexpected line"}
		}
		if p.open != nil {
			return &ValidationError{Line: number, LineText: raw, Message: "missing blank line before posting"}
		}

		date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
		if err != nil {
			return &ParseError{Line: number, LineText: raw, Message: "invalid posting date"}
		}
		p.open = &Posting{Line: number, Date: date, Description: m[4]}

	default:
		if p.open == nil {
			return &ValidationError{Line: number, LineText: raw, Message: "unexpected transfer"}
		}
		if err := p.transfer(number, raw, content); err != nil {
			return err
		}
	}

	if p.open != nil && comment != "" {
		for _, tag := range tagsFromComment(comment) {
			p.open.appendTag(tag)
		}
	}

	return nil
}

func (p *journalParser) transfer(number int, raw, content string) error {
	parts := transferRe.Split(strings.TrimSpace(content), -1)
	if len(parts) > 2 {
		return &ParseError{Line: number, LineText: raw, Message: "invalid transfer line"}
	}

	transfer := &Transfer{Account: parts[0]}
	if len(parts) == 2 {
		if c, err := ParseCommodity(p.reg, parts[1]); err == nil {
			transfer.Commodity = c
		} else if cc, err := ParseComplexCommodity(p.reg, parts[1]); err == nil {
			transfer.Complex = cc
		} else {
			return &ParseError{Line: number, LineText: raw, Message: "invalid transfer commodity"}
		}
	}

	p.open.appendTransfer(transfer)
	return nil
}

func (p *journalParser) flush() error {
	if err := p.open.validate(); err != nil {
		return err
	}
	p.postings = append(p.postings, p.open)
	p.open = nil
	return nil
}

func isIndented(raw string) bool {
	return strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")
}

// splitComment splits a raw line at its first unescaped semicolon outside
// double quotes, returning the content, the comment text, and the number of
// unescaped semicolons seen.
func splitComment(raw string) (content, comment string, semicolons int) {
	inQuotes := false
	escaped := false
	split := -1

	for i, r := range raw {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ';' && !inQuotes:
			semicolons++
			if split < 0 {
				split = i
			}
		}
	}

	if split < 0 {
		return raw, "", 0
	}
	return raw[:split], strings.TrimSpace(raw[split+1:]), semicolons
}
