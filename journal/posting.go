package journal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Tag is a key with an optional value, attached to a posting or transfer
// from trailing comment text.
type Tag struct {
	Key   string
	Value string
}

// ParseTag parses "key: value" or bare "key" syntax.
func ParseTag(s string) *Tag {
	key, value, found := strings.Cut(s, ":")
	if !found {
		return &Tag{Key: strings.TrimSpace(s)}
	}
	return &Tag{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}
}

func (t *Tag) String() string {
	if t.Value == "" {
		return t.Key
	}
	return t.Key + ": " + t.Value
}

var (
	tagSeriesRe = regexp.MustCompile(`:[^\s]+:`)
	keyValueRe  = regexp.MustCompile(`([^\s:,]+): +([^,]+)`)
)

// tagsFromComment scans trailing comment text for tag-like tokens: bracketed
// ":key:key2:" series become bare tags, "key: value" segments become valued
// tags.
func tagsFromComment(comment string) []*Tag {
	var tags []*Tag

	for _, series := range tagSeriesRe.FindAllString(comment, -1) {
		for _, key := range strings.Split(strings.Trim(series, ":"), ":") {
			if key != "" {
				tags = append(tags, &Tag{Key: key})
			}
		}
	}

	rest := tagSeriesRe.ReplaceAllString(comment, "")
	for _, m := range keyValueRe.FindAllStringSubmatch(rest, -1) {
		tags = append(tags, &Tag{Key: m[1], Value: strings.TrimSpace(m[2])})
	}

	return tags
}

// Transfer is one indented account line within a posting. At most one of
// Commodity and Complex is set; both may be absent for the balancing line.
type Transfer struct {
	Account   string
	Commodity *Commodity
	Complex   *ComplexCommodity
	Tags      []*Tag
}

func (t *Transfer) amountString() string {
	switch {
	case t.Commodity != nil:
		return t.Commodity.String()
	case t.Complex != nil:
		return t.Complex.String()
	}
	return ""
}

// hasAmount reports whether the transfer carries an explicit amount.
func (t *Transfer) hasAmount() bool {
	return t.Commodity != nil || t.Complex != nil
}

// Posting is one dated, described journal entry together with its transfer
// lines and tags.
type Posting struct {
	Line        int
	Date        time.Time
	Description string
	Transfers   []*Transfer
	Tags        []*Tag
}

func (p *Posting) appendTransfer(t *Transfer) {
	p.Transfers = append(p.Transfers, t)
}

// appendTag attaches a tag to the most recently appended transfer if one
// exists, otherwise to the posting itself.
func (p *Posting) appendTag(t *Tag) {
	if len(p.Transfers) > 0 {
		last := p.Transfers[len(p.Transfers)-1]
		last.Tags = append(last.Tags, t)
		return
	}
	p.Tags = append(p.Tags, t)
}

// Valid reports whether the posting satisfies the structural invariant:
// date, description, and transfers present, with at least one transfer
// carrying both an account and an amount.
func (p *Posting) Valid() bool {
	if p.Date.IsZero() || p.Description == "" || len(p.Transfers) == 0 {
		return false
	}
	for _, t := range p.Transfers {
		if t.Account != "" && t.hasAmount() {
			return true
		}
	}
	return false
}

// validate explains an invalid posting with per-transfer detail.
func (p *Posting) validate() error {
	if p.Valid() {
		return nil
	}

	var details []string
	switch {
	case p.Date.IsZero():
		details = append(details, "no date")
	case p.Description == "":
		details = append(details, "no description")
	case len(p.Transfers) == 0:
		details = append(details, "no transfers")
	default:
		for _, t := range p.Transfers {
			details = append(details, fmt.Sprintf("account %q has no amount", t.Account))
		}
	}

	return &ValidationError{
		Line:    p.Line,
		Message: fmt.Sprintf("invalid posting (%s)", strings.Join(details, "; ")),
	}
}

// ToLedger serializes the posting back into journal text. Amounts are
// aligned past the longest account name; transfer tags render as trailing
// comments on their line, posting tags on their own comment lines under the
// header.
func (p *Posting) ToLedger() string {
	var b strings.Builder
	b.WriteString(p.Date.Format("2006-01-02"))
	b.WriteByte(' ')
	b.WriteString(p.Description)

	for _, tag := range p.Tags {
		b.WriteString("\n  ; ")
		b.WriteString(tag.String())
	}

	width := 0
	for _, t := range p.Transfers {
		if w := runewidth.StringWidth(t.Account); t.hasAmount() && w > width {
			width = w
		}
	}

	for _, t := range p.Transfers {
		b.WriteString("\n  ")
		b.WriteString(t.Account)
		if amount := t.amountString(); amount != "" {
			b.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(t.Account)+4))
			b.WriteString(amount)
		}
		if len(t.Tags) > 0 {
			tags := make([]string, 0, len(t.Tags))
			for _, tag := range t.Tags {
				tags = append(tags, tag.String())
			}
			b.WriteString("  ; ")
			b.WriteString(strings.Join(tags, ", "))
		}
	}

	return b.String()
}
