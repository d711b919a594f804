package journal

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		input string
		key   string
		value string
	}{
		{input: "trip", key: "trip", value: ""},
		{input: "receipt: yes", key: "receipt", value: "yes"},
		{input: "  padded : spaces  ", key: "padded", value: "spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tag := ParseTag(tt.input)
			assert.Equal(t, tt.key, tag.Key)
			assert.Equal(t, tt.value, tag.Value)
		})
	}
}

func TestTagsFromComment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    []*Tag
	}{
		{
			name:    "bare series",
			comment: ":trip:nyc:",
			want:    []*Tag{{Key: "trip"}, {Key: "nyc"}},
		},
		{
			name:    "key values",
			comment: "receipt: yes, client: acme",
			want:    []*Tag{{Key: "receipt", Value: "yes"}, {Key: "client", Value: "acme"}},
		},
		{
			name:    "series and key values mixed",
			comment: ":trip: receipt: yes",
			want:    []*Tag{{Key: "trip"}, {Key: "receipt", Value: "yes"}},
		},
		{
			name:    "plain prose yields nothing",
			comment: "just a note",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagsFromComment(tt.comment))
		})
	}
}

func TestPostingValid(t *testing.T) {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	amount := mustCommodity(t, "$ 1.00")

	tests := []struct {
		name    string
		posting *Posting
		valid   bool
	}{
		{
			name: "complete",
			posting: &Posting{Date: date, Description: "Lunch", Transfers: []*Transfer{
				{Account: "Expenses:Food", Commodity: amount},
				{Account: "Assets:Cash"},
			}},
			valid: true,
		},
		{
			name:    "no date",
			posting: &Posting{Description: "Lunch", Transfers: []*Transfer{{Account: "a", Commodity: amount}}},
			valid:   false,
		},
		{
			name:    "no description",
			posting: &Posting{Date: date, Transfers: []*Transfer{{Account: "a", Commodity: amount}}},
			valid:   false,
		},
		{
			name:    "no transfers",
			posting: &Posting{Date: date, Description: "Lunch"},
			valid:   false,
		},
		{
			name: "no transfer carries an amount",
			posting: &Posting{Date: date, Description: "Lunch", Transfers: []*Transfer{
				{Account: "Expenses:Food"},
				{Account: "Assets:Cash"},
			}},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.posting.Valid())

			err := tt.posting.validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				_, ok := err.(*ValidationError)
				assert.True(t, ok)
			}
		})
	}
}

func TestPostingToLedger(t *testing.T) {
	cost, err := ParseComplexCommodity(nil, "10 AAPL @ $ 5.00")
	assert.NoError(t, err)

	posting := &Posting{
		Date:        time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Description: "Brokerage buy",
		Tags:        []*Tag{{Key: "trip"}},
		Transfers: []*Transfer{
			{Account: "Assets:Brokerage", Complex: cost},
			{Account: "Expenses:Fees", Commodity: mustCommodity(t, "$ 1.00"), Tags: []*Tag{{Key: "receipt", Value: "yes"}}},
			{Account: "Assets:Checking"},
		},
	}

	want := "2020-01-01 Brokerage buy\n" +
		"  ; trip\n" +
		"  Assets:Brokerage    10 AAPL @ $ 5.00\n" +
		"  Expenses:Fees       $ 1.00  ; receipt: yes\n" +
		"  Assets:Checking"
	assert.Equal(t, want, posting.ToLedger())
}
