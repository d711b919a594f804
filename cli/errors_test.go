package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/brighton36/rvgp-sub001/journal"
)

func TestErrorRendererWithSourceContext(t *testing.T) {
	source := []byte(strings.Join([]string{
		"2020-01-01 Opening balance",
		"  Assets:Checking    $ 100.00",
		"  Equity:Opening",
		"2020-01-02 Lunch",
		"  Expenses:Food    $ 20.00",
	}, "\n"))

	_, err := journal.ParseJournal(nil, string(source))
	assert.Error(t, err)

	output := NewErrorRenderer(source).Render(err)

	assert.Contains(t, output, "missing blank line before posting")
	assert.Contains(t, output, "2020-01-02 Lunch")

	// The cited line is marked, the surrounding context is indented.
	marked := false
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "2020-01-02 Lunch") {
			marked = strings.Contains(line, " > ")
		}
	}
	assert.True(t, marked)
}

func TestErrorRendererWithoutSourceContext(t *testing.T) {
	err := errors.New("something else went wrong")

	output := NewErrorRenderer(nil).Render(err)
	assert.Equal(t, "something else went wrong", output)
}
