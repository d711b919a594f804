package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brighton36/rvgp-sub001/journal"
)

var (
	errMarkerStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders journal and pricer errors with terminal styling,
// showing the source lines around the cited line number.
type ErrorRenderer struct {
	source []byte
}

// NewErrorRenderer creates a renderer with source content for context.
func NewErrorRenderer(source []byte) *ErrorRenderer {
	return &ErrorRenderer{source: source}
}

// Render formats a single error, with source context when the error cites a
// line number.
func (r *ErrorRenderer) Render(err error) string {
	if e, ok := err.(journal.LineError); ok && r.source != nil && e.GetLine() > 0 {
		return r.renderWithSourceContext(e.GetLine(), e.Error())
	}
	return errorStyle.Render(err.Error())
}

func (r *ErrorRenderer) renderWithSourceContext(line int, message string) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(string(r.source), "\n")

	// Show two lines before and one after the cited line.
	startLine := line - 3
	endLine := line + 1

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		if i >= len(sourceLines) {
			break
		}
		if i == line-1 {
			buf.WriteString(errMarkerStyle.Render(" > "))
			buf.WriteString(sourceLines[i])
		} else {
			buf.WriteString("   ")
			buf.WriteString(errContextStyle.Render(sourceLines[i]))
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}
