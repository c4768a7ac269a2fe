package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

var colorEnabled = true

// DisableColors turns off ANSI colors, e.g. when stderr is not a terminal.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI colors back on.
func EnableColors() { colorEnabled = true }

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format renders the error for a terminal: a header, the location with
// an excerpt of the document, then the detail, cause and hint.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	header := "ERROR: "
	if e.Code != "" {
		header = "ERROR " + e.Code + ": "
	}
	b.WriteString(paint(header, ansiBold, ansiRed))
	b.WriteString(paint(e.Message, ansiBold))
	b.WriteString("\n\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
		if len(e.Source) > 0 {
			e.writeSource(&b)
			b.WriteString("\n")
		}
	}

	if e.Detail != "" {
		for _, line := range wrap(e.Detail, 70) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Caused by: ", ansiYellow), e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", ansiCyan), e.Suggestion)
	}
	return b.String()
}

// writeSource writes the excerpt with the error line marked and, when the
// column is known, a caret under it.
func (e *Error) writeSource(b *strings.Builder) {
	bar := paint(" │ ", ansiGray)
	for _, l := range e.Source {
		marker := "  "
		if l.Number == e.Location.Line {
			marker = paint("→ ", ansiRed)
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", marker, l.Number, bar, l.Text)
		if l.Number == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "        %s%s%s\n", paint("│ ", ansiGray),
				strings.Repeat(" ", e.Location.Column-1), paint("^", ansiRed))
		}
	}
}

// FormatCompact returns the error on one line, prefixed by its location.
func (e *Error) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	return strings.Join(append(parts, e.Message), ": ")
}

// FormatJSON returns the error as a JSON object, as served by the
// preview server.
func (e *Error) FormatJSON() string {
	out := struct {
		Code       string    `json:"code,omitempty"`
		Category   Category  `json:"category"`
		Message    string    `json:"message"`
		Detail     string    `json:"detail,omitempty"`
		Location   *Location `json:"location,omitempty"`
		Suggestion string    `json:"suggestion,omitempty"`
		Cause      string    `json:"cause,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrap breaks text into lines of at most width runes where word
// boundaries allow.
func wrap(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError writes err to w, formatted if it is an *Error.
func PrintError(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s%s\n\n", paint("ERROR: ", ansiBold, ansiRed), err.Error())
}
