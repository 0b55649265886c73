// Package report renders check reports for terminals and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"labcheck/internal/rules"
)

// Options controls text rendering.
type Options struct {
	// Color styles PASS/FAIL markers. The renderer still degrades to plain
	// text when w is not a terminal.
	Color bool
}

type styles struct {
	pass, fail, name, dim, summary lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	r := lipgloss.NewRenderer(w)
	return styles{
		pass:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),  // Green
		fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")), // Red
		name:    r.NewStyle().Foreground(lipgloss.Color("81")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
		summary: r.NewStyle().Bold(true),
	}
}

// Text writes one line per rule followed by a summary line:
//
//	PASS navbar/present  found ".navbar"
//	FAIL forms/labels    required section missing: #contact
//
//	35 passed, 1 failed
func Text(w io.Writer, rep rules.Report, opts Options) error {
	st := newStyles(w, opts.Color)

	width := 0
	for _, r := range rep.Results {
		width = max(width, len(r.Rule))
	}

	var b strings.Builder
	if rep.Source != "" {
		b.WriteString(st.dim.Render(rep.Source))
		b.WriteByte('\n')
	}
	for _, r := range rep.Results {
		marker := st.pass.Render("PASS")
		if !r.Passed {
			marker = st.fail.Render("FAIL")
		}
		line := marker + " " + st.name.Render(r.Rule) + strings.Repeat(" ", width-len(r.Rule))
		if r.Message != "" {
			line += "  " + r.Message
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(st.summary.Render(fmt.Sprintf("%d passed, %d failed", rep.Passed, rep.Failed)))
	b.WriteByte('\n')

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// NewEncoder returns the JSON encoder used for every machine-readable output.
func NewEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// JSON writes rep as a single JSON object followed by a newline. Equal
// reports encode to identical bytes.
func JSON(w io.Writer, rep rules.Report) error {
	if err := NewEncoder(w).Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
