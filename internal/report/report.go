// Package report renders Summaries and Comparisons as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// MaxErrors is how many failure messages are listed per backend.
const MaxErrors = 3

const bytesPerMB = 1024 * 1024

var (
	colorHeader = lipgloss.Color("#20B9B4")
	colorOK     = lipgloss.Color("#2CD7C7")
	colorBad    = lipgloss.Color("#E74C3C")
	colorMuted  = lipgloss.Color("#2C4A54")
)

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	ok     lipgloss.Style
	bad    lipgloss.Style
	muted  lipgloss.Style
	border lipgloss.Style
}

// newStyles binds styles to w so color is only emitted for terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorHeader),
		header: r.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		ok:     r.NewStyle().Foreground(colorOK),
		bad:    r.NewStyle().Foreground(colorBad),
		muted:  r.NewStyle().Foreground(colorMuted),
		border: r.NewStyle().Foreground(colorMuted),
	}
}

func (s styles) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		}).
		Headers(headers...)
}

// Summaries writes one row per Summary followed by each backend's first
// failures.
func Summaries(w io.Writer, sums []domain.Summary) error {
	st := newStyles(w)
	t := st.table("Backend", "Type", "Docs", "OK", "Failed", "Success", "Size MB",
		"Avg ms", "Median ms", "P95 ms", "P99 ms", "Docs/s", "MB/s", "Avg mem MB", "Max mem MB")
	for _, s := range sums {
		t.Row(
			s.BackendName,
			s.DocumentType,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Succeeded),
			strconv.Itoa(s.Failed),
			fmt.Sprintf("%.1f%%", s.SuccessRate()),
			num(float64(s.TotalBytes)/bytesPerMB),
			num(s.AvgDurationMs),
			num(s.MedianDurationMs),
			num(s.P95DurationMs),
			num(s.P99DurationMs),
			num(s.ThroughputDocsPerSec),
			num(s.ThroughputMBPerSec),
			num(s.AvgMemoryMB),
			num(s.MaxMemoryMB),
		)
	}

	var b strings.Builder
	b.WriteString(st.title.Render("Benchmark results"))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	for _, s := range sums {
		if len(s.Errors) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", st.bad.Render(fmt.Sprintf("Errors (%s, %s):", s.BackendName, s.DocumentType)))
		for _, line := range errorLines(s.Errors) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// errorLines returns up to MaxErrors messages and a trailing count line.
func errorLines(errs []string) []string {
	if len(errs) <= MaxErrors {
		return errs
	}
	lines := append([]string{}, errs[:MaxErrors]...)
	return append(lines, fmt.Sprintf("... and %d more", len(errs)-MaxErrors))
}

// Comparison writes the overall verdict, every divergent field and every
// skipped document.
func Comparison(w io.Writer, c domain.Comparison) error {
	st := newStyles(w)

	var b strings.Builder
	status := st.ok.Render("EQUIVALENT")
	if !c.Equivalent {
		status = st.bad.Render("DIVERGENT")
	}
	fmt.Fprintf(&b, "%s %s\n", st.title.Render(fmt.Sprintf("%s vs %s:", c.BackendA, c.BackendB)), status)
	fmt.Fprintf(&b, "%s\n", st.muted.Render(fmt.Sprintf("%d documents compared, %d divergent, %d skipped",
		len(c.Verdicts), len(c.DivergentDocuments()), len(c.Skipped))))

	if divergent := c.DivergentDocuments(); len(divergent) > 0 {
		t := st.table("Document", "Field", c.BackendA, c.BackendB, "Diff", "Tolerance")
		for _, v := range c.Verdicts {
			for _, f := range v.DivergentFields() {
				d := v.FieldDiffs[f]
				t.Row(v.DocumentID, string(f),
					strconv.Itoa(d.ValueA), strconv.Itoa(d.ValueB),
					strconv.Itoa(d.AbsoluteDifference), strconv.FormatFloat(d.Tolerance, 'f', -1, 64))
			}
		}
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	if len(c.Skipped) > 0 {
		fmt.Fprintf(&b, "%s\n", st.bad.Render("Skipped:"))
		for _, s := range c.Skipped {
			fmt.Fprintf(&b, "  %s (%s): %s\n", s.DocumentID, s.Kind, s.Reason)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
