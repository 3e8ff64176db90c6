package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"
)

// MarkdownFormatter renders a Summary as a Markdown report. Labels are
// translated through l10n.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", l10n.T("Keyframe Thumbnails"))
	fmt.Fprintf(&b, "- %s: `%s`\n", l10n.T("Run"), s.RunID)
	fmt.Fprintf(&b, "- %s: %s\n\n", l10n.T("Generated"), s.GeneratedAt.UTC().Format(time.RFC3339))

	section(&b, "Input")
	row(&b, "File", s.Input.Path)
	row(&b, "Stream", s.Input.StreamIndex)
	row(&b, "Codec", s.Input.Codec)
	row(&b, "Decoder", s.Input.Decoder)
	row(&b, "Size", fmt.Sprintf("%dx%d", s.Input.Width, s.Input.Height))
	row(&b, "Time base", s.Input.TimeBase)
	b.WriteString("\n")

	section(&b, "Settings")
	row(&b, "Interval", fmt.Sprintf("%d s", s.Settings.IntervalSeconds))
	row(&b, "Format", s.Settings.Format)
	row(&b, "Backend", s.Settings.Backend)
	if s.Settings.Width > 0 {
		row(&b, "Width", fmt.Sprintf("%d px", s.Settings.Width))
	}
	b.WriteString("\n")

	section(&b, "Result")
	row(&b, "Thumbnails", len(s.Thumbnails))
	row(&b, "Skipped", s.Skipped)
	row(&b, "Total size", formatBytes(s.TotalBytes()))
	row(&b, "Packets read", s.Stats.PacketsRead)
	row(&b, "Packets discarded", s.Stats.PacketsDiscarded)
	row(&b, "Packets decoded", s.Stats.PacketsDecoded)
	if s.ContactSheet != "" {
		row(&b, "Contact sheet", s.ContactSheet)
	}

	if len(s.Thumbnails) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", l10n.T("Thumbnails"))
		fmt.Fprintf(&b, "| # | %s | PTS | %s | %s |\n|---|------|-----|------|------|\n",
			l10n.T("Time"), l10n.T("Size"), l10n.T("Path"))
		for _, t := range s.Thumbnails {
			fmt.Fprintf(&b, "| %d | %s | %d | %s | %s |\n",
				t.Index, formatMillis(t.TimestampMs), t.PTS, formatBytes(int64(t.Bytes)), t.Path)
		}
	}
	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "## %s\n\n| %s | %s |\n|------|-------|\n", l10n.T(title), l10n.T("Item"), l10n.T("Value"))
}

func row(b *strings.Builder, label string, value interface{}) {
	fmt.Fprintf(b, "| %s | %v |\n", l10n.T(label), value)
}

func formatMillis(ms int64) string {
	return fmt.Sprintf("%.3f s", float64(ms)/1000)
}

var _ Formatter = (*MarkdownFormatter)(nil)
