package summarizer

import (
	"fmt"

	"github.com/user/keythumb/pkg/ports"
)

// Writer writes formatted summaries to files.
type Writer struct {
	fs        ports.FileSystem
	formatter Formatter
}

// NewWriter creates a new Writer. A nil formatter picks one from the
// path extension on each Write.
func NewWriter(fs ports.FileSystem, formatter Formatter) *Writer {
	return &Writer{
		fs:        fs,
		formatter: formatter,
	}
}

// Write formats the summary and writes it to the specified path.
func (w *Writer) Write(path string, summary *Summary) error {
	formatter := w.formatter
	if formatter == nil {
		formatter = ForPath(path)
	}
	if err := w.fs.WriteFile(path, []byte(formatter.Format(summary))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
