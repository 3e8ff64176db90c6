package summarizer

import (
	"encoding/json"
)

// JSONFormatter renders a Summary as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format implements Formatter. Thumbnails is always an array.
func (f *JSONFormatter) Format(s *Summary) string {
	out := *s
	if out.Thumbnails == nil {
		out.Thumbnails = []ThumbnailInfo{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return "{}\n"
	}
	return string(data) + "\n"
}

var _ Formatter = (*JSONFormatter)(nil)
