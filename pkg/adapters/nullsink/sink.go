// Package nullsink provides a thumbnail sink that discards its input,
// used for dry runs.
package nullsink

import (
	"fmt"

	"github.com/user/keythumb/pkg/ports"
)

// Sink counts thumbnails without storing them.
type Sink struct {
	template string
	count    int
	bytes    int64
}

// New creates a new Sink. When template is non-empty, Write reports the
// path a real run would have used.
func New(template string) *Sink {
	return &Sink{template: template}
}

// Write records the thumbnail and discards the data.
func (s *Sink) Write(index int, pts int64, data []byte) (string, error) {
	s.count++
	s.bytes += int64(len(data))
	if s.template == "" {
		return "", nil
	}
	return fmt.Sprintf(s.template, index), nil
}

// Count returns the number of thumbnails written.
func (s *Sink) Count() int { return s.count }

// Bytes returns the total size of the discarded data.
func (s *Sink) Bytes() int64 { return s.bytes }

// Ensure Sink implements ports.ThumbnailSink
var _ ports.ThumbnailSink = (*Sink)(nil)
