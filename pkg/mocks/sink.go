package mocks

import (
	"fmt"

	"github.com/user/keythumb/pkg/ports"
)

// ThumbnailSink is a mock implementation of ports.ThumbnailSink.
type ThumbnailSink struct {
	WriteFunc func(index int, pts int64, data []byte) (string, error)

	Writes []SinkWrite
}

// SinkWrite records a call to Write.
type SinkWrite struct {
	Index int
	PTS   int64
	Data  []byte
}

func (m *ThumbnailSink) Write(index int, pts int64, data []byte) (string, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(index, pts, data)
	}
	m.Writes = append(m.Writes, SinkWrite{Index: index, PTS: pts, Data: data})
	return fmt.Sprintf("thumb-%03d", index), nil
}

var _ ports.ThumbnailSink = (*ThumbnailSink)(nil)
