// Package summarizer provides the run manifest: what was extracted, from
// where and with which settings.
package summarizer

import (
	"time"

	"github.com/google/uuid"
)

// Summary contains all data collected during an extraction run.
type Summary struct {
	// Metadata
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Input      InputInfo       `json:"input"`
	Settings   Settings        `json:"settings"`
	Stats      Stats           `json:"stats"`
	Thumbnails []ThumbnailInfo `json:"thumbnails"`

	// Skipped counts frames dropped by continue-on-error.
	Skipped int `json:"skipped"`

	// ContactSheet is the sheet path, empty when none was written.
	ContactSheet string `json:"contact_sheet,omitempty"`
}

// InputInfo describes the source video stream.
type InputInfo struct {
	Path        string `json:"path"`
	StreamIndex int    `json:"stream_index"`
	Codec       string `json:"codec"`
	Decoder     string `json:"decoder"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TimeBase    string `json:"time_base"`
}

// Settings contains the extraction configuration.
type Settings struct {
	IntervalSeconds int    `json:"interval_seconds"`
	Format          string `json:"format"`
	Backend         string `json:"backend"`
	Width           int    `json:"width,omitempty"`
}

// Stats contains packet counters of the keyframe session.
type Stats struct {
	PacketsRead      int `json:"packets_read"`
	PacketsDiscarded int `json:"packets_discarded"`
	PacketsDecoded   int `json:"packets_decoded"`
}

// ThumbnailInfo describes one written thumbnail.
type ThumbnailInfo struct {
	Index       int    `json:"index"`
	PTS         int64  `json:"pts"`
	TimestampMs int64  `json:"timestamp_ms"`
	Path        string `json:"path,omitempty"`
	Bytes       int    `json:"bytes"`
}

// NewSummary creates a new Summary with a fresh run id and the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}
}

// TotalBytes returns the combined size of all thumbnails.
func (s *Summary) TotalBytes() int64 {
	var n int64
	for _, t := range s.Thumbnails {
		n += int64(t.Bytes)
	}
	return n
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput sets the source stream description.
func (b *Builder) WithInput(input InputInfo) *Builder {
	b.summary.Input = input
	return b
}

// WithSettings sets extraction settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithStats sets the packet counters.
func (b *Builder) WithStats(stats Stats) *Builder {
	b.summary.Stats = stats
	return b
}

// AddThumbnail appends one thumbnail.
func (b *Builder) AddThumbnail(t ThumbnailInfo) *Builder {
	b.summary.Thumbnails = append(b.summary.Thumbnails, t)
	return b
}

// WithSkipped sets the number of skipped frames.
func (b *Builder) WithSkipped(n int) *Builder {
	b.summary.Skipped = n
	return b
}

// WithContactSheet sets the contact sheet path.
func (b *Builder) WithContactSheet(path string) *Builder {
	b.summary.ContactSheet = path
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
