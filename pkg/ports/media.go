// Package ports defines interfaces for external dependencies.
package ports

import (
	"errors"
	"math"
)

// ErrAgain is returned by decoders and encoders that need more input
// before they can produce output.
var ErrAgain = errors.New("ports: needs more input")

// NoPTS marks a packet or frame without a presentation timestamp.
const NoPTS int64 = math.MinInt64

// Rational is a fraction, used as the duration of one stream tick in seconds.
type Rational struct {
	Num int
	Den int
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Ticks converts whole seconds into ticks of this time base.
func (r Rational) Ticks(seconds int64) int64 {
	if !r.Valid() {
		return 0
	}
	return seconds * int64(r.Den) / int64(r.Num)
}

// Seconds converts ticks of this time base into seconds.
func (r Rational) Seconds(ticks int64) float64 {
	if !r.Valid() {
		return 0
	}
	return float64(ticks) * float64(r.Num) / float64(r.Den)
}

// Milliseconds converts ticks of this time base into whole milliseconds.
func (r Rational) Milliseconds(ticks int64) int64 {
	if !r.Valid() {
		return 0
	}
	return ticks * 1000 * int64(r.Num) / int64(r.Den)
}

// MediaType classifies a container stream.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeData
)

// String returns the string representation of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	default:
		return "unknown"
	}
}

// CodecID identifies a bitstream format.
type CodecID string

const (
	CodecH264    CodecID = "h264"
	CodecHEVC    CodecID = "hevc"
	CodecAV1     CodecID = "av1"
	CodecVP9     CodecID = "vp9"
	CodecAAC     CodecID = "aac"
	CodecPNG     CodecID = "png"
	CodecMJPEG   CodecID = "mjpeg"
	CodecWebP    CodecID = "webp"
	CodecUnknown CodecID = "unknown"
)

// CodecParameters describes the encoded bitstream of a stream.
type CodecParameters struct {
	CodecID     CodecID
	Width       int
	Height      int
	PixelFormat PixelFormat

	// ExtraData holds out-of-band codec configuration: Annex B parameter
	// sets for H.264/HEVC, configuration OBUs for AV1.
	ExtraData []byte

	// Native is a backend-specific handle for the same parameters.
	// Nil for backends that do not need one.
	Native any
}

// StreamInfo describes one stream of an opened container.
type StreamInfo struct {
	Index     int
	MediaType MediaType
	TimeBase  Rational
	Codec     CodecParameters
}

// Packet is one demuxed unit of compressed data.
type Packet struct {
	StreamIndex int
	PTS         int64 // presentation timestamp in stream ticks, NoPTS if unknown
	DTS         int64
	Keyframe    bool
	Data        []byte
}

// HasPTS reports whether the packet carries a presentation timestamp.
func (p *Packet) HasPTS() bool {
	return p.PTS != NoPTS
}

// ImageFormat specifies the still-image output format.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
)

// ParseImageFormat parses a format name or file extension.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch s {
	case "png", ".png":
		return FormatPNG, nil
	case "jpeg", "jpg", ".jpeg", ".jpg":
		return FormatJPEG, nil
	case "webp", ".webp":
		return FormatWebP, nil
	default:
		return "", errors.New("ports: unknown image format " + s)
	}
}

// Extension returns the conventional file extension, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}
