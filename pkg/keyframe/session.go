// Package keyframe selects rate-limited keyframes from a container and
// decodes them one at a time.
package keyframe

import (
	"fmt"

	"github.com/user/keythumb/pkg/adapters/logger"
	"github.com/user/keythumb/pkg/ports"
)

// State is the position of the frame pump.
type State int

const (
	// StateReading pulls packets from the container.
	StateReading State = iota
	// StateDraining has flushed the decoder and collects its buffered frames.
	StateDraining
	// StateDone is terminal: container and decoder are both exhausted.
	StateDone
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Stats counts packets seen by the pump.
type Stats struct {
	Read      int // packets read from the container
	Discarded int // packets rejected by the eligibility filter
	Fed       int // packets sent to the decoder
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Messages are emitted at debug level.
func WithLogger(l ports.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l.WithComponent("keyframe")
		}
	}
}

// Session decodes the eligible keyframes of the first video stream of a
// container. It is not safe for concurrent use.
type Session struct {
	demuxer ports.Demuxer
	decoder ports.VideoDecoder
	stream  ports.StreamInfo
	codec   string
	log     ports.Logger

	gap     int64
	lastPTS int64
	hasLast bool

	state   State
	pending *ports.Packet
	stats   Stats
	closed  bool
}

// Open opens the container at path, selects its first video stream and
// opens a decoder for it. Keyframes closer than intervalSeconds to the
// previously decoded one are skipped; a non-positive interval decodes every
// keyframe.
func Open(backend ports.MediaBackend, path string, intervalSeconds int, opts ...Option) (s *Session, err error) {
	s = &Session{log: logger.NewNoop()}
	for _, opt := range opts {
		opt(s)
	}

	// Released in reverse order unless Open succeeds.
	var closers []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		s = nil
	}()

	demuxer, err := backend.OpenContainer(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	closers = append(closers, demuxer.Close)
	s.demuxer = demuxer

	stream, ok := firstVideoStream(demuxer.Streams())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoVideoStream, path)
	}
	if intervalSeconds > 0 && !stream.TimeBase.Valid() {
		return nil, fmt.Errorf("%w: stream %d has invalid time base %d/%d",
			ErrOpenFailed, stream.Index, stream.TimeBase.Num, stream.TimeBase.Den)
	}
	s.stream = stream

	codec, ok := backend.FindDecoder(stream.Codec.CodecID)
	if !ok {
		return nil, fmt.Errorf("%w: codec %s", ErrNoDecoderAvailable, stream.Codec.CodecID)
	}
	s.codec = codec.Name()

	decoder, err := codec.Open(stream.Codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecoderInitFailed, codec.Name(), err)
	}
	closers = append(closers, decoder.Close)
	s.decoder = decoder

	s.gap = stream.TimeBase.Ticks(int64(intervalSeconds))
	if s.gap < 0 {
		s.gap = 0
	}

	s.log.Debug("Opened %s: stream %d (%s, %dx%d) with %s decoder, gap %d ticks",
		path, stream.Index, stream.Codec.CodecID, stream.Codec.Width, stream.Codec.Height, s.codec, s.gap)
	return s, nil
}

func firstVideoStream(streams []ports.StreamInfo) (ports.StreamInfo, bool) {
	for _, st := range streams {
		if st.MediaType == ports.MediaTypeVideo {
			return st, true
		}
	}
	return ports.StreamInfo{}, false
}

// Stream returns the selected video stream.
func (s *Session) Stream() ports.StreamInfo { return s.stream }

// DecoderName returns the name of the decoder implementation in use.
func (s *Session) DecoderName() string { return s.codec }

// Gap returns the minimum spacing of decoded keyframes in stream ticks.
func (s *Session) Gap() int64 { return s.gap }

// State returns the current pump state.
func (s *Session) State() State { return s.state }

// Stats returns packet counters.
func (s *Session) Stats() Stats { return s.stats }

// Close releases the decoder and the container. It is safe to call more
// than once and returns the first release error.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	s.state = StateDone

	var first error
	if s.decoder != nil {
		if err := s.decoder.Close(); err != nil {
			first = fmt.Errorf("close decoder: %w", err)
		}
		s.decoder = nil
	}
	if s.demuxer != nil {
		if err := s.demuxer.Close(); err != nil && first == nil {
			first = fmt.Errorf("close container: %w", err)
		}
		s.demuxer = nil
	}
	return first
}
