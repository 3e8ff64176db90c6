package keyframe

import (
	"errors"
	"fmt"
	"io"

	"github.com/user/keythumb/pkg/ports"
)

// NextFrame returns the next decoded keyframe. It returns io.EOF once the
// container is exhausted and the decoder drained, and on every call after.
//
// A read error leaves the pump reading, so the caller may retry. A closed
// session is done.
func (s *Session) NextFrame() (*ports.Frame, error) {
	for {
		if s.state == StateDone {
			return nil, io.EOF
		}

		refused := false
		if s.state == StateReading {
			var err error
			if refused, err = s.feed(); err != nil {
				return nil, err
			}
		}

		frame, err := s.decoder.ReceiveFrame()
		switch {
		case err == nil:
			return frame, nil
		case errors.Is(err, ports.ErrAgain):
			if s.state != StateReading {
				s.log.Debug("Decoder drained")
				s.state = StateDone
				return nil, io.EOF
			}
			if refused {
				return nil, fmt.Errorf("%w: decoder accepts neither input nor output", ErrDecodeFailed)
			}
			s.log.Debug("Decoder needs more input")
		case errors.Is(err, io.EOF):
			s.log.Debug("Decoder drained")
			s.state = StateDone
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
		}
	}
}

// feed sends one eligible packet, or the flush signal at end of input.
// refused is true when the decoder asked for its output to be read first;
// the packet is then kept and resent on the next call.
func (s *Session) feed() (refused bool, err error) {
	for {
		pkt := s.pending
		if pkt == nil {
			pkt, err = s.demuxer.ReadPacket()
			if errors.Is(err, io.EOF) {
				return false, s.flush()
			}
			if err != nil {
				return false, fmt.Errorf("%w: %w", ErrReadFailed, err)
			}
			s.stats.Read++
			if !s.eligible(pkt) {
				s.stats.Discarded++
				continue
			}
		}

		if err := s.decoder.SendPacket(pkt); err != nil {
			if errors.Is(err, ports.ErrAgain) {
				s.pending = pkt
				return true, nil
			}
			return false, fmt.Errorf("%w: send packet pts=%d: %w", ErrDecodeFailed, pkt.PTS, err)
		}
		s.pending = nil
		s.stats.Fed++
		s.lastPTS = pkt.PTS
		s.hasLast = true
		s.log.Debug("Fed keyframe pts=%d (%.3fs)", pkt.PTS, s.stream.TimeBase.Seconds(pkt.PTS))
		return false, nil
	}
}

func (s *Session) flush() error {
	s.log.Debug("End of input, flushing decoder")
	s.state = StateDraining
	if err := s.decoder.SendPacket(nil); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: flush: %w", ErrDecodeFailed, err)
	}
	return nil
}
