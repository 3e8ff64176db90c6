// Package smartdecoder provides a media backend that opens MP4 containers
// and selects a decoder per codec.
package smartdecoder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/user/keythumb/pkg/adapters/av1decoder"
	"github.com/user/keythumb/pkg/adapters/ffmpegdecoder"
	"github.com/user/keythumb/pkg/adapters/libav"
	"github.com/user/keythumb/pkg/adapters/logger"
	"github.com/user/keythumb/pkg/adapters/mp4demuxer"
	"github.com/user/keythumb/pkg/ports"
)

// Backend represents the media backend used.
type Backend string

const (
	// BackendAuto uses libav when compiled in, the native backend otherwise.
	BackendAuto Backend = "auto"
	// BackendNative uses the mp4 demuxer with libaom and ffmpeg decoders.
	BackendNative Backend = "native"
	// BackendLibav uses the FFmpeg libraries (requires -tags ffmpeg).
	BackendLibav Backend = "libav"
)

// ErrUnknownBackend is returned by ParseBackend.
var ErrUnknownBackend = errors.New("smartdecoder: unknown backend")

// ParseBackend parses a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendNative, BackendLibav:
		return Backend(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Options configures the backend selection.
type Options struct {
	Backend Backend
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	Logger     ports.Logger
}

// Info describes the selected backend.
type Info struct {
	Backend Backend
	// Decoders maps each decodable codec to the decoder name.
	Decoders map[ports.CodecID]string
}

// Codecs returns the decodable codecs in sorted order.
func (i Info) Codecs() []ports.CodecID {
	ids := make([]ports.CodecID, 0, len(i.Decoders))
	for id := range i.Decoders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// MediaBackend is a ports.MediaBackend backed by a decoder registry.
type MediaBackend struct {
	open     func(path string) (ports.Demuxer, error)
	decoders map[ports.CodecID]ports.DecoderCodec
	info     Info
}

// New selects a backend.
//
// The selection flow:
//   - libav: FFmpeg libraries, fails unless built with -tags ffmpeg
//   - native: mp4 demuxer, AV1 via libaom, H.264/HEVC via the ffmpeg binary
//   - auto: libav when available, native otherwise
func New(opts Options) (*MediaBackend, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	log = log.WithComponent("smartdecoder")

	backend := opts.Backend
	if backend == "" {
		backend = BackendAuto
	}
	if backend == BackendAuto {
		backend = BackendNative
		if libav.Available() {
			backend = BackendLibav
		}
	}

	switch backend {
	case BackendLibav:
		mb, err := libav.NewMediaBackend()
		if err != nil {
			return nil, err
		}
		b := &MediaBackend{
			open:     mb.OpenContainer,
			decoders: make(map[ports.CodecID]ports.DecoderCodec),
			info:     Info{Backend: BackendLibav, Decoders: make(map[ports.CodecID]string)},
		}
		for _, id := range []ports.CodecID{ports.CodecH264, ports.CodecHEVC, ports.CodecAV1, ports.CodecVP9} {
			if dc, ok := mb.FindDecoder(id); ok {
				b.register(id, dc)
			}
		}
		log.Debug("Using libav backend")
		return b, nil

	case BackendNative:
		b := NewWithDecoders(func(path string) (ports.Demuxer, error) {
			return mp4demuxer.Open(path)
		}, nil)
		b.register(ports.CodecAV1, av1decoder.NewCodec())

		ffmpegPath, err := ffmpegdecoder.FindFFmpeg(opts.FFmpegPath)
		if err != nil {
			log.Debug("H.264/HEVC decoding unavailable: %v", err)
		} else {
			for _, id := range []ports.CodecID{ports.CodecH264, ports.CodecHEVC} {
				dc, err := ffmpegdecoder.NewCodec(id, ffmpegPath)
				if err != nil {
					return nil, err
				}
				b.register(id, dc)
			}
			log.Debug("Using ffmpeg at %s", ffmpegPath)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// NewWithDecoders builds a native backend over an arbitrary container opener.
func NewWithDecoders(open func(path string) (ports.Demuxer, error), decoders map[ports.CodecID]ports.DecoderCodec) *MediaBackend {
	b := &MediaBackend{
		open:     open,
		decoders: make(map[ports.CodecID]ports.DecoderCodec),
		info:     Info{Backend: BackendNative, Decoders: make(map[ports.CodecID]string)},
	}
	for id, dc := range decoders {
		b.register(id, dc)
	}
	return b
}

func (b *MediaBackend) register(id ports.CodecID, dc ports.DecoderCodec) {
	b.decoders[id] = dc
	b.info.Decoders[id] = dc.Name()
}

func (b *MediaBackend) OpenContainer(path string) (ports.Demuxer, error) {
	return b.open(path)
}

func (b *MediaBackend) FindDecoder(id ports.CodecID) (ports.DecoderCodec, bool) {
	dc, ok := b.decoders[id]
	return dc, ok
}

// Info returns information about the backend.
func (b *MediaBackend) Info() Info {
	return b.info
}

var _ ports.MediaBackend = (*MediaBackend)(nil)
