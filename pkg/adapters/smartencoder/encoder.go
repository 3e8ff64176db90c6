// Package smartencoder provides an encoder backend that selects the best
// available implementation per image format, with fallback support.
package smartencoder

import (
	"errors"
	"fmt"

	"github.com/user/keythumb/pkg/adapters/imagecodec"
	"github.com/user/keythumb/pkg/adapters/libav"
	"github.com/user/keythumb/pkg/adapters/logger"
	"github.com/user/keythumb/pkg/adapters/pixconv"
	"github.com/user/keythumb/pkg/ports"
)

// Backend represents the encoding backend used.
type Backend string

const (
	// BackendAuto prefers libav when compiled in.
	BackendAuto Backend = "auto"
	// BackendNative represents the pure-Go encoders and converter.
	BackendNative Backend = "native"
	// BackendLibav represents the FFmpeg libraries.
	BackendLibav Backend = "libav"
)

// Info contains information about the encoder selected for a format.
type Info struct {
	Format ports.ImageFormat
	// Codec is the name of the selected codec.
	Codec string
	// Backend is the encoding backend being used.
	Backend Backend
	// RequestedBackend is the backend that was originally requested.
	RequestedBackend Backend
	// FallbackUsed indicates whether a fallback occurred.
	FallbackUsed bool
}

// Options configures the smart encoder behavior.
type Options struct {
	Backend Backend
	// DisableFallback makes a missing libav backend or codec an error
	// instead of falling back to the native encoders.
	DisableFallback bool
	Codec           imagecodec.Options
	Kernel          pixconv.Kernel
	// Logger is used to log fallback warnings.
	Logger ports.Logger
}

// ErrNoEncoderAvailable is returned when no encoder is available.
var ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")

// Native is the pure-Go encoder backend: imagecodec encoders with the
// pixconv converter.
type Native struct {
	Codec  imagecodec.Options
	Kernel pixconv.Kernel
}

func (n Native) FindEncoder(format ports.ImageFormat) (ports.ImageCodec, bool) {
	c, ok := imagecodec.New(format, n.Codec)
	if !ok {
		return nil, false
	}
	return c, true
}

func (n Native) NewConverter(srcW, srcH int, srcFmt ports.PixelFormat, dstW, dstH int, dstFmt ports.PixelFormat) (ports.ColorConverter, error) {
	return pixconv.Factory{Kernel: n.Kernel}.NewConverter(srcW, srcH, srcFmt, dstW, dstH, dstFmt)
}

// Encoder is a ports.EncoderBackend that tries a primary backend first and
// the native backend second.
type Encoder struct {
	primary     ports.EncoderBackend
	primaryName Backend
	fallback    ports.EncoderBackend
	requested   Backend
	log         ports.Logger
	selected    map[ports.ImageFormat]Info
}

// New creates an encoder backend.
//
// The selection flow:
//  1. libav (requested, or auto when compiled with -tags ffmpeg)
//  2. the native pure-Go backend, unless DisableFallback is set
func New(opts Options) (*Encoder, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	log = log.WithComponent("smartencoder")

	requested := opts.Backend
	if requested == "" {
		requested = BackendAuto
	}
	native := Native{Codec: opts.Codec, Kernel: opts.Kernel}

	switch requested {
	case BackendNative:
		return newEncoder(native, BackendNative, nil, requested, log), nil
	case BackendAuto, BackendLibav:
		if !libav.Available() && requested == BackendAuto {
			return newEncoder(native, BackendNative, nil, requested, log), nil
		}
		lb, err := libav.NewEncoderBackend()
		if err != nil {
			if opts.DisableFallback {
				return nil, err
			}
			log.Warn("libav encoder not available, falling back to native encoders: %v", err)
			return newEncoder(native, BackendNative, nil, requested, log), nil
		}
		var fallback ports.EncoderBackend
		if !opts.DisableFallback {
			fallback = native
		}
		return newEncoder(lb, BackendLibav, fallback, requested, log), nil
	}
	return nil, fmt.Errorf("smartencoder: unknown backend %q", requested)
}

func newEncoder(primary ports.EncoderBackend, name Backend, fallback ports.EncoderBackend, requested Backend, log ports.Logger) *Encoder {
	return &Encoder{
		primary:     primary,
		primaryName: name,
		fallback:    fallback,
		requested:   requested,
		log:         log,
		selected:    make(map[ports.ImageFormat]Info),
	}
}

// FindEncoder returns the codec for format from the first backend that has one.
func (e *Encoder) FindEncoder(format ports.ImageFormat) (ports.ImageCodec, bool) {
	if c, ok := e.primary.FindEncoder(format); ok {
		e.selected[format] = Info{Format: format, Codec: c.Name(), Backend: e.primaryName, RequestedBackend: e.requested}
		return c, true
	}
	if e.fallback == nil {
		return nil, false
	}
	c, ok := e.fallback.FindEncoder(format)
	if !ok {
		return nil, false
	}
	if _, seen := e.selected[format]; !seen {
		e.log.Warn("%s encoder not available in %s backend, falling back to native", format, e.primaryName)
	}
	e.selected[format] = Info{Format: format, Codec: c.Name(), Backend: BackendNative, RequestedBackend: e.requested, FallbackUsed: true}
	return c, true
}

// NewConverter builds a converter on the primary backend, falling back to
// the native converter for layouts the primary rejects.
func (e *Encoder) NewConverter(srcW, srcH int, srcFmt ports.PixelFormat, dstW, dstH int, dstFmt ports.PixelFormat) (ports.ColorConverter, error) {
	conv, err := e.primary.NewConverter(srcW, srcH, srcFmt, dstW, dstH, dstFmt)
	if err == nil || e.fallback == nil {
		return conv, err
	}
	e.log.Debug("Converter %s->%s not available in %s backend: %v", srcFmt, dstFmt, e.primaryName, err)
	return e.fallback.NewConverter(srcW, srcH, srcFmt, dstW, dstH, dstFmt)
}

// Info returns the selection made for format by FindEncoder.
func (e *Encoder) Info(format ports.ImageFormat) (Info, bool) {
	info, ok := e.selected[format]
	return info, ok
}

// Lookup finds the encoder for format and reports the selection.
func (e *Encoder) Lookup(format ports.ImageFormat) (ports.ImageCodec, Info, error) {
	c, ok := e.FindEncoder(format)
	if !ok {
		return nil, Info{}, fmt.Errorf("%w: %s", ErrNoEncoderAvailable, format)
	}
	info, _ := e.Info(format)
	return c, info, nil
}

var (
	_ ports.EncoderBackend = (*Encoder)(nil)
	_ ports.EncoderBackend = Native{}
)
