// Package thumbnail encodes decoded frames as still images.
//
// The encoder and the colour converter feeding it are built for one input
// geometry and pixel format at a time and rebuilt together when a frame
// arrives with a different one.
package thumbnail

import (
	"errors"
	"fmt"

	"github.com/user/keythumb/pkg/adapters/logger"
	"github.com/user/keythumb/pkg/ports"
)

// Geometry configured by Initialize before any frame is seen.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFormat = ports.PixelFormatYUV420P
)

// Options configures an Encoder.
type Options struct {
	// Format is the output image format. Defaults to PNG.
	Format ports.ImageFormat
	// Width scales output to this width keeping the aspect ratio.
	// Zero keeps the source size.
	Width  int
	Logger ports.Logger
}

type geometry struct {
	width, height int
	format        ports.PixelFormat
}

// Encoder turns frames into encoded still images. It is not safe for
// concurrent use.
type Encoder struct {
	backend ports.EncoderBackend
	opts    Options
	log     ports.Logger

	codec ports.ImageCodec
	enc   ports.ImageEncoder
	conv  ports.ColorConverter

	configured bool
	input      geometry
	outWidth   int
	outHeight  int
	reconfigs  int
}

// New creates an Encoder. Nothing is allocated until Initialize or the
// first EncodeFrame.
func New(backend ports.EncoderBackend, opts Options) *Encoder {
	if opts.Format == "" {
		opts.Format = ports.FormatPNG
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	return &Encoder{
		backend: backend,
		opts:    opts,
		log:     opts.Logger.WithComponent("thumbnail"),
	}
}

// Initialize resolves the image codec and builds an encoder and converter
// for the default geometry, so an unusable environment fails before the
// first frame is decoded.
func (e *Encoder) Initialize() error {
	if err := e.resolve(); err != nil {
		return err
	}
	if err := e.configure(geometry{DefaultWidth, DefaultHeight, DefaultFormat}); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoderInitFailed, err)
	}
	return nil
}

func (e *Encoder) resolve() error {
	if e.codec != nil {
		return nil
	}
	codec, ok := e.backend.FindEncoder(e.opts.Format)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEncoderUnavailable, e.opts.Format)
	}
	e.codec = codec
	e.log.Debug("Using %s encoder for %s (native %s)", codec.Name(), e.opts.Format, codec.NativePixelFormat())
	return nil
}

// EncodeFrame converts the frame to the codec's native pixel format and
// encodes it into exactly one image.
func (e *Encoder) EncodeFrame(frame *ports.Frame) ([]byte, error) {
	if frame == nil || frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrEncodeFailed)
	}
	if err := e.resolve(); err != nil {
		return nil, err
	}

	g := geometry{frame.Width, frame.Height, frame.Format}
	if !e.configured || g != e.input {
		if err := e.configure(g); err != nil {
			return nil, fmt.Errorf("%w: %dx%d %s: %w", ErrEncoderReconfigFailed, g.width, g.height, g.format, err)
		}
	}

	native, err := ports.NewFrame(e.outWidth, e.outHeight, e.codec.NativePixelFormat())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColorConversionFailed, err)
	}
	rows, err := e.conv.Convert(frame, native)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrColorConversionFailed, err)
	}
	if rows < e.outHeight {
		return nil, fmt.Errorf("%w: converted %d of %d rows", ErrColorConversionFailed, rows, e.outHeight)
	}
	native.PTS = frame.PTS

	if err := e.enc.SendFrame(native); err != nil {
		return nil, fmt.Errorf("%w: send frame: %w", ErrEncodeFailed, err)
	}
	data, err := e.enc.ReceivePacket()
	if err != nil {
		if errors.Is(err, ports.ErrAgain) {
			return nil, fmt.Errorf("%w: encoder produced no image", ErrEncodeFailed)
		}
		return nil, fmt.Errorf("%w: receive packet: %w", ErrEncodeFailed, err)
	}
	return data, nil
}

// configure builds a new encoder and converter for g. The current pair and
// cached geometry are replaced only when both builds succeed.
func (e *Encoder) configure(g geometry) error {
	outW, outH := e.outputSize(g.width, g.height)
	native := e.codec.NativePixelFormat()

	enc, err := e.codec.Open(outW, outH)
	if err != nil {
		return fmt.Errorf("open %s encoder %dx%d: %w", e.codec.Name(), outW, outH, err)
	}
	conv, err := e.backend.NewConverter(g.width, g.height, g.format, outW, outH, native)
	if err != nil {
		_ = enc.Close()
		return fmt.Errorf("converter %s -> %s: %w", g.format, native, err)
	}

	if err := e.release(); err != nil {
		e.log.Warn("Releasing previous encoder failed: %v", err)
	}
	e.enc, e.conv = enc, conv
	e.input = g
	e.outWidth, e.outHeight = outW, outH
	e.configured = true
	e.reconfigs++

	e.log.Debug("Configured %dx%d %s -> %dx%d %s", g.width, g.height, g.format, outW, outH, native)
	return nil
}

func (e *Encoder) outputSize(w, h int) (int, int) {
	if e.opts.Width <= 0 || e.opts.Width == w {
		return w, h
	}
	outW := e.opts.Width &^ 1
	if outW < 2 {
		outW = 2
	}
	outH := int((int64(h)*int64(outW)+int64(w)/2)/int64(w)) &^ 1
	if outH < 2 {
		outH = 2
	}
	return outW, outH
}

// OutputSize returns the dimensions of the images currently produced.
func (e *Encoder) OutputSize() (width, height int) {
	return e.outWidth, e.outHeight
}

// CodecName returns the resolved codec name, empty before initialization.
func (e *Encoder) CodecName() string {
	if e.codec == nil {
		return ""
	}
	return e.codec.Name()
}

// Reconfigurations returns how many times the encoder and converter were
// built, including by Initialize.
func (e *Encoder) Reconfigurations() int {
	return e.reconfigs
}

func (e *Encoder) release() error {
	var first error
	if e.enc != nil {
		first = e.enc.Close()
		e.enc = nil
	}
	if e.conv != nil {
		if err := e.conv.Close(); err != nil && first == nil {
			first = err
		}
		e.conv = nil
	}
	e.configured = false
	return first
}

// Close releases the encoder and converter. It is safe to call more than once.
func (e *Encoder) Close() error {
	return e.release()
}
