// Package imagecodec provides pure-Go still-image encoders.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"

	"github.com/user/keythumb/pkg/ports"
)

// DefaultQuality is used for lossy JPEG and WebP output when none is set.
const DefaultQuality = 85

// Options configures the encoders.
type Options struct {
	// Quality of lossy output, 1-100.
	Quality int
	// Lossy switches WebP from lossless to lossy encoding.
	Lossy bool
	// PNGCompression is passed to png.Encoder.
	PNGCompression png.CompressionLevel
}

func (o Options) quality() int {
	if o.Quality <= 0 || o.Quality > 100 {
		return DefaultQuality
	}
	return o.Quality
}

// Codec encodes frames of one native pixel format into one image format.
type Codec struct {
	name   string
	native ports.PixelFormat
	encode func(*bytes.Buffer, image.Image) error
}

// New returns the codec for format.
func New(format ports.ImageFormat, opts Options) (*Codec, bool) {
	switch format {
	case ports.FormatPNG:
		enc := &png.Encoder{CompressionLevel: opts.PNGCompression}
		return &Codec{
			name:   "png",
			native: ports.PixelFormatRGBA,
			encode: func(w *bytes.Buffer, img image.Image) error { return enc.Encode(w, img) },
		}, true
	case ports.FormatJPEG:
		q := opts.quality()
		return &Codec{
			name:   "jpeg",
			native: ports.PixelFormatYUV420P,
			encode: func(w *bytes.Buffer, img image.Image) error {
				return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
			},
		}, true
	case ports.FormatWebP:
		wopts := &webp.Options{Lossless: true}
		if opts.Lossy {
			wopts = &webp.Options{Quality: float32(opts.quality())}
		}
		return &Codec{
			name:   "webp",
			native: ports.PixelFormatRGBA,
			encode: func(w *bytes.Buffer, img image.Image) error { return webp.Encode(w, img, wopts) },
		}, true
	}
	return nil, false
}

func (c *Codec) Name() string                         { return c.name }
func (c *Codec) NativePixelFormat() ports.PixelFormat { return c.native }

// Open returns an encoder for width x height pictures.
func (c *Codec) Open(width, height int) (ports.ImageEncoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imagecodec: invalid %s size %dx%d", c.name, width, height)
	}
	return &Encoder{codec: c, width: width, height: height}, nil
}

var _ ports.ImageCodec = (*Codec)(nil)

// Encoder holds at most one encoded image until it is received.
type Encoder struct {
	codec   *Codec
	width   int
	height  int
	pending []byte
	closed  bool
}

// SendFrame encodes the frame. It returns ports.ErrAgain while a previous
// image has not been received.
func (e *Encoder) SendFrame(frame *ports.Frame) error {
	if e.closed {
		return fmt.Errorf("imagecodec: %s encoder closed", e.codec.name)
	}
	if e.pending != nil {
		return ports.ErrAgain
	}
	if frame.Width != e.width || frame.Height != e.height || frame.Format != e.codec.native {
		return fmt.Errorf("imagecodec: %s encoder expects %dx%d %s, got %dx%d %s",
			e.codec.name, e.width, e.height, e.codec.native, frame.Width, frame.Height, frame.Format)
	}
	if frame.CompleteRows() < frame.Height {
		return fmt.Errorf("imagecodec: incomplete frame (%d of %d rows)", frame.CompleteRows(), frame.Height)
	}
	img, err := frame.Image()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := e.codec.encode(&buf, img); err != nil {
		return fmt.Errorf("imagecodec: encode %s: %w", e.codec.name, err)
	}
	e.pending = buf.Bytes()
	return nil
}

// ReceivePacket returns the pending image, or ports.ErrAgain.
func (e *Encoder) ReceivePacket() ([]byte, error) {
	if e.pending == nil {
		return nil, ports.ErrAgain
	}
	out := e.pending
	e.pending = nil
	return out, nil
}

func (e *Encoder) Close() error {
	e.closed = true
	e.pending = nil
	return nil
}

var _ ports.ImageEncoder = (*Encoder)(nil)
