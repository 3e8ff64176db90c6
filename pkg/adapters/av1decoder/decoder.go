// Package av1decoder provides an AV1 video decoder using libaom.
package av1decoder

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

static aom_codec_err_t flush_decoder(aom_codec_ctx_t *ctx) {
    return aom_codec_decode(ctx, NULL, 0, NULL);
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static int get_format(aom_image_t *img) {
    return (int)img->fmt;
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/user/keythumb/pkg/ports"
)

// ErrUnsupportedImage is returned for high bit depth or unusual chroma layouts.
var ErrUnsupportedImage = errors.New("av1decoder: unsupported image format")

// Codec opens libaom decoders.
type Codec struct{}

// NewCodec returns the libaom decoder codec.
func NewCodec() *Codec { return &Codec{} }

func (c *Codec) Name() string { return "libaom" }

// Open creates and initializes a decoder for an AV1 stream.
func (c *Codec) Open(params ports.CodecParameters) (ports.VideoDecoder, error) {
	if params.CodecID != ports.CodecAV1 {
		return nil, fmt.Errorf("av1decoder: cannot decode %s", params.CodecID)
	}
	d := New()
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

var _ ports.DecoderCodec = (*Codec)(nil)

// Decoder implements AV1 video decoding using libaom. Pictures are copied
// out of libaom right after each decode call.
type Decoder struct {
	codec   *C.aom_codec_ctx_t
	pts     []int64
	frames  []*ports.Frame
	flushed bool
}

// New creates a new AV1 decoder.
func New() *Decoder {
	return &Decoder{}
}

// Init initializes the decoder.
func (d *Decoder) Init() error {
	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("av1decoder: failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(d.codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("av1decoder: failed to initialize decoder: %d", res)
	}
	return nil
}

// SendPacket decodes one temporal unit. A nil packet flushes the decoder.
func (d *Decoder) SendPacket(pkt *ports.Packet) error {
	if d.codec == nil {
		return fmt.Errorf("av1decoder: decoder not initialized")
	}
	if d.flushed {
		return fmt.Errorf("av1decoder: packet sent after flush")
	}

	if pkt == nil {
		d.flushed = true
		if res := C.flush_decoder(d.codec); res != C.AOM_CODEC_OK {
			return fmt.Errorf("av1decoder: flush failed: %d", res)
		}
		return d.collect()
	}

	if len(pkt.Data) == 0 {
		return fmt.Errorf("av1decoder: empty packet")
	}
	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&pkt.Data[0])),
		C.size_t(len(pkt.Data)),
		nil,
	)
	if res != C.AOM_CODEC_OK {
		return fmt.Errorf("av1decoder: decode failed: %d", res)
	}
	d.pts = append(d.pts, pkt.PTS)
	return d.collect()
}

// collect copies every picture produced by the last decode call.
func (d *Decoder) collect() error {
	var iter C.aom_codec_iter_t
	for {
		img := C.aom_codec_get_frame(d.codec, &iter)
		if img == nil {
			return nil
		}
		frame, err := copyImage(img)
		if err != nil {
			return err
		}
		frame.PTS = ports.NoPTS
		if len(d.pts) > 0 {
			frame.PTS = d.pts[0]
			d.pts = d.pts[1:]
		}
		d.frames = append(d.frames, frame)
	}
}

// ReceiveFrame returns the next decoded picture.
func (d *Decoder) ReceiveFrame() (*ports.Frame, error) {
	if len(d.frames) == 0 {
		if d.flushed {
			return nil, io.EOF
		}
		return nil, ports.ErrAgain
	}
	f := d.frames[0]
	d.frames = d.frames[1:]
	return f, nil
}

// Close releases decoder resources.
func (d *Decoder) Close() error {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
	d.frames = nil
	d.pts = nil
	return nil
}

var _ ports.VideoDecoder = (*Decoder)(nil)

func copyImage(img *C.aom_image_t) (*ports.Frame, error) {
	var format ports.PixelFormat
	switch C.get_format(img) {
	case C.AOM_IMG_FMT_I420:
		format = ports.PixelFormatYUV420P
	case C.AOM_IMG_FMT_I422:
		format = ports.PixelFormatYUV422P
	case C.AOM_IMG_FMT_I444:
		format = ports.PixelFormatYUV444P
	default:
		return nil, fmt.Errorf("%w: aom format %d", ErrUnsupportedImage, int(C.get_format(img)))
	}

	width := int(C.get_width(img))
	height := int(C.get_height(img))
	frame, err := ports.NewFrame(width, height, format)
	if err != nil {
		return nil, err
	}
	for i := range frame.Planes {
		rowBytes, rows := format.PlaneSize(i, width, height)
		stride := int(C.get_stride(img, C.int(i)))
		src := unsafe.Slice((*byte)(unsafe.Pointer(C.get_plane(img, C.int(i)))), stride*(rows-1)+rowBytes)
		dst := frame.Planes[i]
		for y := 0; y < rows; y++ {
			copy(dst.Data[y*dst.Stride:y*dst.Stride+rowBytes], src[y*stride:y*stride+rowBytes])
		}
	}
	return frame, nil
}
