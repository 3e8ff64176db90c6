//go:build ffmpeg

package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/keythumb/pkg/ports"
)

// Available reports whether the FFmpeg libraries are linked in.
func Available() bool { return true }

// MediaBackend opens containers with libavformat and decodes with libavcodec.
type MediaBackend struct{}

// NewMediaBackend returns the libav media backend.
func NewMediaBackend() (ports.MediaBackend, error) { return &MediaBackend{}, nil }

func (b *MediaBackend) OpenContainer(path string) (ports.Demuxer, error) {
	return OpenDemuxer(path)
}

func (b *MediaBackend) FindDecoder(id ports.CodecID) (ports.DecoderCodec, bool) {
	cid, ok := codecIDs[id]
	if !ok {
		return nil, false
	}
	codec := astiav.FindDecoder(cid)
	if codec == nil {
		return nil, false
	}
	return &decoderCodec{codec: codec}, true
}

// EncoderBackend encodes stills with libavcodec and converts with libswscale.
type EncoderBackend struct{}

// NewEncoderBackend returns the libav encoder backend.
func NewEncoderBackend() (ports.EncoderBackend, error) { return &EncoderBackend{}, nil }

// FindEncoder supports PNG and JPEG (MJPEG). WebP is left to the native backend.
func (b *EncoderBackend) FindEncoder(format ports.ImageFormat) (ports.ImageCodec, bool) {
	var (
		id     astiav.CodecID
		native ports.PixelFormat
		avFmt  astiav.PixelFormat
	)
	switch format {
	case ports.FormatPNG:
		id, native, avFmt = astiav.CodecIDPng, ports.PixelFormatRGBA, astiav.PixelFormatRgba
	case ports.FormatJPEG:
		id, native, avFmt = astiav.CodecIDMjpeg, ports.PixelFormatYUV420P, astiav.PixelFormatYuvj420P
	default:
		return nil, false
	}
	codec := astiav.FindEncoder(id)
	if codec == nil {
		return nil, false
	}
	return &imageCodec{codec: codec, native: native, avFormat: avFmt}, true
}

func (b *EncoderBackend) NewConverter(srcW, srcH int, srcFmt ports.PixelFormat, dstW, dstH int, dstFmt ports.PixelFormat) (ports.ColorConverter, error) {
	return newScaler(srcW, srcH, srcFmt, dstW, dstH, dstFmt)
}

var codecIDs = map[ports.CodecID]astiav.CodecID{
	ports.CodecH264:  astiav.CodecIDH264,
	ports.CodecHEVC:  astiav.CodecIDHevc,
	ports.CodecAV1:   astiav.CodecIDAv1,
	ports.CodecVP9:   astiav.CodecIDVp9,
	ports.CodecAAC:   astiav.CodecIDAac,
	ports.CodecPNG:   astiav.CodecIDPng,
	ports.CodecMJPEG: astiav.CodecIDMjpeg,
}

func codecFromAV(id astiav.CodecID) ports.CodecID {
	for k, v := range codecIDs {
		if v == id {
			return k
		}
	}
	return ports.CodecUnknown
}

var pixelFormats = map[ports.PixelFormat]astiav.PixelFormat{
	ports.PixelFormatYUV420P: astiav.PixelFormatYuv420P,
	ports.PixelFormatYUV422P: astiav.PixelFormatYuv422P,
	ports.PixelFormatYUV444P: astiav.PixelFormatYuv444P,
	ports.PixelFormatNV12:    astiav.PixelFormatNv12,
	ports.PixelFormatRGB24:   astiav.PixelFormatRgb24,
	ports.PixelFormatRGBA:    astiav.PixelFormatRgba,
	ports.PixelFormatGray:    astiav.PixelFormatGray8,
}

func toAVPixelFormat(p ports.PixelFormat) (astiav.PixelFormat, error) {
	f, ok := pixelFormats[p]
	if !ok {
		return astiav.PixelFormatNone, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p)
	}
	return f, nil
}

func fromAVPixelFormat(f astiav.PixelFormat) ports.PixelFormat {
	if f == astiav.PixelFormatYuvj420P {
		return ports.PixelFormatYUV420P
	}
	for k, v := range pixelFormats {
		if v == f {
			return k
		}
	}
	return ports.PixelFormatNone
}

var (
	_ ports.MediaBackend   = (*MediaBackend)(nil)
	_ ports.EncoderBackend = (*EncoderBackend)(nil)
)
