//go:build ffmpeg

package libav

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/keythumb/pkg/ports"
)

type imageCodec struct {
	codec    *astiav.Codec
	native   ports.PixelFormat
	avFormat astiav.PixelFormat
}

func (c *imageCodec) Name() string                         { return "libav:" + c.codec.Name() }
func (c *imageCodec) NativePixelFormat() ports.PixelFormat { return c.native }

func (c *imageCodec) Open(width, height int) (ports.ImageEncoder, error) {
	cc := astiav.AllocCodecContext(c.codec)
	if cc == nil {
		return nil, errors.New("libav: failed to allocate codec context")
	}
	cc.SetWidth(width)
	cc.SetHeight(height)
	cc.SetPixelFormat(c.avFormat)
	cc.SetTimeBase(astiav.NewRational(1, 25))
	if err := cc.Open(c.codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("libav: open %s encoder: %w", c.codec.Name(), err)
	}
	return &imageEncoder{cc: cc, width: width, height: height, avFormat: c.avFormat, pkt: astiav.AllocPacket()}, nil
}

type imageEncoder struct {
	cc       *astiav.CodecContext
	pkt      *astiav.Packet
	width    int
	height   int
	avFormat astiav.PixelFormat
}

func (e *imageEncoder) SendFrame(f *ports.Frame) error {
	if f.Width != e.width || f.Height != e.height {
		return fmt.Errorf("libav: frame %dx%d does not match encoder %dx%d", f.Width, f.Height, e.width, e.height)
	}
	af, err := toAVFrame(f, e.avFormat)
	if err != nil {
		return err
	}
	defer af.Free()
	return mapErr(e.cc.SendFrame(af))
}

func (e *imageEncoder) ReceivePacket() ([]byte, error) {
	if err := e.cc.ReceivePacket(e.pkt); err != nil {
		return nil, mapErr(err)
	}
	defer e.pkt.Unref()
	return append([]byte(nil), e.pkt.Data()...), nil
}

func (e *imageEncoder) Close() error {
	if e.cc == nil {
		return nil
	}
	e.pkt.Free()
	e.cc.Free()
	e.cc = nil
	return nil
}

// toAVFrame copies a frame into a newly allocated libav frame of avFormat.
func toAVFrame(f *ports.Frame, avFormat astiav.PixelFormat) (*astiav.Frame, error) {
	img, err := f.Image()
	if err != nil {
		return nil, err
	}
	af := astiav.AllocFrame()
	af.SetWidth(f.Width)
	af.SetHeight(f.Height)
	af.SetPixelFormat(avFormat)
	if err := af.AllocBuffer(1); err != nil {
		af.Free()
		return nil, fmt.Errorf("libav: alloc frame buffer: %w", err)
	}
	if err := af.Data().FromImage(img); err != nil {
		af.Free()
		return nil, fmt.Errorf("libav: frame from image: %w", err)
	}
	if f.PTS != ports.NoPTS {
		af.SetPts(f.PTS)
	}
	return af, nil
}

var (
	_ ports.ImageCodec   = (*imageCodec)(nil)
	_ ports.ImageEncoder = (*imageEncoder)(nil)
)
