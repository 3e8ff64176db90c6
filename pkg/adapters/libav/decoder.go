//go:build ffmpeg

package libav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"

	"github.com/user/keythumb/pkg/ports"
)

type decoderCodec struct {
	codec *astiav.Codec
}

func (c *decoderCodec) Name() string { return "libav:" + c.codec.Name() }

// Open needs the native codec parameters of a libav demuxer stream.
func (c *decoderCodec) Open(params ports.CodecParameters) (ports.VideoDecoder, error) {
	cp, ok := params.Native.(*astiav.CodecParameters)
	if !ok || cp == nil {
		return nil, errors.New("libav: stream was not opened by the libav demuxer")
	}
	cc := astiav.AllocCodecContext(c.codec)
	if cc == nil {
		return nil, errors.New("libav: failed to allocate codec context")
	}
	if err := cc.FromCodecParameters(cp); err != nil {
		cc.Free()
		return nil, fmt.Errorf("libav: copy codec parameters: %w", err)
	}
	if err := cc.Open(c.codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("libav: open decoder: %w", err)
	}
	return &decoder{cc: cc, pkt: astiav.AllocPacket(), frame: astiav.AllocFrame()}, nil
}

type decoder struct {
	cc    *astiav.CodecContext
	pkt   *astiav.Packet
	frame *astiav.Frame
}

func (d *decoder) SendPacket(p *ports.Packet) error {
	if p == nil {
		return mapErr(d.cc.SendPacket(nil))
	}
	if err := d.pkt.FromData(p.Data); err != nil {
		return fmt.Errorf("libav: packet from data: %w", err)
	}
	defer d.pkt.Unref()
	d.pkt.SetPts(p.PTS)
	d.pkt.SetDts(p.DTS)
	if p.Keyframe {
		d.pkt.SetFlags(d.pkt.Flags().Add(astiav.PacketFlagKey))
	}
	return mapErr(d.cc.SendPacket(d.pkt))
}

func (d *decoder) ReceiveFrame() (*ports.Frame, error) {
	if err := d.cc.ReceiveFrame(d.frame); err != nil {
		return nil, mapErr(err)
	}
	defer d.frame.Unref()

	img, err := d.frame.Data().GuessImageFormat()
	if err != nil {
		return nil, fmt.Errorf("libav: guess image format: %w", err)
	}
	if err := d.frame.Data().ToImage(img); err != nil {
		return nil, fmt.Errorf("libav: frame to image: %w", err)
	}
	return ports.FrameFromImage(img, d.frame.Pts())
}

func (d *decoder) Close() error {
	if d.cc == nil {
		return nil
	}
	d.frame.Free()
	d.pkt.Free()
	d.cc.Free()
	d.cc = nil
	return nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEagain):
		return ports.ErrAgain
	case errors.Is(err, astiav.ErrEof):
		return io.EOF
	}
	return err
}

var (
	_ ports.DecoderCodec = (*decoderCodec)(nil)
	_ ports.VideoDecoder = (*decoder)(nil)
)
