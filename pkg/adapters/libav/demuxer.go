//go:build ffmpeg

package libav

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"

	"github.com/user/keythumb/pkg/ports"
)

// Demuxer reads packets through libavformat.
type Demuxer struct {
	fc      *astiav.FormatContext
	pkt     *astiav.Packet
	streams []ports.StreamInfo
}

// OpenDemuxer opens a container and probes its streams.
func OpenDemuxer(path string) (*Demuxer, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errors.New("libav: failed to allocate format context")
	}
	if err := fc.OpenInput(path, nil, nil); err != nil {
		fc.Free()
		return nil, fmt.Errorf("libav: open input: %w", err)
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		fc.CloseInput()
		fc.Free()
		return nil, fmt.Errorf("libav: find stream info: %w", err)
	}

	d := &Demuxer{fc: fc, pkt: astiav.AllocPacket()}
	for _, s := range fc.Streams() {
		cp := s.CodecParameters()
		tb := s.TimeBase()
		info := ports.StreamInfo{
			Index:    s.Index(),
			TimeBase: ports.Rational{Num: tb.Num(), Den: tb.Den()},
			Codec: ports.CodecParameters{
				CodecID:     codecFromAV(cp.CodecID()),
				Width:       cp.Width(),
				Height:      cp.Height(),
				PixelFormat: fromAVPixelFormat(cp.PixelFormat()),
				ExtraData:   cp.ExtraData(),
				Native:      cp,
			},
		}
		switch cp.MediaType() {
		case astiav.MediaTypeVideo:
			info.MediaType = ports.MediaTypeVideo
		case astiav.MediaTypeAudio:
			info.MediaType = ports.MediaTypeAudio
		case astiav.MediaTypeData:
			info.MediaType = ports.MediaTypeData
		}
		d.streams = append(d.streams, info)
	}
	return d, nil
}

func (d *Demuxer) Streams() []ports.StreamInfo { return d.streams }

// ReadPacket returns the next packet. The PTS falls back to the DTS.
func (d *Demuxer) ReadPacket() (*ports.Packet, error) {
	if err := d.fc.ReadFrame(d.pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("libav: read frame: %w", err)
	}
	defer d.pkt.Unref()

	pkt := &ports.Packet{
		StreamIndex: d.pkt.StreamIndex(),
		PTS:         d.pkt.Pts(),
		DTS:         d.pkt.Dts(),
		Keyframe:    d.pkt.Flags().Has(astiav.PacketFlagKey),
		Data:        append([]byte(nil), d.pkt.Data()...),
	}
	if pkt.DTS == astiav.NoPtsValue {
		pkt.DTS = ports.NoPTS
	}
	if pkt.PTS == astiav.NoPtsValue {
		pkt.PTS = pkt.DTS
	}
	return pkt, nil
}

func (d *Demuxer) Close() error {
	if d.fc == nil {
		return nil
	}
	d.pkt.Free()
	d.fc.CloseInput()
	d.fc.Free()
	d.fc = nil
	return nil
}

var _ ports.Demuxer = (*Demuxer)(nil)
