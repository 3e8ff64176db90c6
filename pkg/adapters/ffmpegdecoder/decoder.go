package ffmpegdecoder

import (
	"fmt"
	"io"

	"github.com/user/keythumb/pkg/adapters/annexb"
	"github.com/user/keythumb/pkg/ports"
)

// Codec opens ffmpeg-backed decoders for one codec.
type Codec struct {
	id         ports.CodecID
	ffmpegPath string
	run        runFunc
}

// NewCodec returns a decoder codec for H.264 or HEVC using the ffmpeg
// binary at ffmpegPath.
func NewCodec(id ports.CodecID, ffmpegPath string) (*Codec, error) {
	if _, ok := demuxerFormat(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, id)
	}
	return &Codec{id: id, ffmpegPath: ffmpegPath, run: runFFmpeg}, nil
}

func demuxerFormat(id ports.CodecID) (string, bool) {
	switch id {
	case ports.CodecH264:
		return "h264", true
	case ports.CodecHEVC:
		return "hevc", true
	}
	return "", false
}

func (c *Codec) Name() string { return "ffmpeg" }

// Open creates a decoder. The stream dimensions must be known because the
// raw output carries none.
func (c *Codec) Open(params ports.CodecParameters) (ports.VideoDecoder, error) {
	if params.CodecID != c.id {
		return nil, fmt.Errorf("%w: %s decoder given %s stream", ErrUnsupportedCodec, c.id, params.CodecID)
	}
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("ffmpegdecoder: stream size unknown (%dx%d)", params.Width, params.Height)
	}
	format, _ := demuxerFormat(c.id)
	return &Decoder{
		ffmpegPath: c.ffmpegPath,
		format:     format,
		width:      params.Width,
		height:     params.Height,
		extraData:  params.ExtraData,
		run:        c.run,
	}, nil
}

var _ ports.DecoderCodec = (*Codec)(nil)

type queuedPacket struct {
	data []byte
	pts  int64
}

// Decoder decodes every queued packet independently, so only keyframes
// produce pictures.
type Decoder struct {
	ffmpegPath string
	format     string
	width      int
	height     int
	extraData  []byte
	run        runFunc

	queue   []queuedPacket
	flushed bool
}

// SendPacket queues a packet. A nil packet marks the end of input.
func (d *Decoder) SendPacket(pkt *ports.Packet) error {
	if pkt == nil {
		d.flushed = true
		return nil
	}
	if d.flushed {
		return fmt.Errorf("ffmpegdecoder: packet sent after flush")
	}

	data := pkt.Data
	if !annexb.HasStartCode(data) {
		data = annexb.FromAVCC(data)
	}
	if pkt.Keyframe && len(d.extraData) > 0 {
		withParams := make([]byte, 0, len(d.extraData)+len(data))
		withParams = append(withParams, d.extraData...)
		data = append(withParams, data...)
	}
	d.queue = append(d.queue, queuedPacket{data: data, pts: pkt.PTS})
	return nil
}

// ReceiveFrame decodes the oldest queued packet.
func (d *Decoder) ReceiveFrame() (*ports.Frame, error) {
	if len(d.queue) == 0 {
		if d.flushed {
			return nil, io.EOF
		}
		return nil, ports.ErrAgain
	}
	pkt := d.queue[0]
	d.queue = d.queue[1:]

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", d.format,
		"-i", "pipe:0",
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"pipe:1",
	}
	out, err := d.run(d.ffmpegPath, args, pkt.data)
	if err != nil {
		return nil, fmt.Errorf("%w: pts=%d: %w", ErrDecodeFailed, pkt.pts, err)
	}
	size := ports.PackedSize(d.width, d.height, ports.PixelFormatYUV420P)
	if len(out) < size {
		return nil, fmt.Errorf("%w: pts=%d: got %d bytes, want %d for %dx%d",
			ErrDecodeFailed, pkt.pts, len(out), size, d.width, d.height)
	}

	frame, err := ports.NewFrameFromPacked(d.width, d.height, ports.PixelFormatYUV420P, out[:size])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	frame.PTS = pkt.pts
	return frame, nil
}

// Close drops queued packets.
func (d *Decoder) Close() error {
	d.queue = nil
	return nil
}

var _ ports.VideoDecoder = (*Decoder)(nil)
