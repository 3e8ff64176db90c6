package mocks

import (
	"io"

	"github.com/user/keythumb/pkg/ports"
)

// Demuxer is a mock implementation of ports.Demuxer. By default it returns
// Packets in order followed by io.EOF.
type Demuxer struct {
	StreamList     []ports.StreamInfo
	Packets        []*ports.Packet
	ReadPacketFunc func() (*ports.Packet, error)
	CloseFunc      func() error

	// Recorded calls for verification
	ReadCalls  int
	CloseCalls int

	pos int
}

func (m *Demuxer) Streams() []ports.StreamInfo {
	return m.StreamList
}

func (m *Demuxer) ReadPacket() (*ports.Packet, error) {
	m.ReadCalls++
	if m.ReadPacketFunc != nil {
		return m.ReadPacketFunc()
	}
	if m.pos >= len(m.Packets) {
		return nil, io.EOF
	}
	pkt := m.Packets[m.pos]
	m.pos++
	return pkt, nil
}

func (m *Demuxer) Close() error {
	m.CloseCalls++
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.Demuxer = (*Demuxer)(nil)

// VideoDecoder is a mock implementation of ports.VideoDecoder.
//
// By default every sent packet produces one Width x Height frame carrying the
// packet's pts. Delay frames are held back until more packets arrive or the
// decoder is flushed, which models decoder reordering latency.
type VideoDecoder struct {
	Width  int
	Height int
	Format ports.PixelFormat
	Delay  int

	SendPacketFunc   func(pkt *ports.Packet) error
	ReceiveFrameFunc func() (*ports.Frame, error)
	CloseFunc        func() error

	// Recorded calls for verification
	Sent         []*ports.Packet
	Flushes      int
	ReceiveCalls int
	CloseCalls   int

	pending []int64
	flushed bool
}

func (m *VideoDecoder) SendPacket(pkt *ports.Packet) error {
	if m.SendPacketFunc != nil {
		return m.SendPacketFunc(pkt)
	}
	if pkt == nil {
		m.Flushes++
		m.flushed = true
		return nil
	}
	m.Sent = append(m.Sent, pkt)
	m.pending = append(m.pending, pkt.PTS)
	return nil
}

func (m *VideoDecoder) ReceiveFrame() (*ports.Frame, error) {
	m.ReceiveCalls++
	if m.ReceiveFrameFunc != nil {
		return m.ReceiveFrameFunc()
	}
	if len(m.pending) == 0 {
		if m.flushed {
			return nil, io.EOF
		}
		return nil, ports.ErrAgain
	}
	if !m.flushed && len(m.pending) <= m.Delay {
		return nil, ports.ErrAgain
	}
	pts := m.pending[0]
	m.pending = m.pending[1:]
	return m.frame(pts)
}

func (m *VideoDecoder) frame(pts int64) (*ports.Frame, error) {
	w, h, format := m.Width, m.Height, m.Format
	if w == 0 {
		w = 16
	}
	if h == 0 {
		h = 16
	}
	if format == "" {
		format = ports.PixelFormatYUV420P
	}
	f, err := ports.NewFrame(w, h, format)
	if err != nil {
		return nil, err
	}
	f.PTS = pts
	return f, nil
}

func (m *VideoDecoder) Close() error {
	m.CloseCalls++
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.VideoDecoder = (*VideoDecoder)(nil)

// DecoderCodec is a mock implementation of ports.DecoderCodec.
type DecoderCodec struct {
	CodecName string
	Decoder   *VideoDecoder
	OpenFunc  func(params ports.CodecParameters) (ports.VideoDecoder, error)

	// Recorded calls for verification
	OpenCalls []ports.CodecParameters
}

func (m *DecoderCodec) Name() string {
	if m.CodecName == "" {
		return "mock"
	}
	return m.CodecName
}

func (m *DecoderCodec) Open(params ports.CodecParameters) (ports.VideoDecoder, error) {
	m.OpenCalls = append(m.OpenCalls, params)
	if m.OpenFunc != nil {
		return m.OpenFunc(params)
	}
	if m.Decoder == nil {
		m.Decoder = &VideoDecoder{Width: params.Width, Height: params.Height}
	}
	return m.Decoder, nil
}

var _ ports.DecoderCodec = (*DecoderCodec)(nil)

// MediaBackend is a mock implementation of ports.MediaBackend.
type MediaBackend struct {
	Demuxer           *Demuxer
	Decoders          map[ports.CodecID]*DecoderCodec
	OpenContainerFunc func(path string) (ports.Demuxer, error)

	// Recorded calls for verification
	OpenedPaths []string
	LookedUpIDs []ports.CodecID
}

func (m *MediaBackend) OpenContainer(path string) (ports.Demuxer, error) {
	m.OpenedPaths = append(m.OpenedPaths, path)
	if m.OpenContainerFunc != nil {
		return m.OpenContainerFunc(path)
	}
	if m.Demuxer == nil {
		m.Demuxer = &Demuxer{}
	}
	return m.Demuxer, nil
}

func (m *MediaBackend) FindDecoder(id ports.CodecID) (ports.DecoderCodec, bool) {
	m.LookedUpIDs = append(m.LookedUpIDs, id)
	c, ok := m.Decoders[id]
	if !ok {
		return nil, false
	}
	return c, true
}

var _ ports.MediaBackend = (*MediaBackend)(nil)

// VideoStream returns a video stream description for tests.
func VideoStream(index int, codec ports.CodecID, timeBase ports.Rational, width, height int) ports.StreamInfo {
	return ports.StreamInfo{
		Index:     index,
		MediaType: ports.MediaTypeVideo,
		TimeBase:  timeBase,
		Codec: ports.CodecParameters{
			CodecID:     codec,
			Width:       width,
			Height:      height,
			PixelFormat: ports.PixelFormatYUV420P,
		},
	}
}

// Keyframe returns a keyframe packet for tests.
func Keyframe(stream int, pts int64) *ports.Packet {
	return &ports.Packet{StreamIndex: stream, PTS: pts, DTS: pts, Keyframe: true, Data: []byte{0x00}}
}

// DeltaFrame returns a non-keyframe packet for tests.
func DeltaFrame(stream int, pts int64) *ports.Packet {
	return &ports.Packet{StreamIndex: stream, PTS: pts, DTS: pts, Data: []byte{0x01}}
}
