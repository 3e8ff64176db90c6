package mocks

import (
	"fmt"

	"github.com/user/keythumb/pkg/ports"
)

// ImageEncoder is a mock implementation of ports.ImageEncoder. It encodes
// each frame as a short descriptive string.
type ImageEncoder struct {
	Width  int
	Height int

	SendFrameFunc     func(frame *ports.Frame) error
	ReceivePacketFunc func() ([]byte, error)
	CloseFunc         func() error

	// Recorded calls for verification
	Frames     []*ports.Frame
	CloseCalls int

	pending []byte
}

func (m *ImageEncoder) SendFrame(frame *ports.Frame) error {
	m.Frames = append(m.Frames, frame)
	if m.SendFrameFunc != nil {
		return m.SendFrameFunc(frame)
	}
	m.pending = []byte(fmt.Sprintf("img:%dx%d:%s:%d", frame.Width, frame.Height, frame.Format, frame.PTS))
	return nil
}

func (m *ImageEncoder) ReceivePacket() ([]byte, error) {
	if m.ReceivePacketFunc != nil {
		return m.ReceivePacketFunc()
	}
	if m.pending == nil {
		return nil, ports.ErrAgain
	}
	out := m.pending
	m.pending = nil
	return out, nil
}

func (m *ImageEncoder) Close() error {
	m.CloseCalls++
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.ImageEncoder = (*ImageEncoder)(nil)

// ImageCodec is a mock implementation of ports.ImageCodec.
type ImageCodec struct {
	CodecName string
	Native    ports.PixelFormat
	OpenFunc  func(width, height int) (ports.ImageEncoder, error)

	// Encoders holds every encoder opened, in order.
	Encoders []*ImageEncoder
}

func (m *ImageCodec) Name() string {
	if m.CodecName == "" {
		return "mock"
	}
	return m.CodecName
}

func (m *ImageCodec) NativePixelFormat() ports.PixelFormat {
	if m.Native == "" {
		return ports.PixelFormatRGBA
	}
	return m.Native
}

func (m *ImageCodec) Open(width, height int) (ports.ImageEncoder, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(width, height)
	}
	enc := &ImageEncoder{Width: width, Height: height}
	m.Encoders = append(m.Encoders, enc)
	return enc, nil
}

var _ ports.ImageCodec = (*ImageCodec)(nil)

// ColorConverter is a mock implementation of ports.ColorConverter. By
// default it reports every destination row as converted.
type ColorConverter struct {
	Call ConverterCall

	ConvertFunc func(src, dst *ports.Frame) (int, error)

	// Recorded calls for verification
	ConvertCalls int
	CloseCalls   int
}

// ConverterCall records the geometry a converter was built for.
type ConverterCall struct {
	SrcWidth, SrcHeight int
	SrcFormat           ports.PixelFormat
	DstWidth, DstHeight int
	DstFormat           ports.PixelFormat
}

func (m *ColorConverter) Convert(src, dst *ports.Frame) (int, error) {
	m.ConvertCalls++
	if m.ConvertFunc != nil {
		return m.ConvertFunc(src, dst)
	}
	dst.PTS = src.PTS
	return dst.Height, nil
}

func (m *ColorConverter) Close() error {
	m.CloseCalls++
	return nil
}

var _ ports.ColorConverter = (*ColorConverter)(nil)

// EncoderBackend is a mock implementation of ports.EncoderBackend.
type EncoderBackend struct {
	Codecs           map[ports.ImageFormat]*ImageCodec
	NewConverterFunc func(call ConverterCall) (ports.ColorConverter, error)
	ConvertFunc      func(src, dst *ports.Frame) (int, error)

	// Converters holds every converter built, in order.
	Converters []*ColorConverter
}

// NewEncoderBackend returns a backend offering one mock codec per format.
func NewEncoderBackend(native ports.PixelFormat) *EncoderBackend {
	return &EncoderBackend{Codecs: map[ports.ImageFormat]*ImageCodec{
		ports.FormatPNG:  {CodecName: "png", Native: native},
		ports.FormatJPEG: {CodecName: "jpeg", Native: native},
		ports.FormatWebP: {CodecName: "webp", Native: native},
	}}
}

func (m *EncoderBackend) FindEncoder(format ports.ImageFormat) (ports.ImageCodec, bool) {
	c, ok := m.Codecs[format]
	if !ok {
		return nil, false
	}
	return c, true
}

func (m *EncoderBackend) NewConverter(srcW, srcH int, srcFormat ports.PixelFormat, dstW, dstH int, dstFormat ports.PixelFormat) (ports.ColorConverter, error) {
	call := ConverterCall{
		SrcWidth: srcW, SrcHeight: srcH, SrcFormat: srcFormat,
		DstWidth: dstW, DstHeight: dstH, DstFormat: dstFormat,
	}
	if m.NewConverterFunc != nil {
		return m.NewConverterFunc(call)
	}
	c := &ColorConverter{Call: call, ConvertFunc: m.ConvertFunc}
	m.Converters = append(m.Converters, c)
	return c, nil
}

var _ ports.EncoderBackend = (*EncoderBackend)(nil)
