package thumbnail

import (
	"errors"
	"testing"

	"github.com/user/keythumb/pkg/mocks"
	"github.com/user/keythumb/pkg/ports"
)

func newFrame(t *testing.T, w, h int, format ports.PixelFormat, pts int64) *ports.Frame {
	t.Helper()
	f, err := ports.NewFrame(w, h, format)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	f.PTS = pts
	return f
}

func TestInitialize(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGB24)
	e := New(backend, Options{Format: ports.FormatJPEG})
	defer e.Close()

	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if e.CodecName() != "jpeg" {
		t.Errorf("CodecName() = %q, want jpeg", e.CodecName())
	}
	if len(backend.Converters) != 1 {
		t.Fatalf("converters built = %d, want 1", len(backend.Converters))
	}
	want := mocks.ConverterCall{
		SrcWidth: 640, SrcHeight: 480, SrcFormat: ports.PixelFormatYUV420P,
		DstWidth: 640, DstHeight: 480, DstFormat: ports.PixelFormatRGB24,
	}
	if got := backend.Converters[0].Call; got != want {
		t.Errorf("converter built for %+v, want %+v", got, want)
	}
	if e.Reconfigurations() != 1 {
		t.Errorf("Reconfigurations() = %d, want 1", e.Reconfigurations())
	}
}

func TestInitialize_Errors(t *testing.T) {
	openErr := errors.New("no such codec option")

	t.Run("unavailable", func(t *testing.T) {
		backend := &mocks.EncoderBackend{}
		e := New(backend, Options{Format: ports.FormatWebP})
		if err := e.Initialize(); !errors.Is(err, ErrEncoderUnavailable) {
			t.Errorf("Initialize() error = %v, want ErrEncoderUnavailable", err)
		}
	})

	t.Run("encoder open fails", func(t *testing.T) {
		backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
		backend.Codecs[ports.FormatPNG].OpenFunc = func(w, h int) (ports.ImageEncoder, error) { return nil, openErr }
		e := New(backend, Options{})
		err := e.Initialize()
		if !errors.Is(err, ErrEncoderInitFailed) || !errors.Is(err, openErr) {
			t.Errorf("Initialize() error = %v, want ErrEncoderInitFailed wrapping %v", err, openErr)
		}
	})

	t.Run("converter fails", func(t *testing.T) {
		backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
		backend.NewConverterFunc = func(mocks.ConverterCall) (ports.ColorConverter, error) { return nil, openErr }
		e := New(backend, Options{})
		if err := e.Initialize(); !errors.Is(err, ErrEncoderInitFailed) {
			t.Errorf("Initialize() error = %v, want ErrEncoderInitFailed", err)
		}
		codec := backend.Codecs[ports.FormatPNG]
		if len(codec.Encoders) != 1 || codec.Encoders[0].CloseCalls != 1 {
			t.Error("encoder built before the failing converter was not closed")
		}
	})
}

func TestEncodeFrame_CacheHit(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	e := New(backend, Options{})
	defer e.Close()
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	var encoder *mocks.ImageEncoder
	for i := 0; i < 3; i++ {
		data, err := e.EncodeFrame(newFrame(t, 320, 240, ports.PixelFormatYUV420P, int64(i*100)))
		if err != nil {
			t.Fatalf("EncodeFrame(%d) error = %v", i, err)
		}
		if len(data) == 0 {
			t.Fatalf("EncodeFrame(%d) returned no data", i)
		}
		current := e.enc.(*mocks.ImageEncoder)
		if encoder != nil && current != encoder {
			t.Errorf("EncodeFrame(%d) replaced the encoder for identical geometry", i)
		}
		encoder = current
	}

	if e.Reconfigurations() != 2 {
		t.Errorf("Reconfigurations() = %d, want 2 (initialize + first frame)", e.Reconfigurations())
	}
	if len(encoder.Frames) != 3 {
		t.Errorf("encoder received %d frames, want 3", len(encoder.Frames))
	}
	if got := string(mustEncode(t, e, newFrame(t, 320, 240, ports.PixelFormatYUV420P, 7))); got != "img:320x240:rgba:7" {
		t.Errorf("encoded = %q, want img:320x240:rgba:7", got)
	}
}

func mustEncode(t *testing.T, e *Encoder, f *ports.Frame) []byte {
	t.Helper()
	data, err := e.EncodeFrame(f)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	return data
}

func TestEncodeFrame_NoInitialize(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatYUV420P)
	e := New(backend, Options{Format: ports.FormatJPEG})
	defer e.Close()

	mustEncode(t, e, newFrame(t, 64, 48, ports.PixelFormatYUV420P, 0))
	mustEncode(t, e, newFrame(t, 64, 48, ports.PixelFormatYUV420P, 1))
	if e.Reconfigurations() != 1 {
		t.Errorf("Reconfigurations() = %d, want 1", e.Reconfigurations())
	}
}

func TestEncodeFrame_Reconfigures(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	e := New(backend, Options{})
	defer e.Close()

	frames := []*ports.Frame{
		newFrame(t, 320, 240, ports.PixelFormatYUV420P, 0),
		newFrame(t, 320, 240, ports.PixelFormatNV12, 1),
		newFrame(t, 320, 240, ports.PixelFormatNV12, 2),
		newFrame(t, 640, 360, ports.PixelFormatNV12, 3),
		newFrame(t, 640, 362, ports.PixelFormatNV12, 4),
	}
	for _, f := range frames {
		mustEncode(t, e, f)
	}

	if e.Reconfigurations() != 4 {
		t.Errorf("Reconfigurations() = %d, want 4", e.Reconfigurations())
	}
	codec := backend.Codecs[ports.FormatPNG]
	if len(codec.Encoders) != 4 || len(backend.Converters) != 4 {
		t.Fatalf("built %d encoders and %d converters, want 4 each", len(codec.Encoders), len(backend.Converters))
	}
	for i := 0; i < 3; i++ {
		if codec.Encoders[i].CloseCalls != 1 || backend.Converters[i].CloseCalls != 1 {
			t.Errorf("pair %d not released on reconfiguration", i)
		}
	}
	last := backend.Converters[3].Call
	if last.SrcWidth != 640 || last.SrcHeight != 362 || last.SrcFormat != ports.PixelFormatNV12 {
		t.Errorf("last converter built for %+v", last)
	}
	if w, h := e.OutputSize(); w != 640 || h != 362 {
		t.Errorf("OutputSize() = %dx%d, want 640x362", w, h)
	}
}

func TestEncodeFrame_ReconfigureLogsReleaseFailure(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	log := mocks.NewLogger()
	e := New(backend, Options{Logger: log})
	defer e.Close()

	mustEncode(t, e, newFrame(t, 320, 240, ports.PixelFormatYUV420P, 0))
	codec := backend.Codecs[ports.FormatPNG]
	codec.Encoders[0].CloseFunc = func() error { return errors.New("close failed") }

	mustEncode(t, e, newFrame(t, 640, 360, ports.PixelFormatYUV420P, 1))
	if e.Reconfigurations() != 2 {
		t.Errorf("Reconfigurations() = %d, want 2", e.Reconfigurations())
	}
	if got := log.Count(ports.LevelWarn); got != 1 {
		t.Fatalf("warnings = %d, want 1", got)
	}
	for _, entry := range log.Entries() {
		if entry.Level == ports.LevelWarn && entry.Message != "Releasing previous encoder failed: close failed" {
			t.Errorf("warning = %q", entry.Message)
		}
	}
}

func TestEncodeFrame_ReconfigFailureKeepsCache(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	convErr := errors.New("unsupported layout")
	backend.NewConverterFunc = func(call mocks.ConverterCall) (ports.ColorConverter, error) {
		if call.SrcFormat == ports.PixelFormatNone {
			return nil, convErr
		}
		c := &mocks.ColorConverter{Call: call}
		backend.Converters = append(backend.Converters, c)
		return c, nil
	}
	e := New(backend, Options{})
	defer e.Close()

	mustEncode(t, e, newFrame(t, 320, 240, ports.PixelFormatYUV420P, 0))
	before := e.enc

	bad := &ports.Frame{Width: 100, Height: 100, Format: ports.PixelFormatNone}
	_, err := e.EncodeFrame(bad)
	if !errors.Is(err, ErrEncoderReconfigFailed) || !errors.Is(err, convErr) {
		t.Fatalf("EncodeFrame() error = %v, want ErrEncoderReconfigFailed wrapping %v", err, convErr)
	}
	if e.enc != before || e.input != (geometry{320, 240, ports.PixelFormatYUV420P}) {
		t.Error("failed reconfiguration replaced the cached encoder")
	}
	codec := backend.Codecs[ports.FormatPNG]
	if abandoned := codec.Encoders[len(codec.Encoders)-1]; abandoned.CloseCalls != 1 {
		t.Error("encoder of the failed reconfiguration was not closed")
	}

	mustEncode(t, e, newFrame(t, 320, 240, ports.PixelFormatYUV420P, 1))
	if e.Reconfigurations() != 1 {
		t.Errorf("Reconfigurations() = %d, want 1", e.Reconfigurations())
	}
}

func TestEncodeFrame_ShortConversion(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	backend.ConvertFunc = func(src, dst *ports.Frame) (int, error) {
		return dst.Height - 1, nil
	}
	e := New(backend, Options{})
	defer e.Close()

	_, err := e.EncodeFrame(newFrame(t, 32, 32, ports.PixelFormatYUV420P, 0))
	if !errors.Is(err, ErrColorConversionFailed) {
		t.Fatalf("EncodeFrame() error = %v, want ErrColorConversionFailed", err)
	}
	if enc := e.enc.(*mocks.ImageEncoder); len(enc.Frames) != 0 {
		t.Error("partially converted frame reached the encoder")
	}
}

func TestEncodeFrame_EncodeErrors(t *testing.T) {
	sendErr := errors.New("frame rejected")

	tests := []struct {
		name  string
		setup func(c *mocks.ImageCodec)
	}{
		{
			name: "send fails",
			setup: func(c *mocks.ImageCodec) {
				c.OpenFunc = func(w, h int) (ports.ImageEncoder, error) {
					return &mocks.ImageEncoder{SendFrameFunc: func(*ports.Frame) error { return sendErr }}, nil
				}
			},
		},
		{
			name: "no packet",
			setup: func(c *mocks.ImageCodec) {
				c.OpenFunc = func(w, h int) (ports.ImageEncoder, error) {
					return &mocks.ImageEncoder{ReceivePacketFunc: func() ([]byte, error) { return nil, ports.ErrAgain }}, nil
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
			tt.setup(backend.Codecs[ports.FormatPNG])
			e := New(backend, Options{})
			defer e.Close()

			if _, err := e.EncodeFrame(newFrame(t, 16, 16, ports.PixelFormatRGBA, 0)); !errors.Is(err, ErrEncodeFailed) {
				t.Errorf("EncodeFrame() error = %v, want ErrEncodeFailed", err)
			}
		})
	}

	e := New(mocks.NewEncoderBackend(ports.PixelFormatRGBA), Options{})
	if _, err := e.EncodeFrame(nil); !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("EncodeFrame(nil) error = %v, want ErrEncodeFailed", err)
	}
}

func TestEncodeFrame_ScalesToWidth(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		srcW, srcH   int
		wantW, wantH int
	}{
		{"downscale 16:9", 320, 1280, 720, 320, 180},
		{"odd target width", 321, 1280, 720, 320, 180},
		{"odd source", 320, 1001, 563, 320, 180},
		{"same width", 640, 640, 363, 640, 363},
		{"no scaling", 0, 99, 77, 99, 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
			e := New(backend, Options{Width: tt.width})
			defer e.Close()

			mustEncode(t, e, newFrame(t, tt.srcW, tt.srcH, ports.PixelFormatYUV444P, 0))
			call := backend.Converters[0].Call
			if call.DstWidth != tt.wantW || call.DstHeight != tt.wantH {
				t.Errorf("converter output %dx%d, want %dx%d", call.DstWidth, call.DstHeight, tt.wantW, tt.wantH)
			}
			enc := backend.Codecs[ports.FormatPNG].Encoders[0]
			if enc.Width != tt.wantW || enc.Height != tt.wantH {
				t.Errorf("encoder opened at %dx%d, want %dx%d", enc.Width, enc.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestClose(t *testing.T) {
	backend := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	e := New(backend, Options{})
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if backend.Codecs[ports.FormatPNG].Encoders[0].CloseCalls != 1 || backend.Converters[0].CloseCalls != 1 {
		t.Error("Close() did not release the encoder and converter exactly once")
	}
}
