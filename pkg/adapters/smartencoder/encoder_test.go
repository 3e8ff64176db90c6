package smartencoder

import (
	"errors"
	"testing"

	"github.com/user/keythumb/pkg/adapters/libav"
	"github.com/user/keythumb/pkg/mocks"
	"github.com/user/keythumb/pkg/ports"
)

func TestNew_Native(t *testing.T) {
	enc, err := New(Options{Backend: BackendNative})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tests := []struct {
		format ports.ImageFormat
		codec  string
		native ports.PixelFormat
	}{
		{ports.FormatPNG, "png", ports.PixelFormatRGBA},
		{ports.FormatJPEG, "jpeg", ports.PixelFormatYUV420P},
		{ports.FormatWebP, "webp", ports.PixelFormatRGBA},
	}
	for _, tt := range tests {
		c, info, err := enc.Lookup(tt.format)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", tt.format, err)
		}
		if c.NativePixelFormat() != tt.native {
			t.Errorf("%s native format = %s, want %s", tt.format, c.NativePixelFormat(), tt.native)
		}
		if info.Codec != tt.codec || info.Backend != BackendNative || info.FallbackUsed {
			t.Errorf("Lookup(%s) info = %+v", tt.format, info)
		}
	}

	if _, _, err := enc.Lookup("gif"); !errors.Is(err, ErrNoEncoderAvailable) {
		t.Errorf("Lookup(gif) error = %v, want ErrNoEncoderAvailable", err)
	}

	conv, err := enc.NewConverter(4, 4, ports.PixelFormatYUV420P, 2, 2, ports.PixelFormatRGBA)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	conv.Close()
}

func TestNew_LibavRequested(t *testing.T) {
	if libav.Available() {
		t.Skip("libav compiled in")
	}
	log := mocks.NewLogger()
	enc, err := New(Options{Backend: BackendLibav, Logger: log})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if log.Count(ports.LevelWarn) != 1 {
		t.Errorf("warnings = %d, want 1", log.Count(ports.LevelWarn))
	}
	_, info, err := enc.Lookup(ports.FormatPNG)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if info.Backend != BackendNative || info.RequestedBackend != BackendLibav {
		t.Errorf("info = %+v", info)
	}

	if _, err := New(Options{Backend: BackendLibav, DisableFallback: true}); !errors.Is(err, libav.ErrNotCompiled) {
		t.Errorf("New() without fallback error = %v, want ErrNotCompiled", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "gpu"}); err == nil {
		t.Error("New() error = nil for unknown backend")
	}
}

func TestEncoder_Fallback(t *testing.T) {
	primary := mocks.NewEncoderBackend(ports.PixelFormatRGB24)
	delete(primary.Codecs, ports.FormatWebP)
	log := mocks.NewLogger()
	enc := newEncoder(primary, BackendLibav, Native{}, BackendAuto, log)

	c, ok := enc.FindEncoder(ports.FormatPNG)
	if !ok || c.NativePixelFormat() != ports.PixelFormatRGB24 {
		t.Fatalf("FindEncoder(png) = %v, %v; want primary codec", c, ok)
	}
	if info, _ := enc.Info(ports.FormatPNG); info.Backend != BackendLibav || info.FallbackUsed {
		t.Errorf("png info = %+v", info)
	}

	for i := 0; i < 2; i++ {
		c, ok = enc.FindEncoder(ports.FormatWebP)
		if !ok || c.Name() != "webp" {
			t.Fatalf("FindEncoder(webp) = %v, %v; want native webp", c, ok)
		}
	}
	if info, _ := enc.Info(ports.FormatWebP); info.Backend != BackendNative || !info.FallbackUsed {
		t.Errorf("webp info = %+v", info)
	}
	if log.Count(ports.LevelWarn) != 1 {
		t.Errorf("warnings = %d, want 1 per format", log.Count(ports.LevelWarn))
	}
}

func TestEncoder_ConverterFallback(t *testing.T) {
	primary := mocks.NewEncoderBackend(ports.PixelFormatRGBA)
	primary.NewConverterFunc = func(call mocks.ConverterCall) (ports.ColorConverter, error) {
		return nil, errors.New("layout not supported")
	}

	enc := newEncoder(primary, BackendLibav, Native{}, BackendAuto, mocks.NewLogger())
	conv, err := enc.NewConverter(2, 2, ports.PixelFormatNV12, 2, 2, ports.PixelFormatRGBA)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	conv.Close()

	strict := newEncoder(primary, BackendLibav, nil, BackendLibav, mocks.NewLogger())
	if _, err := strict.NewConverter(2, 2, ports.PixelFormatNV12, 2, 2, ports.PixelFormatRGBA); err == nil {
		t.Error("NewConverter() without fallback error = nil")
	}
}
