package av1decoder

import (
	"errors"
	"io"
	"testing"

	"github.com/user/keythumb/pkg/ports"
)

func TestDecoder_Init(t *testing.T) {
	decoder := New()
	if err := decoder.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	decoder.Close()
}

func TestDecoder_SendWithoutInit(t *testing.T) {
	decoder := New()
	if err := decoder.SendPacket(&ports.Packet{Data: []byte{0x00}}); err == nil {
		t.Error("expected error when decoding without Init")
	}
}

func TestDecoder_EmptyPacket(t *testing.T) {
	decoder := New()
	if err := decoder.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer decoder.Close()

	if err := decoder.SendPacket(&ports.Packet{}); err == nil {
		t.Error("expected error when decoding empty data")
	}
}

func TestDecoder_FlushWithoutInput(t *testing.T) {
	decoder := New()
	if err := decoder.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer decoder.Close()

	if _, err := decoder.ReceiveFrame(); !errors.Is(err, ports.ErrAgain) {
		t.Errorf("ReceiveFrame() before input error = %v, want ErrAgain", err)
	}
	if err := decoder.SendPacket(nil); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, err := decoder.ReceiveFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("ReceiveFrame() after flush error = %v, want io.EOF", err)
	}
}

func TestDecoder_Close(t *testing.T) {
	decoder := New()
	if err := decoder.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	decoder.Close()
	decoder.Close()
}

func TestCodec_Open(t *testing.T) {
	codec := NewCodec()
	if codec.Name() != "libaom" {
		t.Errorf("Name() = %q", codec.Name())
	}
	if _, err := codec.Open(ports.CodecParameters{CodecID: ports.CodecH264}); err == nil {
		t.Error("Open(h264) error = nil")
	}
	dec, err := codec.Open(ports.CodecParameters{CodecID: ports.CodecAV1, Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("Open(av1) error = %v", err)
	}
	dec.Close()
}
