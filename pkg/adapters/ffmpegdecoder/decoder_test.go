package ffmpegdecoder

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/keythumb/pkg/ports"
)

type fakeRun struct {
	calls  [][]string
	inputs [][]byte
	out    []byte
	err    error
}

func (f *fakeRun) run(path string, args []string, stdin []byte) ([]byte, error) {
	f.calls = append(f.calls, append([]string{path}, args...))
	f.inputs = append(f.inputs, stdin)
	return f.out, f.err
}

func openDecoder(t *testing.T, id ports.CodecID, fake *fakeRun, extra []byte) *Decoder {
	t.Helper()
	codec, err := NewCodec(id, "/opt/ffmpeg")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	codec.run = fake.run
	dec, err := codec.Open(ports.CodecParameters{CodecID: id, Width: 4, Height: 2, ExtraData: extra})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return dec.(*Decoder)
}

func TestDecoder_SendReceive(t *testing.T) {
	fake := &fakeRun{out: bytes.Repeat([]byte{7}, ports.PackedSize(4, 2, ports.PixelFormatYUV420P))}
	extra := []byte{0, 0, 0, 1, 0x67, 0, 0, 0, 1, 0x68}
	dec := openDecoder(t, ports.CodecH264, fake, extra)

	if _, err := dec.ReceiveFrame(); !errors.Is(err, ports.ErrAgain) {
		t.Fatalf("ReceiveFrame() on empty queue error = %v, want ErrAgain", err)
	}

	avcc := []byte{0, 0, 0, 2, 0x65, 0xaa}
	if err := dec.SendPacket(&ports.Packet{PTS: 3000, Keyframe: true, Data: avcc}); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	if err := dec.SendPacket(nil); err != nil {
		t.Fatalf("SendPacket(nil) error = %v", err)
	}

	frame, err := dec.ReceiveFrame()
	if err != nil {
		t.Fatalf("ReceiveFrame() error = %v", err)
	}
	if frame.PTS != 3000 || frame.Width != 4 || frame.Height != 2 || frame.Format != ports.PixelFormatYUV420P {
		t.Errorf("frame = %dx%d %s pts=%d", frame.Width, frame.Height, frame.Format, frame.PTS)
	}

	wantInput := append(append([]byte{}, extra...), 0, 0, 0, 1, 0x65, 0xaa)
	if !bytes.Equal(fake.inputs[0], wantInput) {
		t.Errorf("ffmpeg stdin = %x, want %x", fake.inputs[0], wantInput)
	}
	cmdline := strings.Join(fake.calls[0], " ")
	for _, want := range []string{"/opt/ffmpeg ", "-f h264", "-i pipe:0", "-frames:v 1", "-f rawvideo", "-pix_fmt yuv420p", "pipe:1"} {
		if !strings.Contains(cmdline, want) {
			t.Errorf("command %q missing %q", cmdline, want)
		}
	}

	if _, err := dec.ReceiveFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("ReceiveFrame() after flush error = %v, want io.EOF", err)
	}
	if err := dec.SendPacket(&ports.Packet{Data: avcc}); err == nil {
		t.Error("SendPacket() after flush error = nil")
	}
}

func TestDecoder_DeltaFrameHasNoParameterSets(t *testing.T) {
	fake := &fakeRun{out: make([]byte, ports.PackedSize(4, 2, ports.PixelFormatYUV420P))}
	dec := openDecoder(t, ports.CodecHEVC, fake, []byte{0, 0, 0, 1, 0x40})

	annexB := []byte{0, 0, 1, 0x02, 0x01}
	if err := dec.SendPacket(&ports.Packet{PTS: 1, Data: annexB}); err != nil {
		t.Fatalf("SendPacket() error = %v", err)
	}
	if _, err := dec.ReceiveFrame(); err != nil {
		t.Fatalf("ReceiveFrame() error = %v", err)
	}
	if !bytes.Equal(fake.inputs[0], annexB) {
		t.Errorf("ffmpeg stdin = %x, want %x unchanged", fake.inputs[0], annexB)
	}
	if !strings.Contains(strings.Join(fake.calls[0], " "), "-f hevc") {
		t.Errorf("command %v does not use the hevc demuxer", fake.calls[0])
	}
}

func TestDecoder_Failures(t *testing.T) {
	runErr := errors.New("exit status 1")
	tests := []struct {
		name string
		fake *fakeRun
	}{
		{"ffmpeg fails", &fakeRun{err: runErr}},
		{"short output", &fakeRun{out: make([]byte, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := openDecoder(t, ports.CodecH264, tt.fake, nil)
			if err := dec.SendPacket(&ports.Packet{Keyframe: true, Data: []byte{0, 0, 0, 1, 0x65}}); err != nil {
				t.Fatalf("SendPacket() error = %v", err)
			}
			if _, err := dec.ReceiveFrame(); !errors.Is(err, ErrDecodeFailed) {
				t.Errorf("ReceiveFrame() error = %v, want ErrDecodeFailed", err)
			}
		})
	}
}

func TestCodec_Open(t *testing.T) {
	if _, err := NewCodec(ports.CodecAV1, "ffmpeg"); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("NewCodec(av1) error = %v, want ErrUnsupportedCodec", err)
	}
	codec, err := NewCodec(ports.CodecH264, "ffmpeg")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	if _, err := codec.Open(ports.CodecParameters{CodecID: ports.CodecH264}); err == nil {
		t.Error("Open() without dimensions error = nil")
	}
	if _, err := codec.Open(ports.CodecParameters{CodecID: ports.CodecHEVC, Width: 2, Height: 2}); !errors.Is(err, ErrUnsupportedCodec) {
		t.Errorf("Open(hevc) on h264 codec error = %v, want ErrUnsupportedCodec", err)
	}
}

func TestFindFFmpeg(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg-custom")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got, err := FindFFmpeg(bin); err != nil || got != bin {
		t.Errorf("FindFFmpeg(custom) = %q, %v; want %q", got, err, bin)
	}
	if _, err := FindFFmpeg(filepath.Join(dir, "missing")); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("FindFFmpeg(missing) error = %v, want ErrFFmpegNotFound", err)
	}

	t.Setenv(EnvFFmpegPath, bin)
	if got, err := FindFFmpeg(""); err != nil || got != bin {
		t.Errorf("FindFFmpeg() with %s = %q, %v; want %q", EnvFFmpegPath, got, err, bin)
	}
	t.Setenv(EnvFFmpegPath, filepath.Join(dir, "missing"))
	if _, err := FindFFmpeg(""); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("FindFFmpeg() with bad %s error = %v, want ErrFFmpegNotFound", EnvFFmpegPath, err)
	}
}
