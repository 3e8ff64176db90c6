package filesink

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/user/keythumb/pkg/mocks"
)

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		tmpl    string
		wantErr bool
	}{
		{"frame-%d.png", false},
		{"out/frame-%04d.jpg", false},
		{"100%%-%x.webp", false},
		{"frame.png", true},
		{"%d-%d.png", true},
		{"frame-%s.png", true},
		{"frame-%", true},
		{"%v.png", true},
	}
	for _, tt := range tests {
		err := ValidateTemplate(tt.tmpl)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTemplate(%q) error = %v, wantErr %v", tt.tmpl, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("ValidateTemplate(%q) error = %v, want ErrInvalidTemplate", tt.tmpl, err)
		}
	}
}

func TestSink_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink, err := New(filepath.Join("thumbs", "frame-%03d.png"), fs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		path, err := sink.Write(i, int64(i*90000), []byte{byte(i)})
		if err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
		want := filepath.Join("thumbs", fmt.Sprintf("frame-%03d.png", i))
		if path != want {
			t.Errorf("Write(%d) path = %q, want %q", i, path, want)
		}
		saved, ok := fs.File(want)
		if !ok || len(saved) != 1 || saved[0] != byte(i) {
			t.Errorf("file %s = %v, %v", want, saved, ok)
		}
	}
	if len(fs.Mkdirs) != 1 || fs.Mkdirs[0] != "thumbs" {
		t.Errorf("MkdirAll calls = %v, want one for thumbs", fs.Mkdirs)
	}
}

func TestSink_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	diskFull := errors.New("disk full")
	fs.WriteFileFunc = func(path string, data []byte) error { return diskFull }

	sink, err := New("frame-%d.png", fs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := sink.Write(0, 0, []byte("x")); !errors.Is(err, diskFull) {
		t.Errorf("Write() error = %v, want disk full", err)
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	if _, err := New("frame.png", mocks.NewFileSystem()); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("New() error = %v, want ErrInvalidTemplate", err)
	}
}
