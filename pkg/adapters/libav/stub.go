//go:build !ffmpeg

package libav

import "github.com/user/keythumb/pkg/ports"

// Available reports whether the FFmpeg libraries are linked in.
func Available() bool { return false }

// NewMediaBackend returns ErrNotCompiled.
func NewMediaBackend() (ports.MediaBackend, error) { return nil, ErrNotCompiled }

// NewEncoderBackend returns ErrNotCompiled.
func NewEncoderBackend() (ports.EncoderBackend, error) { return nil, ErrNotCompiled }
