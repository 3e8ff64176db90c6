// Package filesink writes thumbnails to files named by a printf template.
package filesink

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/keythumb/pkg/ports"
)

// ErrInvalidTemplate is returned for templates without exactly one integer verb.
var ErrInvalidTemplate = errors.New("filesink: output template must contain exactly one integer verb")

// ValidateTemplate checks that tmpl formats a single integer, such as
// "thumbs/frame-%04d.png". Literal percent signs are written as %%.
func ValidateTemplate(tmpl string) error {
	verbs := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		i++
		if i < len(tmpl) && tmpl[i] == '%' {
			continue
		}
		for i < len(tmpl) && strings.IndexByte("+-# 0123456789", tmpl[i]) >= 0 {
			i++
		}
		if i >= len(tmpl) || strings.IndexByte("dxXob", tmpl[i]) < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTemplate, tmpl)
		}
		verbs++
	}
	if verbs != 1 {
		return fmt.Errorf("%w: %q has %d", ErrInvalidTemplate, tmpl, verbs)
	}
	return nil
}

// Sink saves thumbnails to files.
type Sink struct {
	template string
	fs       ports.FileSystem
	dirs     map[string]bool
}

// New creates a new Sink.
func New(template string, fs ports.FileSystem) (*Sink, error) {
	if err := ValidateTemplate(template); err != nil {
		return nil, err
	}
	return &Sink{template: template, fs: fs, dirs: make(map[string]bool)}, nil
}

// Path returns the file path for index.
func (s *Sink) Path(index int) string {
	return fmt.Sprintf(s.template, index)
}

// Write saves data to the path for index, creating its directory.
func (s *Sink) Write(index int, pts int64, data []byte) (string, error) {
	path := s.Path(index)
	if dir := filepath.Dir(path); dir != "." && !s.dirs[dir] {
		if err := s.fs.MkdirAll(dir); err != nil {
			return "", fmt.Errorf("filesink: create %s: %w", dir, err)
		}
		s.dirs[dir] = true
	}
	if err := s.fs.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("filesink: write %s: %w", path, err)
	}
	return path, nil
}

// Ensure Sink implements ports.ThumbnailSink
var _ ports.ThumbnailSink = (*Sink)(nil)
