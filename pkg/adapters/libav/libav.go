// Package libav provides media and encoder backends over the FFmpeg
// libraries through go-astiav. It is compiled only with -tags ffmpeg;
// otherwise Available reports false and the constructors fail.
package libav

import "errors"

var (
	// ErrNotCompiled is returned when the binary was built without -tags ffmpeg.
	ErrNotCompiled = errors.New("libav: built without -tags ffmpeg")

	// ErrUnsupportedFormat is returned for pixel formats the backend cannot map.
	ErrUnsupportedFormat = errors.New("libav: unsupported pixel format")
)
