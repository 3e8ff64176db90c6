package thumbnail

import "errors"

// Setup errors returned by Initialize, or by the first EncodeFrame when
// Initialize was skipped.
var (
	ErrEncoderUnavailable = errors.New("thumbnail: encoder unavailable")
	ErrEncoderInitFailed  = errors.New("thumbnail: encoder init failed")
)

// Per-frame errors returned by EncodeFrame.
var (
	ErrEncoderReconfigFailed = errors.New("thumbnail: encoder reconfiguration failed")
	ErrColorConversionFailed = errors.New("thumbnail: color conversion failed")
	ErrEncodeFailed          = errors.New("thumbnail: encode failed")
)
