package keyframe

import "errors"

// Setup errors returned by Open.
var (
	ErrOpenFailed         = errors.New("keyframe: open container failed")
	ErrNoVideoStream      = errors.New("keyframe: no video stream")
	ErrNoDecoderAvailable = errors.New("keyframe: no decoder available")
	ErrDecoderInitFailed  = errors.New("keyframe: decoder init failed")
)

// Errors returned by NextFrame.
var (
	ErrReadFailed   = errors.New("keyframe: read packet failed")
	ErrDecodeFailed = errors.New("keyframe: decode failed")
)
