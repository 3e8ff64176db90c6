package orchestrator

import (
	"errors"

	"github.com/user/keythumb/pkg/keyframe"
	"github.com/user/keythumb/pkg/thumbnail"
)

// Process exit codes.
const (
	ExitOK                    = 0
	ExitFailure               = 1
	ExitUsage                 = 2
	ExitOpenFailed            = 10
	ExitNoVideoStream         = 11
	ExitNoDecoderAvailable    = 12
	ExitDecoderInitFailed     = 13
	ExitEncoderUnavailable    = 14
	ExitEncoderInitFailed     = 15
	ExitEncoderReconfigFailed = 20
	ExitColorConversionFailed = 21
	ExitEncodeFailed          = 22
	ExitWriteFailed           = 23
	ExitDecodeFailed          = 30
	ExitInterrupted           = 130
)

var exitCodes = []struct {
	err  error
	code int
}{
	{ErrInterrupted, ExitInterrupted},
	{ErrInvalidConfig, ExitUsage},
	{keyframe.ErrOpenFailed, ExitOpenFailed},
	{keyframe.ErrNoVideoStream, ExitNoVideoStream},
	{keyframe.ErrNoDecoderAvailable, ExitNoDecoderAvailable},
	{keyframe.ErrDecoderInitFailed, ExitDecoderInitFailed},
	{thumbnail.ErrEncoderUnavailable, ExitEncoderUnavailable},
	{thumbnail.ErrEncoderInitFailed, ExitEncoderInitFailed},
	{thumbnail.ErrEncoderReconfigFailed, ExitEncoderReconfigFailed},
	{thumbnail.ErrColorConversionFailed, ExitColorConversionFailed},
	{thumbnail.ErrEncodeFailed, ExitEncodeFailed},
	{ErrWriteFailed, ExitWriteFailed},
	{keyframe.ErrReadFailed, ExitDecodeFailed},
	{keyframe.ErrDecodeFailed, ExitDecodeFailed},
}

// ExitCode maps a Run error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return ExitFailure
}
