// Package ffmpegdecoder decodes H.264 and HEVC keyframes by piping each
// packet through the system ffmpeg binary.
package ffmpegdecoder

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegdecoder: ffmpeg not found")

	// ErrDecodeFailed is returned when ffmpeg fails or produces a short picture.
	ErrDecodeFailed = errors.New("ffmpegdecoder: decode failed")

	// ErrUnsupportedCodec is returned for codecs ffmpeg is not used for.
	ErrUnsupportedCodec = errors.New("ffmpegdecoder: unsupported codec")
)

// EnvFFmpegPath names the environment variable consulted for the binary.
const EnvFFmpegPath = "FFMPEG_PATH"

// FindFFmpeg locates the ffmpeg binary: custom path first, then
// $FFMPEG_PATH, then PATH, then common install locations.
func FindFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}
	if env := os.Getenv(EnvFFmpegPath); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, nil
		}
		return "", fmt.Errorf("%w: %s=%s not found", ErrFFmpegNotFound, EnvFFmpegPath, env)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// runFunc runs a binary with stdin and returns its stdout.
type runFunc func(path string, args []string, stdin []byte) ([]byte, error)

func runFFmpeg(path string, args []string, stdin []byte) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(path, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
