// Package orchestrator drives an extraction run: keyframe session,
// thumbnail encoding, sink writes and the optional contact sheet and manifest.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/keythumb/pkg/adapters/filesink"
	"github.com/user/keythumb/pkg/keyframe"
	"github.com/user/keythumb/pkg/pipeline"
	"github.com/user/keythumb/pkg/ports"
	"github.com/user/keythumb/pkg/summarizer"
	"github.com/user/keythumb/pkg/thumbnail"
)

var (
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("orchestrator: invalid configuration")
	// ErrWriteFailed is returned when the sink cannot store a thumbnail.
	ErrWriteFailed = errors.New("orchestrator: write failed")
	// ErrInterrupted is returned when the context is cancelled mid-run.
	ErrInterrupted = errors.New("orchestrator: interrupted")
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input
	InputPath       string
	IntervalSeconds int

	// Output
	OutputTemplate string
	Format         ports.ImageFormat
	Width          int
	// Backend is reported in the summary only.
	Backend string

	// ContinueOnEncodeError logs and skips frames that fail to encode
	// instead of ending the run.
	ContinueOnEncodeError bool

	// Contact sheet (empty path disables it)
	ContactSheetPath string
	ContactSheet     pipeline.ContactSheetInput

	// Summary manifest (empty path disables it)
	SummaryPath string

	// DryRun skips the contact sheet and summary files.
	DryRun bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		IntervalSeconds: 10,
		OutputTemplate:  "thumb-%04d.png",
		Format:          ports.FormatPNG,
		Backend:         "auto",
		ContactSheet:    pipeline.DefaultContactSheetInput(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfig)
	}
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidConfig, c.IntervalSeconds)
	}
	if err := filesink.ValidateTemplate(c.OutputTemplate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := ports.ParseImageFormat(string(c.Format)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Width < 0 {
		return fmt.Errorf("%w: width must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Thumbnail describes one written thumbnail.
type Thumbnail struct {
	Index       int
	PTS         int64
	TimestampMs int64
	Path        string
	Bytes       int
}

// Result contains the results of a run.
type Result struct {
	Thumbnails []Thumbnail
	// Skipped counts frames dropped by ContinueOnEncodeError.
	Skipped int

	Stream           ports.StreamInfo
	DecoderName      string
	Stats            keyframe.Stats
	ContactSheetPath string
	Summary          *summarizer.Summary
}

// Orchestrator coordinates the extraction.
type Orchestrator struct {
	media        ports.MediaBackend
	encoders     ports.EncoderBackend
	sink         ports.ThumbnailSink
	fs           ports.FileSystem
	contactSheet pipeline.ContactSheetStage
	logger       ports.Logger
}

// New creates a new Orchestrator. contactSheet may be nil when no sheet
// is ever requested.
func New(
	media ports.MediaBackend,
	encoders ports.EncoderBackend,
	sink ports.ThumbnailSink,
	fs ports.FileSystem,
	contactSheet pipeline.ContactSheetStage,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		media:        media,
		encoders:     encoders,
		sink:         sink,
		fs:           fs,
		contactSheet: contactSheet,
		logger:       logger,
	}
}

// Run extracts thumbnails until the input is exhausted or an error occurs.
func (o *Orchestrator) Run(ctx context.Context, config Config) (Result, error) {
	if err := config.Validate(); err != nil {
		return Result{}, err
	}

	o.logger.Info("Extracting keyframes from %s every %d s", config.InputPath, config.IntervalSeconds)
	session, err := keyframe.Open(o.media, config.InputPath, config.IntervalSeconds, keyframe.WithLogger(o.logger))
	if err != nil {
		return Result{}, err
	}
	defer session.Close()

	encoder := thumbnail.New(o.encoders, thumbnail.Options{Format: config.Format, Width: config.Width, Logger: o.logger})
	defer encoder.Close()
	if err := encoder.Initialize(); err != nil {
		return Result{}, err
	}

	stream := session.Stream()
	result := Result{Stream: stream, DecoderName: session.DecoderName()}
	o.logger.Info("Decoding %s stream %d (%dx%d) with %s, encoding %s with %s",
		stream.Codec.CodecID, stream.Index, stream.Codec.Width, stream.Codec.Height,
		session.DecoderName(), config.Format, encoder.CodecName())

	wantSheet := config.ContactSheetPath != "" && !config.DryRun && o.contactSheet != nil
	var tiles []pipeline.SheetTile

	runErr := func() error {
		for index := 0; ; index++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrInterrupted, err)
			}

			frame, err := session.NextFrame()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			ms := timestampMs(stream.TimeBase, frame.PTS)

			data, err := encoder.EncodeFrame(frame)
			if err != nil {
				if config.ContinueOnEncodeError && isFrameEncodeError(err) {
					o.logger.Warn("Skipping frame %d at %d ms: %v", index, ms, err)
					result.Skipped++
					continue
				}
				return err
			}

			path, err := o.sink.Write(index, frame.PTS, data)
			if err != nil {
				return fmt.Errorf("%w: thumbnail %d: %w", ErrWriteFailed, index, err)
			}
			o.logger.Info("Thumbnail %d at %d ms written to %s", index, ms, path)

			result.Thumbnails = append(result.Thumbnails, Thumbnail{
				Index: index, PTS: frame.PTS, TimestampMs: ms, Path: path, Bytes: len(data),
			})
			if wantSheet {
				tiles = append(tiles, pipeline.SheetTile{Index: index, TimestampMs: ms, Data: data})
			}
		}
	}()
	result.Stats = session.Stats()
	if runErr != nil {
		o.logger.Error("Extraction stopped: %v", runErr)
		return result, runErr
	}
	o.logger.Info("Extracted %d thumbnails (%d skipped)", len(result.Thumbnails), result.Skipped)

	if wantSheet && len(tiles) > 0 {
		if err := o.writeContactSheet(ctx, config, tiles); err != nil {
			return result, err
		}
		result.ContactSheetPath = config.ContactSheetPath
	}

	result.Summary = buildSummary(config, result)
	if config.SummaryPath != "" && !config.DryRun {
		if err := summarizer.NewWriter(o.fs, nil).Write(config.SummaryPath, result.Summary); err != nil {
			return result, fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
		o.logger.Info("Summary saved to %s", config.SummaryPath)
	}
	return result, nil
}

func (o *Orchestrator) writeContactSheet(ctx context.Context, config Config, tiles []pipeline.SheetTile) error {
	input := config.ContactSheet
	input.Tiles = tiles
	sheet, err := o.contactSheet.Execute(ctx, input)
	if err != nil {
		return fmt.Errorf("contact sheet stage: %w", err)
	}
	if err := o.fs.WriteFile(config.ContactSheetPath, sheet.PNG); err != nil {
		return fmt.Errorf("%w: contact sheet: %w", ErrWriteFailed, err)
	}
	o.logger.Info("Contact sheet saved to %s (%dx%d)", config.ContactSheetPath, sheet.Layout.Size.Width, sheet.Layout.Size.Height)
	return nil
}

func buildSummary(config Config, result Result) *summarizer.Summary {
	stream := result.Stream
	b := summarizer.NewBuilder().
		WithInput(summarizer.InputInfo{
			Path:        config.InputPath,
			StreamIndex: stream.Index,
			Codec:       string(stream.Codec.CodecID),
			Decoder:     result.DecoderName,
			Width:       stream.Codec.Width,
			Height:      stream.Codec.Height,
			TimeBase:    fmt.Sprintf("%d/%d", stream.TimeBase.Num, stream.TimeBase.Den),
		}).
		WithSettings(summarizer.Settings{
			IntervalSeconds: config.IntervalSeconds,
			Format:          string(config.Format),
			Backend:         config.Backend,
			Width:           config.Width,
		}).
		WithStats(summarizer.Stats{
			PacketsRead:      result.Stats.Read,
			PacketsDiscarded: result.Stats.Discarded,
			PacketsDecoded:   result.Stats.Fed,
		}).
		WithSkipped(result.Skipped).
		WithContactSheet(result.ContactSheetPath)
	for _, t := range result.Thumbnails {
		b.AddThumbnail(summarizer.ThumbnailInfo{
			Index: t.Index, PTS: t.PTS, TimestampMs: t.TimestampMs, Path: t.Path, Bytes: t.Bytes,
		})
	}
	return b.Build()
}

// isFrameEncodeError reports whether err is a per-frame encoding failure.
func isFrameEncodeError(err error) bool {
	return errors.Is(err, thumbnail.ErrEncoderReconfigFailed) ||
		errors.Is(err, thumbnail.ErrColorConversionFailed) ||
		errors.Is(err, thumbnail.ErrEncodeFailed)
}

func timestampMs(tb ports.Rational, pts int64) int64 {
	if pts == ports.NoPTS {
		return 0
	}
	return tb.Milliseconds(pts)
}
