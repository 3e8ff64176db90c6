package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/keythumb/pkg/keyframe"
	"github.com/user/keythumb/pkg/mocks"
	"github.com/user/keythumb/pkg/pipeline"
	"github.com/user/keythumb/pkg/ports"
	"github.com/user/keythumb/pkg/stages/contactsheet"
	"github.com/user/keythumb/pkg/summarizer"
	"github.com/user/keythumb/pkg/thumbnail"
)

var secondTimeBase = ports.Rational{Num: 1, Den: 1}

type fixture struct {
	media    *mocks.MediaBackend
	encoders *mocks.EncoderBackend
	sink     *mocks.ThumbnailSink
	fs       *mocks.FileSystem
	renderer *mocks.Renderer
	logger   *mocks.Logger
}

// newFixture builds a backend whose video stream has one keyframe per
// second at the given pts values.
func newFixture(keyframes ...int64) *fixture {
	var packets []*ports.Packet
	for _, pts := range keyframes {
		packets = append(packets, mocks.Keyframe(0, pts), mocks.DeltaFrame(0, pts))
	}
	return &fixture{
		media: &mocks.MediaBackend{
			Demuxer: &mocks.Demuxer{
				StreamList: []ports.StreamInfo{mocks.VideoStream(0, ports.CodecH264, secondTimeBase, 64, 48)},
				Packets:    packets,
			},
			Decoders: map[ports.CodecID]*mocks.DecoderCodec{ports.CodecH264: {CodecName: "fake"}},
		},
		encoders: mocks.NewEncoderBackend(ports.PixelFormatRGBA),
		sink:     &mocks.ThumbnailSink{},
		fs:       mocks.NewFileSystem(),
		renderer: &mocks.Renderer{},
		logger:   mocks.NewLogger(),
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	return New(f.media, f.encoders, f.sink, f.fs, contactsheet.NewStage(f.renderer, f.logger, 2), f.logger)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InputPath = "in.mp4"
	cfg.IntervalSeconds = 2
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults with input", func(c *Config) {}, false},
		{"missing input", func(c *Config) { c.InputPath = "" }, true},
		{"zero interval", func(c *Config) { c.IntervalSeconds = 0 }, true},
		{"negative interval", func(c *Config) { c.IntervalSeconds = -5 }, true},
		{"template without verb", func(c *Config) { c.OutputTemplate = "thumb.png" }, true},
		{"template with two verbs", func(c *Config) { c.OutputTemplate = "%d-%d.png" }, true},
		{"unknown format", func(c *Config) { c.Format = "gif" }, true},
		{"negative width", func(c *Config) { c.Width = -1 }, true},
		{"jpeg with width", func(c *Config) { c.Format = ports.FormatJPEG; c.Width = 320 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
				}
			} else if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestRun_WritesSpacedKeyframes(t *testing.T) {
	f := newFixture(0, 1, 2, 3, 4, 5)

	result, err := f.orchestrator().Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantPTS := []int64{0, 2, 4}
	if len(f.sink.Writes) != len(wantPTS) {
		t.Fatalf("sink writes = %d, want %d", len(f.sink.Writes), len(wantPTS))
	}
	for i, w := range f.sink.Writes {
		if w.Index != i {
			t.Errorf("write %d index = %d", i, w.Index)
		}
		if w.PTS != wantPTS[i] {
			t.Errorf("write %d pts = %d, want %d", i, w.PTS, wantPTS[i])
		}
		want := fmt.Sprintf("img:64x48:rgba:%d", wantPTS[i])
		if string(w.Data) != want {
			t.Errorf("write %d data = %q, want %q", i, w.Data, want)
		}
	}

	if len(result.Thumbnails) != 3 {
		t.Fatalf("Thumbnails = %d, want 3", len(result.Thumbnails))
	}
	if got := result.Thumbnails[1]; got.Path != "thumb-001" || got.TimestampMs != 2000 {
		t.Errorf("Thumbnails[1] = %+v, want path thumb-001 at 2000 ms", got)
	}
	if result.DecoderName != "fake" {
		t.Errorf("DecoderName = %q, want fake", result.DecoderName)
	}
	if result.Stats.Fed != 3 {
		t.Errorf("Stats.Fed = %d, want 3", result.Stats.Fed)
	}
	if result.Summary == nil || len(result.Summary.Thumbnails) != 3 {
		t.Errorf("Summary = %+v, want 3 thumbnails", result.Summary)
	}
	if f.media.Demuxer.CloseCalls != 1 {
		t.Errorf("demuxer closed %d times, want 1", f.media.Demuxer.CloseCalls)
	}
	if len(f.fs.Paths()) != 0 {
		t.Errorf("unexpected files written: %v", f.fs.Paths())
	}
}

func TestRun_EmptyInput(t *testing.T) {
	f := newFixture()

	result, err := f.orchestrator().Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Thumbnails) != 0 || len(f.sink.Writes) != 0 {
		t.Errorf("got %d thumbnails, want none", len(result.Thumbnails))
	}
}

func TestRun_WidthScalesOutput(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig()
	cfg.Width = 32

	if _, err := f.orchestrator().Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.sink.Writes) != 1 || string(f.sink.Writes[0].Data) != "img:32x24:rgba:0" {
		t.Errorf("writes = %+v, want one 32x24 image", f.sink.Writes)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig()
	cfg.IntervalSeconds = 0

	_, err := f.orchestrator().Run(context.Background(), cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Run() error = %v, want ErrInvalidConfig", err)
	}
	if len(f.media.OpenedPaths) != 0 {
		t.Errorf("container opened despite invalid config")
	}
}

func TestRun_OpenErrors(t *testing.T) {
	t.Run("no decoder", func(t *testing.T) {
		f := newFixture(0)
		f.media.Decoders = nil
		_, err := f.orchestrator().Run(context.Background(), testConfig())
		if !errors.Is(err, keyframe.ErrNoDecoderAvailable) {
			t.Errorf("Run() error = %v, want ErrNoDecoderAvailable", err)
		}
	})

	t.Run("no encoder", func(t *testing.T) {
		f := newFixture(0)
		f.encoders.Codecs = nil
		_, err := f.orchestrator().Run(context.Background(), testConfig())
		if !errors.Is(err, thumbnail.ErrEncoderUnavailable) {
			t.Errorf("Run() error = %v, want ErrEncoderUnavailable", err)
		}
		if f.media.Demuxer.CloseCalls != 1 {
			t.Errorf("demuxer closed %d times, want 1", f.media.Demuxer.CloseCalls)
		}
	})
}

func TestRun_WriteFailure(t *testing.T) {
	f := newFixture(0, 2)
	diskFull := errors.New("disk full")
	f.sink.WriteFunc = func(index int, pts int64, data []byte) (string, error) {
		return "", diskFull
	}

	result, err := f.orchestrator().Run(context.Background(), testConfig())
	if !errors.Is(err, ErrWriteFailed) || !errors.Is(err, diskFull) {
		t.Fatalf("Run() error = %v, want ErrWriteFailed wrapping disk full", err)
	}
	if len(result.Thumbnails) != 0 {
		t.Errorf("Thumbnails = %d, want 0", len(result.Thumbnails))
	}
	if f.logger.Count(ports.LevelError) != 1 {
		t.Errorf("error entries = %d, want 1", f.logger.Count(ports.LevelError))
	}
}

func TestRun_EncodeFailure(t *testing.T) {
	failing := func(f *fixture) {
		calls := 0
		f.encoders.ConvertFunc = func(src, dst *ports.Frame) (int, error) {
			calls++
			if calls == 2 {
				return 0, errors.New("bad frame")
			}
			dst.PTS = src.PTS
			return dst.Height, nil
		}
	}

	t.Run("stops by default", func(t *testing.T) {
		f := newFixture(0, 2, 4)
		failing(f)
		_, err := f.orchestrator().Run(context.Background(), testConfig())
		if !errors.Is(err, thumbnail.ErrColorConversionFailed) {
			t.Fatalf("Run() error = %v, want ErrColorConversionFailed", err)
		}
		if len(f.sink.Writes) != 1 {
			t.Errorf("sink writes = %d, want 1", len(f.sink.Writes))
		}
	})

	t.Run("continues when asked", func(t *testing.T) {
		f := newFixture(0, 2, 4)
		failing(f)
		cfg := testConfig()
		cfg.ContinueOnEncodeError = true

		result, err := f.orchestrator().Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", result.Skipped)
		}
		if len(f.sink.Writes) != 2 {
			t.Fatalf("sink writes = %d, want 2", len(f.sink.Writes))
		}
		if f.sink.Writes[0].Index != 0 || f.sink.Writes[1].Index != 2 {
			t.Errorf("written indices = %d, %d, want 0, 2", f.sink.Writes[0].Index, f.sink.Writes[1].Index)
		}
		if f.logger.Count(ports.LevelWarn) != 1 {
			t.Errorf("warn entries = %d, want 1", f.logger.Count(ports.LevelWarn))
		}
	})
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(0, 2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	f.sink.WriteFunc = func(index int, pts int64, data []byte) (string, error) {
		cancel()
		return "thumb", nil
	}

	result, err := f.orchestrator().Run(ctx, testConfig())
	if !errors.Is(err, ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want ErrInterrupted wrapping context.Canceled", err)
	}
	if len(result.Thumbnails) != 1 {
		t.Errorf("Thumbnails = %d, want 1", len(result.Thumbnails))
	}
	if ExitCode(err) != ExitInterrupted {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitInterrupted)
	}
}

func TestRun_ContactSheetAndSummary(t *testing.T) {
	f := newFixture(0, 2, 4)
	cfg := testConfig()
	cfg.ContactSheetPath = "out/sheet.png"
	cfg.SummaryPath = "out/summary.json"

	result, err := f.orchestrator().Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ContactSheetPath != "out/sheet.png" {
		t.Errorf("ContactSheetPath = %q", result.ContactSheetPath)
	}
	if data, ok := f.fs.File("out/sheet.png"); !ok || string(data) != "png" {
		t.Errorf("contact sheet file = %q, %v", data, ok)
	}
	if len(f.renderer.Canvases) != 1 || len(f.renderer.Canvases[0].Images) != 3 {
		t.Errorf("contact sheet canvases = %+v, want one with 3 tiles", f.renderer.Canvases)
	}

	data, ok := f.fs.File("out/summary.json")
	if !ok {
		t.Fatal("summary not written")
	}
	var s summarizer.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
	if len(s.Thumbnails) != 3 || s.ContactSheet != "out/sheet.png" || s.Input.Decoder != "fake" {
		t.Errorf("summary = %+v", s)
	}
}

func TestRun_MarkdownSummary(t *testing.T) {
	f := newFixture(0)
	cfg := testConfig()
	cfg.SummaryPath = "summary.md"

	if _, err := f.orchestrator().Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, ok := f.fs.File("summary.md")
	if !ok || !strings.HasPrefix(string(data), "# ") {
		t.Errorf("markdown summary = %q", data)
	}
}

func TestRun_DryRunSkipsFiles(t *testing.T) {
	f := newFixture(0, 2)
	cfg := testConfig()
	cfg.ContactSheetPath = "sheet.png"
	cfg.SummaryPath = "summary.json"
	cfg.DryRun = true

	result, err := f.orchestrator().Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Thumbnails) != 2 {
		t.Errorf("Thumbnails = %d, want 2", len(result.Thumbnails))
	}
	if files := f.fs.Paths(); len(files) != 0 {
		t.Errorf("dry run wrote files: %v", files)
	}
	if len(f.renderer.Canvases) != 0 {
		t.Errorf("dry run rendered a contact sheet")
	}
}

func TestRun_ContactSheetWriteFailure(t *testing.T) {
	f := newFixture(0)
	f.fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("read-only") }
	cfg := testConfig()
	cfg.ContactSheetPath = "sheet.png"

	_, err := f.orchestrator().Run(context.Background(), cfg)
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("Run() error = %v, want ErrWriteFailed", err)
	}
}

func TestRun_ContactSheetStageFailure(t *testing.T) {
	f := newFixture(0, 2)
	renderErr := errors.New("no font")
	var got pipeline.ContactSheetInput
	stage := pipeline.StageFunc[pipeline.ContactSheetInput, pipeline.ContactSheetResult](
		func(ctx context.Context, input pipeline.ContactSheetInput) (pipeline.ContactSheetResult, error) {
			got = input
			return pipeline.ContactSheetResult{}, renderErr
		})
	cfg := testConfig()
	cfg.ContactSheetPath = "sheet.png"
	cfg.ContactSheet.Columns = 3

	_, err := New(f.media, f.encoders, f.sink, f.fs, stage, f.logger).Run(context.Background(), cfg)
	if !errors.Is(err, renderErr) {
		t.Fatalf("Run() error = %v, want the stage error", err)
	}
	if len(got.Tiles) != 2 || got.Columns != 3 {
		t.Errorf("stage input = %d tiles, %d columns, want 2 tiles, 3 columns", len(got.Tiles), got.Columns)
	}
	if got.Tiles[1].TimestampMs != 2000 || string(got.Tiles[1].Data) != "img:64x48:rgba:2" {
		t.Errorf("tile 1 = %+v", got.Tiles[1])
	}
	if _, ok := f.fs.File("sheet.png"); ok {
		t.Error("contact sheet file written after the stage failed")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{fmt.Errorf("%w: x", ErrInvalidConfig), ExitUsage},
		{fmt.Errorf("%w: x", keyframe.ErrOpenFailed), ExitOpenFailed},
		{keyframe.ErrNoVideoStream, ExitNoVideoStream},
		{keyframe.ErrNoDecoderAvailable, ExitNoDecoderAvailable},
		{keyframe.ErrDecoderInitFailed, ExitDecoderInitFailed},
		{thumbnail.ErrEncoderUnavailable, ExitEncoderUnavailable},
		{thumbnail.ErrEncoderInitFailed, ExitEncoderInitFailed},
		{thumbnail.ErrEncoderReconfigFailed, ExitEncoderReconfigFailed},
		{thumbnail.ErrColorConversionFailed, ExitColorConversionFailed},
		{thumbnail.ErrEncodeFailed, ExitEncodeFailed},
		{fmt.Errorf("%w: %w", ErrWriteFailed, errors.New("disk")), ExitWriteFailed},
		{keyframe.ErrReadFailed, ExitDecodeFailed},
		{keyframe.ErrDecodeFailed, ExitDecodeFailed},
		{fmt.Errorf("%w: %w", ErrInterrupted, context.Canceled), ExitInterrupted},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
