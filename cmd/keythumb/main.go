// Package main provides the CLI entry point for keythumb.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/keythumb/pkg/adapters/filesink"
	"github.com/user/keythumb/pkg/adapters/ggrenderer"
	"github.com/user/keythumb/pkg/adapters/libav"
	"github.com/user/keythumb/pkg/adapters/logger"
	"github.com/user/keythumb/pkg/adapters/nullsink"
	"github.com/user/keythumb/pkg/adapters/osfilesystem"
	"github.com/user/keythumb/pkg/adapters/smartdecoder"
	"github.com/user/keythumb/pkg/adapters/smartencoder"
	"github.com/user/keythumb/pkg/config"
	"github.com/user/keythumb/pkg/keyframe"
	"github.com/user/keythumb/pkg/orchestrator"
	"github.com/user/keythumb/pkg/ports"
	"github.com/user/keythumb/pkg/stages/contactsheet"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.RunContext(context.Background(), args)
	if err != nil {
		fmt.Fprintln(stderr, l10n.F("Error: %v", err))
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if errors.Is(err, config.ErrInvalid) {
		return orchestrator.ExitUsage
	}
	return orchestrator.ExitCode(err)
}

func usageError(c *cli.Context, err error, isSubcommand bool) error {
	return cli.Exit(err.Error(), orchestrator.ExitUsage)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:           "keythumb",
		Usage:          l10n.T("Extract spaced keyframe thumbnails from video files"),
		Version:        version,
		Writer:         stdout,
		ErrWriter:      stderr,
		OnUsageError:   usageError,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:         "extract",
				Usage:        l10n.T("Write one thumbnail per keyframe, spaced by the interval"),
				ArgsUsage:    "[INPUT]",
				Flags:        extractFlags(),
				OnUsageError: usageError,
				Action:       extractAction,
			},
			{
				Name:         "probe",
				Usage:        l10n.T("List the streams of a container and the available codecs"),
				ArgsUsage:    "INPUT",
				Flags:        backendFlags(),
				OnUsageError: usageError,
				Action:       probeAction,
			},
			{
				Name:   "version",
				Usage:  l10n.T("Show version information"),
				Action: versionAction,
			},
		},
	}
}

func backendFlags() []cli.Flag {
	category := l10n.T("Backend")
	return []cli.Flag{
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Category: category, Usage: l10n.T("Codec backend (auto, native, libav)")},
		&cli.StringFlag{Name: "ffmpeg-path", Category: category, Usage: l10n.T("Path to the ffmpeg binary used for H.264/HEVC (falls back to FFMPEG_PATH, then PATH)")},
	}
}

func extractFlags() []cli.Flag {
	input := l10n.T("Input")
	output := l10n.T("Output")
	encoding := l10n.T("Encoding")
	sheet := l10n.T("Contact Sheet")
	logging := l10n.T("Logging")

	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: input, Usage: l10n.T("YAML configuration file providing defaults")},
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Category: input, Usage: l10n.T("Input video file")},
		&cli.IntFlag{Name: "interval", Aliases: []string{"n"}, Category: input, Usage: l10n.T("Minimum seconds between thumbnails (default: 10)")},

		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: output, Usage: l10n.T("Output path template with one integer verb (default: thumb-%04d.png)")},
		&cli.StringFlag{Name: "summary", Category: output, Usage: l10n.T("Write a run summary (.json for JSON, Markdown otherwise)")},
		&cli.BoolFlag{Name: "dry-run", Category: output, Usage: l10n.T("Decode and encode without writing files")},
		&cli.BoolFlag{Name: "continue-on-error", Category: output, Usage: l10n.T("Skip frames that fail to encode instead of stopping")},

		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Category: encoding, Usage: l10n.T("Image format (png, jpeg, webp; default: from the output extension)")},
		&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Category: encoding, Usage: l10n.T("Thumbnail width keeping the aspect ratio (0 = source size)")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Category: encoding, Usage: l10n.T("JPEG/WebP quality (1-100)")},
		&cli.BoolFlag{Name: "lossy", Category: encoding, Usage: l10n.T("Use lossy WebP encoding")},
		&cli.StringFlag{Name: "kernel", Category: encoding, Usage: l10n.T("Scaling kernel (nearest, bilinear, catmullrom)")},
		&cli.BoolFlag{Name: "no-fallback", Category: encoding, Usage: l10n.T("Fail instead of falling back to the native encoders")},

		&cli.StringFlag{Name: "contact-sheet", Category: sheet, Usage: l10n.T("Also write a contact sheet PNG to this path")},
		&cli.IntFlag{Name: "columns", Category: sheet, Usage: l10n.T("Contact sheet columns (default: 4)")},
		&cli.IntFlag{Name: "tile-width", Category: sheet, Usage: l10n.T("Contact sheet tile width in pixels (default: 320)")},
		&cli.BoolFlag{Name: "no-labels", Category: sheet, Usage: l10n.T("Omit timestamp labels on the contact sheet")},
		&cli.StringFlag{Name: "font", Category: sheet, Usage: l10n.T("TrueType font for contact sheet labels")},

		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: logging, Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: logging, Usage: l10n.T("Suppress all log output")},
	}
	return append(flags, backendFlags()...)
}

// buildConfig loads the configuration file, if any, and applies the flags
// that were set on the command line.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, cli.Exit(l10n.F("Failed to load config: %v", err), orchestrator.ExitUsage)
		}
		cfg = loaded
	}

	if c.IsSet("input") {
		cfg.Input = c.String("input")
	} else if c.Args().Present() {
		cfg.Input = c.Args().First()
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Int("interval")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}
	if c.IsSet("continue-on-error") {
		cfg.ContinueOnError = c.Bool("continue-on-error")
	}

	// The format follows the output extension unless given explicitly, and
	// the default template follows the format.
	switch {
	case c.IsSet("format"):
		cfg.Format = c.String("format")
	case c.IsSet("output"):
		if f, err := ports.ParseImageFormat(filepath.Ext(cfg.Output)); err == nil {
			cfg.Format = string(f)
		}
	}
	if f, err := ports.ParseImageFormat(cfg.Format); err == nil && cfg.Output == config.Defaults().Output {
		cfg.Output = "thumb-%04d" + f.Extension()
	}

	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("lossy") {
		cfg.Lossy = c.Bool("lossy")
	}
	if c.IsSet("kernel") {
		cfg.Kernel = c.String("kernel")
	}
	if c.IsSet("no-fallback") {
		cfg.DisableFallback = c.Bool("no-fallback")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}

	if c.IsSet("contact-sheet") {
		cfg.ContactSheet.Path = c.String("contact-sheet")
	}
	if c.IsSet("columns") {
		cfg.ContactSheet.Columns = c.Int("columns")
	}
	if c.IsSet("tile-width") {
		cfg.ContactSheet.TileWidth = c.Int("tile-width")
	}
	if c.IsSet("no-labels") {
		cfg.ContactSheet.Labels = !c.Bool("no-labels")
	}
	if c.IsSet("font") {
		cfg.ContactSheet.FontPath = c.String("font")
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("quiet") {
		cfg.Quiet = c.Bool("quiet")
	}
	return cfg, nil
}

func newLogger(cfg config.Config) ports.Logger {
	if cfg.Quiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(cfg.Level())
}

func extractAction(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	runConfig := cfg.ToOrchestratorConfig()
	if err := runConfig.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create adapters
	media, err := smartdecoder.New(cfg.DecoderOptions(log))
	if err != nil {
		return err
	}
	encoders, err := smartencoder.New(cfg.EncoderOptions(log))
	if err != nil {
		return err
	}
	fs := osfilesystem.New()

	var sink ports.ThumbnailSink
	var dryRun *nullsink.Sink
	if cfg.DryRun {
		dryRun = nullsink.New(cfg.Output)
		sink = dryRun
	} else {
		fileSink, err := filesink.New(cfg.Output, fs)
		if err != nil {
			return err
		}
		sink = fileSink
	}

	workers := cfg.ContactSheet.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sheetStage := contactsheet.NewStage(ggrenderer.New(), log, workers)

	orch := orchestrator.New(media, encoders, sink, fs, sheetStage, log)
	if _, err := orch.Run(ctx, runConfig); err != nil {
		return err
	}

	if dryRun != nil {
		log.Info("Dry run: %d thumbnails, %d bytes would be written", dryRun.Count(), dryRun.Bytes())
	}
	return nil
}

func probeAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit(l10n.T("Input file argument is required"), orchestrator.ExitUsage)
	}
	backend, err := smartdecoder.ParseBackend(c.String("backend"))
	if err != nil {
		return cli.Exit(err.Error(), orchestrator.ExitUsage)
	}

	media, err := smartdecoder.New(smartdecoder.Options{Backend: backend, FFmpegPath: c.String("ffmpeg-path")})
	if err != nil {
		return err
	}
	dm, err := media.OpenContainer(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", keyframe.ErrOpenFailed, path, err)
	}
	defer dm.Close()

	encoders, err := smartencoder.New(smartencoder.Options{Backend: smartencoder.Backend(backend)})
	if err != nil {
		return err
	}

	return printProbe(c.App.Writer, path, media, dm.Streams(), encoders)
}

func printProbe(w io.Writer, path string, media *smartdecoder.MediaBackend, streams []ports.StreamInfo, encoders *smartencoder.Encoder) error {
	info := media.Info()
	fmt.Fprintln(w, path)
	fmt.Fprintln(w, l10n.F("Backend: %s", info.Backend))

	fmt.Fprintln(w, l10n.T("Streams:"))
	for _, s := range streams {
		line := fmt.Sprintf("  #%d %s %s %d/%d", s.Index, s.MediaType, s.Codec.CodecID, s.TimeBase.Num, s.TimeBase.Den)
		if s.MediaType == ports.MediaTypeVideo {
			decoder := l10n.T("no decoder")
			if dc, ok := media.FindDecoder(s.Codec.CodecID); ok {
				decoder = dc.Name()
			}
			line += fmt.Sprintf(" %dx%d [%s]", s.Codec.Width, s.Codec.Height, decoder)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, l10n.T("Decoders:"))
	for _, id := range info.Codecs() {
		fmt.Fprintf(w, "  %s: %s\n", id, info.Decoders[id])
	}

	fmt.Fprintln(w, l10n.T("Encoders:"))
	for _, format := range []ports.ImageFormat{ports.FormatPNG, ports.FormatJPEG, ports.FormatWebP} {
		_, enc, err := encoders.Lookup(format)
		if err != nil {
			fmt.Fprintf(w, "  %s: %s\n", format, l10n.T("unavailable"))
			continue
		}
		fmt.Fprintf(w, "  %s: %s (%s)\n", format, enc.Codec, enc.Backend)
	}
	return nil
}

func versionAction(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, l10n.F("keythumb version %s", version))
	libavStatus := l10n.T("not compiled in")
	if libav.Available() {
		libavStatus = l10n.T("compiled in")
	}
	fmt.Fprintln(c.App.Writer, l10n.F("libav backend: %s", libavStatus))
	return nil
}
