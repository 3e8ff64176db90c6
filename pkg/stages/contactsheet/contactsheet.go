// Package contactsheet implements the contact sheet stage: a grid of the
// extracted thumbnails with timestamp labels, encoded as one PNG.
package contactsheet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/user/keythumb/pkg/pipeline"
	"github.com/user/keythumb/pkg/ports"
)

// ErrNoTiles is returned when the input has no thumbnails.
var ErrNoTiles = errors.New("contactsheet: no thumbnails")

// Stage composes thumbnails into a contact sheet.
type Stage struct {
	renderer   ports.Renderer
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new contact sheet stage. Thumbnails are decoded by
// numWorkers goroutines; 0 means one per CPU.
func NewStage(renderer ports.Renderer, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		renderer:   renderer,
		logger:     logger.WithComponent("contactsheet"),
		numWorkers: numWorkers,
	}
}

// Execute decodes the tiles, lays them out and renders the sheet.
func (s *Stage) Execute(ctx context.Context, input pipeline.ContactSheetInput) (pipeline.ContactSheetResult, error) {
	if len(input.Tiles) == 0 {
		return pipeline.ContactSheetResult{}, ErrNoTiles
	}
	defaults := pipeline.DefaultContactSheetInput()
	if input.Columns <= 0 {
		input.Columns = defaults.Columns
	}
	if input.TileWidth <= 0 {
		input.TileWidth = defaults.TileWidth
	}
	if input.FontSize <= 0 {
		input.FontSize = defaults.FontSize
	}
	if input.Theme.BackgroundColor == nil {
		input.Theme = defaults.Theme
	}

	s.logger.Debug("Decoding %d thumbnails with %d workers", len(input.Tiles), s.numWorkers)
	images, err := s.decodeParallel(ctx, input.Tiles)
	if err != nil {
		return pipeline.ContactSheetResult{}, err
	}

	first := images[0].Bounds()
	tileHeight := input.TileWidth
	if first.Dx() > 0 {
		tileHeight = (input.TileWidth*first.Dy() + first.Dx()/2) / first.Dx()
	}
	if tileHeight < 1 {
		tileHeight = 1
	}
	layout := ComputeLayout(input, len(images), tileHeight)

	canvas := s.renderer.CreateCanvas(layout.Size.Width, layout.Size.Height, input.Theme.BackgroundColor)
	style := ports.TextStyle{FontSize: input.FontSize, FontPath: input.FontPath, Color: input.Theme.LabelColor}
	for i, img := range images {
		rect := layout.Tiles[i]
		canvas.DrawImageScaled(img, rect.X, rect.Y, rect.Width, rect.Height)
		if input.ShowLabels {
			drawLabel(canvas, FormatTimestamp(input.Tiles[i].TimestampMs), rect, style, input.Theme.LabelBgColor)
		}
	}

	sheet := canvas.ToImage()
	data, err := s.renderer.EncodePNG(sheet)
	if err != nil {
		return pipeline.ContactSheetResult{}, fmt.Errorf("contactsheet: encode: %w", err)
	}
	s.logger.Debug("Contact sheet %dx%d with %d tiles", layout.Size.Width, layout.Size.Height, len(images))
	return pipeline.ContactSheetResult{Layout: layout, Image: sheet, PNG: data}, nil
}

// drawLabel draws text on a backing box in the bottom-left corner of rect.
func drawLabel(canvas ports.Canvas, text string, rect pipeline.Rectangle, style ports.TextStyle, bg color.Color) {
	const margin = 4
	w, h := canvas.MeasureText(text, style)
	boxW, boxH := int(w)+margin*2, int(h)+margin*2
	x, y := rect.X, rect.Y+rect.Height-boxH
	canvas.DrawRect(x, y, boxW, boxH, bg)
	canvas.DrawText(text, x+margin, y+margin, style)
}

// decodeParallel decodes tiles using a worker pool, keeping input order.
func (s *Stage) decodeParallel(ctx context.Context, tiles []pipeline.SheetTile) ([]image.Image, error) {
	images := make([]image.Image, len(tiles))
	jobs := make(chan int, len(tiles))
	errChan := make(chan error, s.numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				img, err := s.renderer.DecodeImage(tiles[idx].Data)
				if err != nil {
					select {
					case errChan <- fmt.Errorf("contactsheet: decode thumbnail %d: %w", tiles[idx].Index, err):
					default:
					}
					return
				}
				images[idx] = img
			}
		}()
	}

	for i := range tiles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return images, nil
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.ContactSheetInput, pipeline.ContactSheetResult] = (*Stage)(nil)
