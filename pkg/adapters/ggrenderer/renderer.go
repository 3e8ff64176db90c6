// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/user/keythumb/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a new drawing canvas.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// DecodeImage decodes PNG, JPEG or WebP data.
func (r *Renderer) DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes an image as PNG.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc   *gg.Context
	font fontKey
}

type fontKey struct {
	path string
	size float64
}

// DrawImageScaled draws an image scaled to the specified dimensions.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	c.dc.DrawImage(dst, x, y)
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// setFont loads the style font once. Without a font path, or when the
// font cannot be loaded, gg's built-in face is used.
func (c *Canvas) setFont(style ports.TextStyle) {
	key := fontKey{path: style.FontPath, size: style.FontSize}
	if key == c.font || style.FontPath == "" {
		return
	}
	if err := c.dc.LoadFontFace(style.FontPath, style.FontSize); err == nil {
		c.font = key
	}
}

// DrawText draws text with its top edge at y.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.setFont(style)
	col := style.Color
	if col == nil {
		col = color.White
	}
	c.dc.SetColor(col)

	ax := 0.0
	switch style.Align {
	case ports.AlignCenter:
		ax = 0.5
	case ports.AlignRight:
		ax = 1.0
	}
	c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 1)
}

// MeasureText returns the rendered size of text.
func (c *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	c.setFont(style)
	return c.dc.MeasureString(text)
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
