package ports

import (
	"image"
	"image/color"
)

// Renderer composes contact sheets from thumbnails.
type Renderer interface {
	// CreateCanvas creates a canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// DecodeImage decodes encoded thumbnail bytes of any registered format.
	DecodeImage(data []byte) (image.Image, error)

	// EncodePNG encodes an image as PNG.
	EncodePNG(img image.Image) ([]byte, error)
}

// Canvas provides drawing operations for compositing images.
type Canvas interface {
	// DrawImageScaled draws an image scaled to the specified dimensions.
	DrawImageScaled(img image.Image, x, y, width, height int)

	// DrawRect draws a filled rectangle.
	DrawRect(x, y, w, h int, c color.Color)

	// DrawText draws text with its top edge at y.
	DrawText(text string, x, y int, style TextStyle)

	// MeasureText returns the width and height of the text.
	MeasureText(text string, style TextStyle) (width, height float64)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)
