package mocks

import (
	"image"
	"image/color"

	"github.com/user/keythumb/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte) (image.Image, error)
	EncodePNGFunc    func(img image.Image) ([]byte, error)

	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height}
	m.Canvases = append(m.Canvases, c)
	return c
}

func (m *Renderer) DecodeImage(data []byte) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data)
	}
	return image.NewRGBA(image.Rect(0, 0, 160, 90)), nil
}

func (m *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	if m.EncodePNGFunc != nil {
		return m.EncodePNGFunc(img)
	}
	return []byte("png"), nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas that records draw calls.
type Canvas struct {
	Width  int
	Height int

	Images []image.Rectangle
	Texts  []string
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.Images = append(m.Images, image.Rect(x, y, x+width, y+height))
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Texts = append(m.Texts, text)
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	return float64(len(text)) * style.FontSize * 0.5, style.FontSize
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

var _ ports.Canvas = (*Canvas)(nil)
