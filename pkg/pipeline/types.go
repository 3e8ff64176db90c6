package pipeline

import (
	"image"
	"image/color"
)

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Rectangle represents a rectangular area.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// =============================================================================
// Contact Sheet Stage Types
// =============================================================================

// SheetTile is one encoded thumbnail placed on the contact sheet.
type SheetTile struct {
	Index       int
	TimestampMs int64
	Data        []byte // encoded PNG, JPEG or WebP
}

// ContactSheetInput contains parameters for contact sheet composition.
type ContactSheetInput struct {
	Tiles      []SheetTile
	Columns    int  // Tiles per row (default: 4)
	TileWidth  int  // Width of one tile (default: 320)
	Gap        int  // Gap between tiles (default: 8)
	Padding    int  // Padding around the sheet (default: 8)
	ShowLabels bool // Draw the hh:mm:ss timestamp on each tile
	FontPath   string
	FontSize   float64
	Theme      SheetTheme
}

// DefaultContactSheetInput returns ContactSheetInput with default values.
func DefaultContactSheetInput() ContactSheetInput {
	return ContactSheetInput{
		Columns:    4,
		TileWidth:  320,
		Gap:        8,
		Padding:    8,
		ShowLabels: true,
		FontSize:   14,
		Theme:      DefaultSheetTheme(),
	}
}

// SheetTheme defines contact sheet styling.
type SheetTheme struct {
	BackgroundColor color.Color
	LabelColor      color.Color
	LabelBgColor    color.Color
}

// DefaultSheetTheme returns a default contact sheet theme.
func DefaultSheetTheme() SheetTheme {
	return SheetTheme{
		BackgroundColor: color.RGBA{R: 30, G: 30, B: 30, A: 255},
		LabelColor:      color.White,
		LabelBgColor:    color.RGBA{A: 160},
	}
}

// SheetLayout contains the calculated sheet size and tile positions.
type SheetLayout struct {
	Size  Dimension
	Tiles []Rectangle
}

// ContactSheetResult contains the composed sheet.
type ContactSheetResult struct {
	Layout SheetLayout
	Image  image.Image
	PNG    []byte
}
