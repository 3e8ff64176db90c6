package contactsheet

import (
	"fmt"

	"github.com/user/keythumb/pkg/pipeline"
)

// ComputeLayout places count tiles of tileWidth x tileHeight in a grid.
// This is exposed as a standalone function for testing and reuse.
func ComputeLayout(input pipeline.ContactSheetInput, count, tileHeight int) pipeline.SheetLayout {
	columns := input.Columns
	if columns > count {
		columns = count
	}
	if columns <= 0 || count <= 0 {
		return pipeline.SheetLayout{}
	}
	rows := (count + columns - 1) / columns

	layout := pipeline.SheetLayout{
		Size: pipeline.Dimension{
			Width:  input.Padding*2 + columns*input.TileWidth + (columns-1)*input.Gap,
			Height: input.Padding*2 + rows*tileHeight + (rows-1)*input.Gap,
		},
		Tiles: make([]pipeline.Rectangle, count),
	}
	for i := 0; i < count; i++ {
		col, row := i%columns, i/columns
		layout.Tiles[i] = pipeline.Rectangle{
			X:      input.Padding + col*(input.TileWidth+input.Gap),
			Y:      input.Padding + row*(tileHeight+input.Gap),
			Width:  input.TileWidth,
			Height: tileHeight,
		}
	}
	return layout
}

// FormatTimestamp renders milliseconds as hh:mm:ss. Negative values clamp to zero.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}
