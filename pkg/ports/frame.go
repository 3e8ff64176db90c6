package ports

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// PixelFormat names a raw picture memory layout.
type PixelFormat string

const (
	PixelFormatNone    PixelFormat = "none"
	PixelFormatYUV420P PixelFormat = "yuv420p"
	PixelFormatYUV422P PixelFormat = "yuv422p"
	PixelFormatYUV444P PixelFormat = "yuv444p"
	PixelFormatNV12    PixelFormat = "nv12"
	PixelFormatRGB24   PixelFormat = "rgb24"
	PixelFormatRGBA    PixelFormat = "rgba"
	PixelFormatGray    PixelFormat = "gray"
)

// Planes returns the number of memory planes of the format, 0 if unknown.
func (p PixelFormat) Planes() int {
	switch p {
	case PixelFormatYUV420P, PixelFormatYUV422P, PixelFormatYUV444P:
		return 3
	case PixelFormatNV12:
		return 2
	case PixelFormatRGB24, PixelFormatRGBA, PixelFormatGray:
		return 1
	default:
		return 0
	}
}

// Supported reports whether frames of this format can be allocated and viewed.
func (p PixelFormat) Supported() bool {
	return p.Planes() > 0
}

// PlaneSize returns the bytes per row and row count of plane i for a
// picture of the given dimensions.
func (p PixelFormat) PlaneSize(i, width, height int) (rowBytes, rows int) {
	cw, ch := (width+1)/2, (height+1)/2
	switch p {
	case PixelFormatYUV420P:
		if i == 0 {
			return width, height
		}
		return cw, ch
	case PixelFormatYUV422P:
		if i == 0 {
			return width, height
		}
		return cw, height
	case PixelFormatYUV444P:
		return width, height
	case PixelFormatNV12:
		if i == 0 {
			return width, height
		}
		return cw * 2, ch
	case PixelFormatRGB24:
		return width * 3, height
	case PixelFormatRGBA:
		return width * 4, height
	case PixelFormatGray:
		return width, height
	}
	return 0, 0
}

// verticalSubsampling returns how many picture rows share one row of plane i.
func (p PixelFormat) verticalSubsampling(i int) int {
	if i > 0 && (p == PixelFormatYUV420P || p == PixelFormatNV12) {
		return 2
	}
	return 1
}

// Plane is one memory plane of a raw picture.
type Plane struct {
	Data   []byte
	Stride int
}

// Frame is a decoded raw picture.
type Frame struct {
	Width  int
	Height int
	Format PixelFormat
	PTS    int64
	Planes []Plane
}

// NewFrame allocates a tightly packed frame.
func NewFrame(width, height int, format PixelFormat) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ports: invalid frame size %dx%d", width, height)
	}
	n := format.Planes()
	if n == 0 {
		return nil, fmt.Errorf("ports: unsupported pixel format %s", format)
	}
	f := &Frame{Width: width, Height: height, Format: format, PTS: NoPTS, Planes: make([]Plane, n)}
	for i := range f.Planes {
		rowBytes, rows := format.PlaneSize(i, width, height)
		f.Planes[i] = Plane{Data: make([]byte, rowBytes*rows), Stride: rowBytes}
	}
	return f, nil
}

// NewFrameFromPacked wraps tightly packed plane data, as produced by Packed.
func NewFrameFromPacked(width, height int, format PixelFormat, data []byte) (*Frame, error) {
	f := &Frame{Width: width, Height: height, Format: format, PTS: NoPTS}
	n := format.Planes()
	if n == 0 {
		return nil, fmt.Errorf("ports: unsupported pixel format %s", format)
	}
	offset := 0
	for i := 0; i < n; i++ {
		rowBytes, rows := format.PlaneSize(i, width, height)
		size := rowBytes * rows
		if offset+size > len(data) {
			return nil, fmt.Errorf("ports: packed %s frame %dx%d needs more than %d bytes", format, width, height, len(data))
		}
		f.Planes = append(f.Planes, Plane{Data: data[offset : offset+size], Stride: rowBytes})
		offset += size
	}
	return f, nil
}

// PackedSize returns the number of bytes of a tightly packed picture.
func PackedSize(width, height int, format PixelFormat) int {
	total := 0
	for i := 0; i < format.Planes(); i++ {
		rowBytes, rows := format.PlaneSize(i, width, height)
		total += rowBytes * rows
	}
	return total
}

// Packed returns the frame planes concatenated without row padding.
func (f *Frame) Packed() []byte {
	out := make([]byte, 0, PackedSize(f.Width, f.Height, f.Format))
	for i, pl := range f.Planes {
		rowBytes, rows := f.Format.PlaneSize(i, f.Width, f.Height)
		for y := 0; y < rows; y++ {
			start := y * pl.Stride
			if start+rowBytes > len(pl.Data) {
				return out
			}
			out = append(out, pl.Data[start:start+rowBytes]...)
		}
	}
	return out
}

// CompleteRows returns how many picture rows are fully backed by plane data.
func (f *Frame) CompleteRows() int {
	if len(f.Planes) != f.Format.Planes() {
		return 0
	}
	complete := f.Height
	for i, pl := range f.Planes {
		rowBytes, rows := f.Format.PlaneSize(i, f.Width, f.Height)
		avail := 0
		if pl.Stride > 0 && len(pl.Data) >= rowBytes {
			avail = (len(pl.Data)-rowBytes)/pl.Stride + 1
		}
		if avail > rows {
			avail = rows
		}
		if r := avail * f.Format.verticalSubsampling(i); r < complete {
			complete = r
		}
	}
	if complete < 0 {
		return 0
	}
	return complete
}

// Image returns a view of the complete rows of the frame as an image.Image.
// The view shares memory with the frame.
func (f *Frame) Image() (image.Image, error) {
	rows := f.CompleteRows()
	if rows == 0 {
		return nil, fmt.Errorf("ports: %s frame %dx%d has no complete rows", f.Format, f.Width, f.Height)
	}
	rect := image.Rect(0, 0, f.Width, rows)
	switch f.Format {
	case PixelFormatYUV420P, PixelFormatYUV422P, PixelFormatYUV444P:
		ratio := image.YCbCrSubsampleRatio420
		switch f.Format {
		case PixelFormatYUV422P:
			ratio = image.YCbCrSubsampleRatio422
		case PixelFormatYUV444P:
			ratio = image.YCbCrSubsampleRatio444
		}
		return &image.YCbCr{
			Y:              f.Planes[0].Data,
			Cb:             f.Planes[1].Data,
			Cr:             f.Planes[2].Data,
			YStride:        f.Planes[0].Stride,
			CStride:        f.Planes[1].Stride,
			SubsampleRatio: ratio,
			Rect:           rect,
		}, nil
	case PixelFormatNV12:
		return &nv12Image{y: f.Planes[0], uv: f.Planes[1], rect: rect}, nil
	case PixelFormatRGB24:
		return &rgb24Image{pl: f.Planes[0], rect: rect}, nil
	case PixelFormatRGBA:
		return &image.RGBA{Pix: f.Planes[0].Data, Stride: f.Planes[0].Stride, Rect: rect}, nil
	case PixelFormatGray:
		return &image.Gray{Pix: f.Planes[0].Data, Stride: f.Planes[0].Stride, Rect: rect}, nil
	}
	return nil, fmt.Errorf("ports: unsupported pixel format %s", f.Format)
}

// FrameFromImage copies an image into a new frame. YCbCr images keep their
// planar layout, gray stays gray and everything else becomes rgba.
func FrameFromImage(img image.Image, pts int64) (*Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var format PixelFormat
	switch src := img.(type) {
	case *image.YCbCr:
		switch src.SubsampleRatio {
		case image.YCbCrSubsampleRatio420:
			format = PixelFormatYUV420P
		case image.YCbCrSubsampleRatio422:
			format = PixelFormatYUV422P
		case image.YCbCrSubsampleRatio444:
			format = PixelFormatYUV444P
		}
		if format != "" {
			f, err := NewFrame(w, h, format)
			if err != nil {
				return nil, err
			}
			f.PTS = pts
			copyYCbCr(f, src)
			return f, nil
		}
	case *image.Gray:
		f, err := NewFrame(w, h, PixelFormatGray)
		if err != nil {
			return nil, err
		}
		f.PTS = pts
		for y := 0; y < h; y++ {
			copy(f.Planes[0].Data[y*f.Planes[0].Stride:], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):][:w])
		}
		return f, nil
	}

	f, err := NewFrame(w, h, PixelFormatRGBA)
	if err != nil {
		return nil, err
	}
	f.PTS = pts
	dst := &image.RGBA{Pix: f.Planes[0].Data, Stride: f.Planes[0].Stride, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return f, nil
}

func copyYCbCr(f *Frame, src *image.YCbCr) {
	b := src.Rect
	for y := 0; y < f.Height; y++ {
		copy(f.Planes[0].Data[y*f.Planes[0].Stride:], src.Y[src.YOffset(b.Min.X, b.Min.Y+y):][:f.Width])
	}
	cw, rows := f.Format.PlaneSize(1, f.Width, f.Height)
	vsub := f.Format.verticalSubsampling(1)
	for y := 0; y < rows; y++ {
		so := src.COffset(b.Min.X, b.Min.Y+y*vsub)
		copy(f.Planes[1].Data[y*f.Planes[1].Stride:], src.Cb[so:][:cw])
		copy(f.Planes[2].Data[y*f.Planes[2].Stride:], src.Cr[so:][:cw])
	}
}

type nv12Image struct {
	y, uv Plane
	rect  image.Rectangle
}

func (m *nv12Image) ColorModel() color.Model { return color.YCbCrModel }
func (m *nv12Image) Bounds() image.Rectangle { return m.rect }
func (m *nv12Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(m.rect)) {
		return color.YCbCr{}
	}
	c := (y/2)*m.uv.Stride + (x/2)*2
	return color.YCbCr{Y: m.y.Data[y*m.y.Stride+x], Cb: m.uv.Data[c], Cr: m.uv.Data[c+1]}
}

type rgb24Image struct {
	pl   Plane
	rect image.Rectangle
}

func (m *rgb24Image) ColorModel() color.Model { return color.RGBAModel }
func (m *rgb24Image) Bounds() image.Rectangle { return m.rect }
func (m *rgb24Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(m.rect)) {
		return color.RGBA{}
	}
	i := y*m.pl.Stride + x*3
	return color.RGBA{R: m.pl.Data[i], G: m.pl.Data[i+1], B: m.pl.Data[i+2], A: 0xff}
}
