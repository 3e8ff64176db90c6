// Package pixconv converts raw frames between pixel formats and sizes
// without cgo.
package pixconv

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/user/keythumb/pkg/ports"
)

// ErrGeometryMismatch is returned when a frame does not match the geometry
// the converter was built for.
var ErrGeometryMismatch = errors.New("pixconv: frame does not match converter geometry")

// Kernel names a scaling interpolator.
type Kernel string

const (
	KernelNearest    Kernel = "nearest"
	KernelBilinear   Kernel = "bilinear"
	KernelCatmullRom Kernel = "catmullrom"
)

func (k Kernel) interpolator() (draw.Interpolator, error) {
	switch k {
	case "", KernelBilinear:
		return draw.ApproxBiLinear, nil
	case KernelNearest:
		return draw.NearestNeighbor, nil
	case KernelCatmullRom:
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("pixconv: unknown kernel %q", k)
}

// Converter converts srcW x srcH frames of one format into dstW x dstH
// frames of another.
type Converter struct {
	srcW, srcH int
	srcFormat  ports.PixelFormat
	dstW, dstH int
	dstFormat  ports.PixelFormat
	scaler     draw.Interpolator
}

// New builds a converter.
func New(srcW, srcH int, srcFormat ports.PixelFormat, dstW, dstH int, dstFormat ports.PixelFormat, kernel Kernel) (*Converter, error) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return nil, fmt.Errorf("pixconv: invalid size %dx%d -> %dx%d", srcW, srcH, dstW, dstH)
	}
	if !srcFormat.Supported() {
		return nil, fmt.Errorf("pixconv: unsupported source format %s", srcFormat)
	}
	if !dstFormat.Supported() {
		return nil, fmt.Errorf("pixconv: unsupported destination format %s", dstFormat)
	}
	scaler, err := kernel.interpolator()
	if err != nil {
		return nil, err
	}
	return &Converter{
		srcW: srcW, srcH: srcH, srcFormat: srcFormat,
		dstW: dstW, dstH: dstH, dstFormat: dstFormat,
		scaler: scaler,
	}, nil
}

// Convert writes src into dst and returns the number of dst rows produced.
// Source rows missing from the plane data are not converted.
func (c *Converter) Convert(src, dst *ports.Frame) (int, error) {
	if src.Width != c.srcW || src.Height != c.srcH || src.Format != c.srcFormat {
		return 0, fmt.Errorf("%w: source %dx%d %s", ErrGeometryMismatch, src.Width, src.Height, src.Format)
	}
	if dst.Width != c.dstW || dst.Height != c.dstH || dst.Format != c.dstFormat {
		return 0, fmt.Errorf("%w: destination %dx%d %s", ErrGeometryMismatch, dst.Width, dst.Height, dst.Format)
	}

	srcRows := src.CompleteRows()
	if srcRows == 0 {
		return 0, nil
	}
	rows := srcRows * c.dstH / c.srcH
	if r := dst.CompleteRows(); r < rows {
		rows = r
	}
	if rows == 0 {
		return 0, nil
	}
	dst.PTS = src.PTS

	if c.srcW == c.dstW && c.srcH == c.dstH && c.srcFormat == c.dstFormat {
		copyRows(src, dst, rows)
		return rows, nil
	}

	img, err := src.Image()
	if err != nil {
		return 0, err
	}
	rgba := image.NewRGBA(image.Rect(0, 0, c.dstW, rows))
	if c.srcW == c.dstW && c.srcH == c.dstH {
		draw.Draw(rgba, rgba.Rect, img, image.Point{}, draw.Src)
	} else {
		c.scaler.Scale(rgba, rgba.Rect, img, img.Bounds(), draw.Src, nil)
	}
	writeRGBA(dst, rgba)
	return rows, nil
}

// Close is a no-op; the converter holds no external resources.
func (c *Converter) Close() error { return nil }

var _ ports.ColorConverter = (*Converter)(nil)

func copyRows(src, dst *ports.Frame, rows int) {
	for i := range dst.Planes {
		rowBytes, planeRows := dst.Format.PlaneSize(i, dst.Width, dst.Height)
		n := planeRows
		if rows < dst.Height {
			n = planeRows * rows / dst.Height
		}
		for y := 0; y < n; y++ {
			copy(dst.Planes[i].Data[y*dst.Planes[i].Stride:][:rowBytes], src.Planes[i].Data[y*src.Planes[i].Stride:][:rowBytes])
		}
	}
}

// writeRGBA stores an opaque RGBA image into the top rows of dst.
func writeRGBA(dst *ports.Frame, img *image.RGBA) {
	w, rows := img.Rect.Dx(), img.Rect.Dy()
	switch dst.Format {
	case ports.PixelFormatRGBA:
		for y := 0; y < rows; y++ {
			copy(dst.Planes[0].Data[y*dst.Planes[0].Stride:][:w*4], img.Pix[y*img.Stride:])
		}
	case ports.PixelFormatRGB24:
		for y := 0; y < rows; y++ {
			in := img.Pix[y*img.Stride:]
			out := dst.Planes[0].Data[y*dst.Planes[0].Stride:]
			for x := 0; x < w; x++ {
				out[x*3], out[x*3+1], out[x*3+2] = in[x*4], in[x*4+1], in[x*4+2]
			}
		}
	case ports.PixelFormatGray:
		for y := 0; y < rows; y++ {
			in := img.Pix[y*img.Stride:]
			out := dst.Planes[0].Data[y*dst.Planes[0].Stride:]
			for x := 0; x < w; x++ {
				r, g, b := uint32(in[x*4]), uint32(in[x*4+1]), uint32(in[x*4+2])
				out[x] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
			}
		}
	default:
		writeYCbCr(dst, img)
	}
}

// writeYCbCr converts to Y'CbCr, averaging chroma over each subsampled block.
func writeYCbCr(dst *ports.Frame, img *image.RGBA) {
	w, rows := img.Rect.Dx(), img.Rect.Dy()
	hsub, vsub := 1, 1
	switch dst.Format {
	case ports.PixelFormatYUV420P, ports.PixelFormatNV12:
		hsub, vsub = 2, 2
	case ports.PixelFormatYUV422P:
		hsub = 2
	}
	cw := (w + hsub - 1) / hsub
	ch := (rows + vsub - 1) / vsub
	sumCb := make([]uint32, cw*ch)
	sumCr := make([]uint32, cw*ch)
	count := make([]uint32, cw*ch)

	yPlane := dst.Planes[0]
	for y := 0; y < rows; y++ {
		in := img.Pix[y*img.Stride:]
		out := yPlane.Data[y*yPlane.Stride:]
		for x := 0; x < w; x++ {
			yy, cb, cr := color.RGBToYCbCr(in[x*4], in[x*4+1], in[x*4+2])
			out[x] = yy
			i := (y/vsub)*cw + x/hsub
			sumCb[i] += uint32(cb)
			sumCr[i] += uint32(cr)
			count[i]++
		}
	}

	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			i := cy*cw + cx
			n := count[i]
			cb := uint8((sumCb[i] + n/2) / n)
			cr := uint8((sumCr[i] + n/2) / n)
			if dst.Format == ports.PixelFormatNV12 {
				uv := dst.Planes[1]
				uv.Data[cy*uv.Stride+cx*2] = cb
				uv.Data[cy*uv.Stride+cx*2+1] = cr
				continue
			}
			dst.Planes[1].Data[cy*dst.Planes[1].Stride+cx] = cb
			dst.Planes[2].Data[cy*dst.Planes[2].Stride+cx] = cr
		}
	}
}
