//go:build ffmpeg

package libav

import (
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/keythumb/pkg/ports"
)

type scaler struct {
	ssc    *astiav.SoftwareScaleContext
	srcFmt astiav.PixelFormat
	dst    *astiav.Frame
	srcW   int
	srcH   int
	dstW   int
	dstH   int
	dstFmt ports.PixelFormat
}

func newScaler(srcW, srcH int, srcFmt ports.PixelFormat, dstW, dstH int, dstFmt ports.PixelFormat) (*scaler, error) {
	sf, err := toAVPixelFormat(srcFmt)
	if err != nil {
		return nil, err
	}
	df, err := toAVPixelFormat(dstFmt)
	if err != nil {
		return nil, err
	}
	flags := astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear)
	ssc, err := astiav.CreateSoftwareScaleContext(srcW, srcH, sf, dstW, dstH, df, flags)
	if err != nil {
		return nil, fmt.Errorf("libav: create scale context: %w", err)
	}

	dst := astiav.AllocFrame()
	dst.SetWidth(dstW)
	dst.SetHeight(dstH)
	dst.SetPixelFormat(df)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return nil, fmt.Errorf("libav: alloc frame buffer: %w", err)
	}
	return &scaler{ssc: ssc, srcFmt: sf, dst: dst, srcW: srcW, srcH: srcH, dstW: dstW, dstH: dstH, dstFmt: dstFmt}, nil
}

// Convert scales src into dst and returns the number of rows written.
// Incomplete sources convert nothing.
func (s *scaler) Convert(src, dst *ports.Frame) (int, error) {
	if src.Width != s.srcW || src.Height != s.srcH || dst.Width != s.dstW || dst.Height != s.dstH || dst.Format != s.dstFmt {
		return 0, fmt.Errorf("libav: frame geometry does not match converter")
	}
	if src.CompleteRows() < src.Height {
		return 0, nil
	}
	af, err := toAVFrame(src, s.srcFmt)
	if err != nil {
		return 0, err
	}
	defer af.Free()

	if err := s.ssc.ScaleFrame(af, s.dst); err != nil {
		return 0, fmt.Errorf("libav: scale frame: %w", err)
	}
	img, err := s.dst.Data().GuessImageFormat()
	if err != nil {
		return 0, fmt.Errorf("libav: guess image format: %w", err)
	}
	if err := s.dst.Data().ToImage(img); err != nil {
		return 0, fmt.Errorf("libav: frame to image: %w", err)
	}
	out, err := ports.FrameFromImage(img, src.PTS)
	if err != nil {
		return 0, err
	}
	if out.Format != dst.Format {
		return 0, fmt.Errorf("%w: %s cannot be read back", ErrUnsupportedFormat, dst.Format)
	}
	for i := range dst.Planes {
		rowBytes, rows := dst.Format.PlaneSize(i, dst.Width, dst.Height)
		for y := 0; y < rows; y++ {
			copy(dst.Planes[i].Data[y*dst.Planes[i].Stride:][:rowBytes], out.Planes[i].Data[y*out.Planes[i].Stride:][:rowBytes])
		}
	}
	dst.PTS = src.PTS
	return dst.Height, nil
}

func (s *scaler) Close() error {
	if s.ssc == nil {
		return nil
	}
	s.dst.Free()
	s.ssc.Free()
	s.ssc = nil
	return nil
}

var _ ports.ColorConverter = (*scaler)(nil)
