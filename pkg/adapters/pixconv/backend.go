package pixconv

import "github.com/user/keythumb/pkg/ports"

// Factory builds converters with a fixed scaling kernel.
type Factory struct {
	Kernel Kernel
}

// NewConverter implements the converter half of ports.EncoderBackend.
func (f Factory) NewConverter(srcW, srcH int, srcFormat ports.PixelFormat, dstW, dstH int, dstFormat ports.PixelFormat) (ports.ColorConverter, error) {
	return New(srcW, srcH, srcFormat, dstW, dstH, dstFormat, f.Kernel)
}
