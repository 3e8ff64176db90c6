package ports

// ImageEncoder encodes raw frames into still-image packets.
type ImageEncoder interface {
	// SendFrame submits one frame in the codec's native pixel format.
	SendFrame(frame *Frame) error

	// ReceivePacket returns the next encoded image, or ErrAgain when none
	// is pending.
	ReceivePacket() ([]byte, error)

	// Close releases encoder resources.
	Close() error
}

// ImageCodec is a resolved still-image encoder implementation.
type ImageCodec interface {
	// Name identifies the implementation.
	Name() string

	// NativePixelFormat is the pixel format the encoder prefers as input.
	NativePixelFormat() PixelFormat

	// Open builds an encoder for pictures of the given size.
	Open(width, height int) (ImageEncoder, error)
}

// ColorConverter remaps pixels between layouts and optionally rescales.
type ColorConverter interface {
	// Convert writes src into dst and returns the number of dst rows produced.
	Convert(src, dst *Frame) (int, error)

	// Close releases converter resources.
	Close() error
}

// EncoderBackend resolves image codecs and builds colour converters.
type EncoderBackend interface {
	// FindEncoder resolves an encoder for the format, false if none exists.
	FindEncoder(format ImageFormat) (ImageCodec, bool)

	// NewConverter builds a converter from srcW x srcH in srcFormat to
	// dstW x dstH in dstFormat.
	NewConverter(srcW, srcH int, srcFormat PixelFormat, dstW, dstH int, dstFormat PixelFormat) (ColorConverter, error)
}
