package ports

// Demuxer splits an opened container into per-stream packets.
type Demuxer interface {
	// Streams returns the container streams in container order.
	Streams() []StreamInfo

	// ReadPacket returns the next packet of any stream.
	// It returns io.EOF once the container is exhausted.
	ReadPacket() (*Packet, error)

	// Close releases the container.
	Close() error
}

// VideoDecoder turns compressed packets into raw frames using a
// send/receive protocol.
type VideoDecoder interface {
	// SendPacket feeds one packet to the decoder. A nil packet is the
	// flush signal: the decoder emits buffered frames and then io.EOF.
	SendPacket(pkt *Packet) error

	// ReceiveFrame returns the next decoded frame, ErrAgain when more input
	// is needed, or io.EOF once flushed and drained.
	ReceiveFrame() (*Frame, error)

	// Close releases decoder resources.
	Close() error
}

// DecoderCodec is a resolved decoder implementation for one codec.
type DecoderCodec interface {
	// Name identifies the implementation (e.g. "libaom", "ffmpeg").
	Name() string

	// Open builds and opens a decoder configured from stream parameters.
	Open(params CodecParameters) (VideoDecoder, error)
}

// MediaBackend opens containers and resolves decoders.
type MediaBackend interface {
	// OpenContainer opens and parses the container at path.
	OpenContainer(path string) (Demuxer, error)

	// FindDecoder resolves a decoder for the codec, false if none exists.
	FindDecoder(id CodecID) (DecoderCodec, bool)
}
