package ports

// ThumbnailSink persists encoded thumbnails.
type ThumbnailSink interface {
	// Write stores the encoded image for the zero-based sequence number and
	// returns the location it was written to.
	Write(index int, pts int64, data []byte) (string, error)
}
