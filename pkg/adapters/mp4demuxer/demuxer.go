// Package mp4demuxer reads packets from MP4 (ISO-BMFF) files, progressive
// or fragmented, without cgo.
package mp4demuxer

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/keythumb/pkg/adapters/annexb"
	"github.com/user/keythumb/pkg/ports"
)

var (
	// ErrNoTracks is returned for files without a moov box or tracks.
	ErrNoTracks = errors.New("mp4demuxer: no tracks")
	// ErrClosed is returned by ReadPacket after Close.
	ErrClosed = errors.New("mp4demuxer: demuxer closed")
)

// nonSyncSampleFlag is sample_is_non_sync_sample in trun/trex sample flags.
const nonSyncSampleFlag = 0x00010000

// Demuxer emits the samples of every track as packets. Progressive files
// are emitted in file offset order; fragmented files fragment by fragment.
type Demuxer struct {
	r       io.ReadSeeker
	closer  io.Closer
	file    *mp4.File
	streams []ports.StreamInfo

	// track ID -> stream index
	trackIndex map[uint32]int
	trexs      map[uint32]*mp4.TrexBox

	// progressive
	samples []sampleRef
	next    int

	// fragmented
	fragments []*mp4.Fragment
	nextFrag  int
	queue     []*ports.Packet

	closed bool
}

type sampleRef struct {
	stream int
	offset int64
	size   uint32
	dts    int64
	pts    int64
	sync   bool
}

// Open opens and parses the MP4 file at path.
func Open(path string) (*Demuxer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	d, err := NewFromReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// NewFromReader parses an MP4 file from r. Progressive sample data is read
// lazily from r, so it must stay valid until ReadPacket returns io.EOF.
func NewFromReader(r io.ReadSeeker) (*Demuxer, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	moov := file.Moov
	if file.IsFragmented() && file.Init != nil {
		moov = file.Init.Moov
	}
	if moov == nil || len(moov.Traks) == 0 {
		return nil, ErrNoTracks
	}

	d := &Demuxer{
		r:          r,
		file:       file,
		trackIndex: make(map[uint32]int),
		trexs:      make(map[uint32]*mp4.TrexBox),
	}
	for i, trak := range moov.Traks {
		d.streams = append(d.streams, streamInfo(i, trak))
		if trak.Tkhd != nil {
			d.trackIndex[trak.Tkhd.TrackID] = i
		}
	}

	if file.IsFragmented() {
		if moov.Mvex != nil {
			for _, t := range moov.Mvex.Trexs {
				d.trexs[t.TrackID] = t
			}
		}
		for _, seg := range file.Segments {
			d.fragments = append(d.fragments, seg.Fragments...)
		}
		return d, nil
	}

	for i, trak := range moov.Traks {
		refs, err := sampleTable(i, trak)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		d.samples = append(d.samples, refs...)
	}
	sortByOffset(d.samples)
	return d, nil
}

// Streams returns one stream per track, in moov order.
func (d *Demuxer) Streams() []ports.StreamInfo {
	return d.streams
}

// ReadPacket returns the next sample of any track.
func (d *Demuxer) ReadPacket() (*ports.Packet, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if d.file.IsFragmented() {
		return d.readFragmented()
	}
	return d.readProgressive()
}

func (d *Demuxer) readProgressive() (*ports.Packet, error) {
	if d.next >= len(d.samples) {
		return nil, io.EOF
	}
	s := d.samples[d.next]
	d.next++

	if _, err := d.r.Seek(s.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, s.size)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return &ports.Packet{StreamIndex: s.stream, PTS: s.pts, DTS: s.dts, Keyframe: s.sync, Data: data}, nil
}

func (d *Demuxer) readFragmented() (*ports.Packet, error) {
	for len(d.queue) == 0 {
		if d.nextFrag >= len(d.fragments) {
			return nil, io.EOF
		}
		frag := d.fragments[d.nextFrag]
		d.nextFrag++
		pkts, err := d.fragmentPackets(frag)
		if err != nil {
			return nil, err
		}
		d.queue = pkts
	}
	pkt := d.queue[0]
	d.queue = d.queue[1:]
	return pkt, nil
}

// fragmentPackets returns the samples of every known track fragment of
// frag, traf by traf.
func (d *Demuxer) fragmentPackets(frag *mp4.Fragment) ([]*ports.Packet, error) {
	if frag.Moof == nil {
		return nil, nil
	}
	var pkts []*ports.Packet
	for _, traf := range frag.Moof.Trafs {
		if traf.Tfhd == nil {
			continue
		}
		trackID := traf.Tfhd.TrackID
		stream, ok := d.trackIndex[trackID]
		if !ok {
			continue
		}
		// A nil trex makes mp4ff fall back to the first traf.
		trex := d.trexs[trackID]
		if trex == nil {
			trex = &mp4.TrexBox{TrackID: trackID}
		}
		samples, err := frag.GetFullSamples(trex)
		if err != nil {
			return nil, fmt.Errorf("get samples of track %d: %w", trackID, err)
		}
		for _, s := range samples {
			dts := int64(s.DecodeTime)
			pkts = append(pkts, &ports.Packet{
				StreamIndex: stream,
				DTS:         dts,
				PTS:         dts + int64(s.CompositionTimeOffset),
				Keyframe:    s.Flags&nonSyncSampleFlag == 0,
				Data:        s.Data,
			})
		}
	}
	return pkts, nil
}

// Close releases the underlying file, if the demuxer opened it.
func (d *Demuxer) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.samples = nil
	d.queue = nil
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

var _ ports.Demuxer = (*Demuxer)(nil)

func streamInfo(index int, trak *mp4.TrakBox) ports.StreamInfo {
	info := ports.StreamInfo{Index: index, Codec: ports.CodecParameters{CodecID: ports.CodecUnknown}}
	if trak.Mdia == nil {
		return info
	}
	if trak.Mdia.Hdlr != nil {
		switch trak.Mdia.Hdlr.HandlerType {
		case "vide":
			info.MediaType = ports.MediaTypeVideo
		case "soun":
			info.MediaType = ports.MediaTypeAudio
		default:
			info.MediaType = ports.MediaTypeData
		}
	}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		info.TimeBase = ports.Rational{Num: 1, Den: int(trak.Mdia.Mdhd.Timescale)}
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return info
	}
	if children := trak.Mdia.Minf.Stbl.Stsd.Children; len(children) > 0 {
		info.Codec = codecParameters(children[0])
	}
	return info
}

func codecParameters(entry mp4.Box) ports.CodecParameters {
	params := ports.CodecParameters{CodecID: CodecFromSampleEntry(entry.Type()), Native: entry}
	vse, ok := entry.(*mp4.VisualSampleEntryBox)
	if !ok {
		return params
	}
	params.Width = int(vse.Width)
	params.Height = int(vse.Height)

	switch {
	case vse.AvcC != nil:
		params.ExtraData = annexb.Join(append(append([][]byte{}, vse.AvcC.SPSnalus...), vse.AvcC.PPSnalus...)...)
	case vse.HvcC != nil:
		var nalus [][]byte
		for _, arr := range vse.HvcC.NaluArrays {
			nalus = append(nalus, arr.Nalus...)
		}
		params.ExtraData = annexb.Join(nalus...)
	case vse.Av1C != nil:
		params.ExtraData = append([]byte(nil), vse.Av1C.ConfigOBUs...)
	}
	return params
}

// CodecFromSampleEntry maps a sample entry four-character code to a codec.
func CodecFromSampleEntry(fourCC string) ports.CodecID {
	switch fourCC {
	case "avc1", "avc3":
		return ports.CodecH264
	case "hvc1", "hev1":
		return ports.CodecHEVC
	case "av01":
		return ports.CodecAV1
	case "vp09":
		return ports.CodecVP9
	case "mp4a":
		return ports.CodecAAC
	default:
		return ports.CodecUnknown
	}
}
