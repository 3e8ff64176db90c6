package mocks

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"
)

// FixtureSample describes one sample of a generated MP4 file.
type FixtureSample struct {
	DecodeTime uint64
	Dur        uint32
	Keyframe   bool
	Data       []byte

	// CompositionOffset is pts minus dts, in track ticks.
	CompositionOffset int32
}

func av1SampleEntry(width, height int) *mp4.VisualSampleEntryBox {
	av1C := &mp4.Av1CBox{
		CodecConfRec: av1.CodecConfRec{
			Version:            1,
			SeqLevelIdx0:       8,
			ChromaSubsamplingX: 1,
			ChromaSubsamplingY: 1,
			ConfigOBUs:         []byte{0x0a, 0x0b, 0x00, 0x00, 0x00, 0x24, 0xc6, 0xab, 0xdf, 0x3e, 0xfe, 0x24, 0x04},
		},
	}
	return mp4.CreateVisualSampleEntryBox("av01", uint16(width), uint16(height), av1C)
}

// aacSampleEntry is a 48 kHz stereo AAC-LC entry.
func aacSampleEntry() *mp4.AudioSampleEntryBox {
	return mp4.CreateAudioSampleEntryBox("mp4a", 2, 16, 48000, mp4.CreateEsdsBox([]byte{0x11, 0x90}))
}

func addVideoEntry(trak *mp4.TrakBox, width, height int) {
	trak.Mdia.Minf.Stbl.Stsd.AddChild(av1SampleEntry(width, height))
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)
}

func fullSample(s FixtureSample) mp4.FullSample {
	flags := mp4.NonSyncSampleFlags
	if s.Keyframe {
		flags = mp4.SyncSampleFlags
	}
	return mp4.FullSample{
		Sample: mp4.Sample{
			Flags:                 flags,
			Size:                  uint32(len(s.Data)),
			Dur:                   s.Dur,
			CompositionTimeOffset: s.CompositionOffset,
		},
		DecodeTime: s.DecodeTime,
		Data:       s.Data,
	}
}

func encodeHeader(buf *bytes.Buffer, moov *mp4.MoovBox) error {
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "av01", "mp41"})
	if err := ftyp.Encode(buf); err != nil {
		return fmt.Errorf("encode ftyp: %w", err)
	}
	if err := moov.Encode(buf); err != nil {
		return fmt.Errorf("encode moov: %w", err)
	}
	return nil
}

// FragmentedAV1 builds a fragmented MP4 file with one av01 video track.
// Samples are split into fragments of perFragment samples.
func FragmentedAV1(width, height int, timescale uint32, perFragment int, samples []FixtureSample) ([]byte, error) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak
	addVideoEntry(trak, width, height)

	var buf bytes.Buffer
	if err := encodeHeader(&buf, init.Moov); err != nil {
		return nil, err
	}

	if perFragment <= 0 {
		perFragment = len(samples)
	}
	for start, seq := 0, uint32(1); start < len(samples); start, seq = start+perFragment, seq+1 {
		end := start + perFragment
		if end > len(samples) {
			end = len(samples)
		}
		frag, err := mp4.CreateFragment(seq, trak.Tkhd.TrackID)
		if err != nil {
			return nil, fmt.Errorf("create fragment: %w", err)
		}
		for _, s := range samples[start:end] {
			frag.AddFullSample(fullSample(s))
		}
		if err := frag.Encode(&buf); err != nil {
			return nil, fmt.Errorf("encode fragment: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// MultiTrackFragment builds a fragmented MP4 file with an mp4a track 1 and
// an av01 track 2, whose samples share a single moof. The audio traf comes
// first.
func MultiTrackFragment(width, height int, timescale uint32, audio, video []FixtureSample) ([]byte, error) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "en")
	init.AddEmptyTrack(timescale, "video", "en")
	audioTrak, videoTrak := init.Moov.Traks[0], init.Moov.Traks[1]
	audioTrak.Mdia.Minf.Stbl.Stsd.AddChild(aacSampleEntry())
	addVideoEntry(videoTrak, width, height)

	var buf bytes.Buffer
	if err := encodeHeader(&buf, init.Moov); err != nil {
		return nil, err
	}

	audioID, videoID := audioTrak.Tkhd.TrackID, videoTrak.Tkhd.TrackID
	frag, err := mp4.CreateMultiTrackFragment(1, []uint32{audioID, videoID})
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}
	for _, s := range audio {
		if err := frag.AddFullSampleToTrack(fullSample(s), audioID); err != nil {
			return nil, fmt.Errorf("add audio sample: %w", err)
		}
	}
	for _, s := range video {
		if err := frag.AddFullSampleToTrack(fullSample(s), videoID); err != nil {
			return nil, fmt.Errorf("add video sample: %w", err)
		}
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// ProgressiveTrack describes one track of a generated progressive file.
// Decode times follow the sample durations; DecodeTime is ignored.
type ProgressiveTrack struct {
	Video           bool // av01 when set, mp4a otherwise
	Timescale       uint32
	SamplesPerChunk int
	Samples         []FixtureSample

	// OmitStss leaves out the sync sample box, so every sample is sync.
	OmitStss bool
}

// Progressive builds a progressive MP4 file: ftyp, one mdat holding the
// chunks of all tracks interleaved round-robin, then moov.
func Progressive(width, height int, tracks []ProgressiveTrack) ([]byte, error) {
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "av01", "mp41"})
	const mdatHeader = 8
	base := ftyp.Size() + mdatHeader

	chunks := make([][][]FixtureSample, len(tracks))
	rounds := 0
	for i, tr := range tracks {
		per := tr.SamplesPerChunk
		if per <= 0 {
			per = 1
		}
		for start := 0; start < len(tr.Samples); start += per {
			end := start + per
			if end > len(tr.Samples) {
				end = len(tr.Samples)
			}
			chunks[i] = append(chunks[i], tr.Samples[start:end])
		}
		if len(chunks[i]) > rounds {
			rounds = len(chunks[i])
		}
	}

	var payload []byte
	offsets := make([][]uint32, len(tracks))
	for r := 0; r < rounds; r++ {
		for i := range tracks {
			if r >= len(chunks[i]) {
				continue
			}
			offsets[i] = append(offsets[i], uint32(base+uint64(len(payload))))
			for _, s := range chunks[i][r] {
				payload = append(payload, s.Data...)
			}
		}
	}

	moov := mp4.NewMoovBox()
	mvhd := mp4.CreateMvhd()
	mvhd.NextTrackID = uint32(len(tracks) + 1)
	moov.AddChild(mvhd)
	for i, tr := range tracks {
		mediaType := "audio"
		if tr.Video {
			mediaType = "video"
		}
		trak := mp4.CreateEmptyTrak(uint32(i+1), tr.Timescale, mediaType, "und")
		if tr.Video {
			addVideoEntry(trak, width, height)
		} else {
			trak.Mdia.Minf.Stbl.Stsd.AddChild(aacSampleEntry())
		}
		if err := fillSampleTable(trak.Mdia.Minf.Stbl, tr, chunks[i], offsets[i]); err != nil {
			return nil, fmt.Errorf("track %d: %w", i+1, err)
		}
		moov.AddChild(trak)
	}

	var buf bytes.Buffer
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	mdat := &mp4.MdatBox{}
	mdat.SetData(payload)
	if err := mdat.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode mdat: %w", err)
	}
	if err := moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	return buf.Bytes(), nil
}

func fillSampleTable(stbl *mp4.StblBox, tr ProgressiveTrack, chunks [][]FixtureSample, offsets []uint32) error {
	for nr, chunk := range chunks {
		// A new stsc entry starts wherever the chunk size changes.
		if nr == 0 || len(chunk) != len(chunks[nr-1]) {
			if err := stbl.Stsc.AddEntry(uint32(nr+1), uint32(len(chunk)), 1); err != nil {
				return err
			}
		}
	}
	stbl.Stco.ChunkOffset = offsets

	var sync []uint32
	var counts []uint32
	var ctos []int32
	hasCTO, negative := false, false
	for i, s := range tr.Samples {
		stbl.Stts.SampleCount = append(stbl.Stts.SampleCount, 1)
		stbl.Stts.SampleTimeDelta = append(stbl.Stts.SampleTimeDelta, s.Dur)
		stbl.Stsz.SampleSize = append(stbl.Stsz.SampleSize, uint32(len(s.Data)))
		if s.Keyframe {
			sync = append(sync, uint32(i+1))
		}
		counts = append(counts, 1)
		ctos = append(ctos, s.CompositionOffset)
		if s.CompositionOffset != 0 {
			hasCTO = true
		}
		if s.CompositionOffset < 0 {
			negative = true
		}
	}
	stbl.Stsz.SampleNumber = uint32(len(tr.Samples))

	if hasCTO {
		ctts := &mp4.CttsBox{}
		if negative {
			ctts.Version = 1
		}
		if err := ctts.AddSampleCountsAndOffset(counts, ctos); err != nil {
			return err
		}
		stbl.AddChild(ctts)
	}
	if tr.Video && !tr.OmitStss {
		stbl.AddChild(&mp4.StssBox{SampleNumber: sync})
	}
	return nil
}
