package mp4demuxer

import (
	"fmt"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"
)

// sampleTable resolves offset, size, timing and sync flag of every sample
// of a progressive track.
func sampleTable(stream int, trak *mp4.TrakBox) ([]sampleRef, error) {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return nil, nil
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, nil
	}
	count := stbl.Stsz.SampleNumber
	if count == 0 {
		return nil, nil
	}
	if err := checkTables(stbl, count); err != nil {
		return nil, err
	}

	var sync map[uint32]bool
	if stbl.Stss != nil {
		sync = make(map[uint32]bool, len(stbl.Stss.SampleNumber))
		for _, nr := range stbl.Stss.SampleNumber {
			sync[nr] = true
		}
	}

	refs := make([]sampleRef, 0, count)
	prevChunk := -1
	var offset uint64
	for nr := uint32(1); nr <= count; nr++ {
		chunkNr, _, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", nr, err)
		}
		if chunkNr != prevChunk {
			offset, err = chunkOffset(stbl, chunkNr)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", nr, err)
			}
			prevChunk = chunkNr
		}
		size := stbl.Stsz.GetSampleSize(int(nr))

		var dts uint64
		if stbl.Stts != nil {
			dts, _ = stbl.Stts.GetDecodeTime(nr)
		}
		pts := int64(dts)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}

		refs = append(refs, sampleRef{
			stream: stream,
			offset: int64(offset),
			size:   size,
			dts:    int64(dts),
			pts:    pts,
			sync:   sync == nil || sync[nr],
		})
		offset += uint64(size)
	}
	return refs, nil
}

// checkTables rejects tables that mp4ff would index out of range while
// resolving count samples.
func checkTables(stbl *mp4.StblBox, count uint32) error {
	if len(stbl.Stsc.Entries) == 0 {
		return fmt.Errorf("stsc has no entries for %d samples", count)
	}
	for i, e := range stbl.Stsc.Entries {
		if e.SamplesPerChunk == 0 {
			return fmt.Errorf("stsc entry %d has no samples per chunk", i)
		}
	}
	if stbl.Stts != nil {
		if len(stbl.Stts.SampleCount) != len(stbl.Stts.SampleTimeDelta) {
			return fmt.Errorf("stts has %d counts and %d deltas", len(stbl.Stts.SampleCount), len(stbl.Stts.SampleTimeDelta))
		}
		var covered uint64
		for _, n := range stbl.Stts.SampleCount {
			covered += uint64(n)
		}
		if covered < uint64(count) {
			return fmt.Errorf("stts covers %d of %d samples", covered, count)
		}
	}
	if stbl.Ctts != nil {
		ends := stbl.Ctts.EndSampleNr
		if len(ends) == 0 || ends[len(ends)-1] < count || len(stbl.Ctts.SampleOffset) != len(ends)-1 {
			return fmt.Errorf("ctts does not cover %d samples", count)
		}
	}
	return nil
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	switch {
	case stbl.Stco != nil:
		return stbl.Stco.GetOffset(chunkNr)
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk %d out of range", chunkNr)
		}
		return stbl.Co64.ChunkOffset[chunkNr-1], nil
	}
	return 0, fmt.Errorf("no stco or co64 box")
}

// sortByOffset orders samples of all tracks as they appear in the file.
// Samples at the same offset keep track order.
func sortByOffset(refs []sampleRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].offset < refs[j].offset
	})
}
