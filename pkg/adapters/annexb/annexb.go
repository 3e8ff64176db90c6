// Package annexb converts between length-prefixed (AVCC/HVCC) and start-code
// prefixed (Annex B) NAL unit streams.
package annexb

import "bytes"

var startCode = []byte{0, 0, 0, 1}

// FromAVCC converts 4-byte length-prefixed NAL units to Annex B.
// A truncated trailing unit is dropped.
func FromAVCC(data []byte) []byte {
	result := make([]byte, 0, len(data)+16)
	offset := 0
	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}
		result = append(result, startCode...)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}
	return result
}

// Join prefixes every NAL unit with a start code and concatenates them.
func Join(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, startCode...)
		out = append(out, n...)
	}
	return out
}

// HasStartCode reports whether data already begins with an Annex B start code.
func HasStartCode(data []byte) bool {
	return bytes.HasPrefix(data, startCode) || bytes.HasPrefix(data, startCode[1:])
}
