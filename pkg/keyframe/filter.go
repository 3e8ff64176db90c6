package keyframe

import "github.com/user/keythumb/pkg/ports"

// Eligible reports whether pkt should be fed to the decoder: it must be a
// keyframe with a pts on the selected stream, and unless nothing has been
// fed yet (hasLast false) its pts must be at least gap ticks after lastPTS.
func Eligible(pkt *ports.Packet, streamIndex int, gap, lastPTS int64, hasLast bool) bool {
	if pkt == nil || pkt.StreamIndex != streamIndex || !pkt.Keyframe || !pkt.HasPTS() {
		return false
	}
	return !hasLast || pkt.PTS >= lastPTS+gap
}

func (s *Session) eligible(pkt *ports.Packet) bool {
	return Eligible(pkt, s.stream.Index, s.gap, s.lastPTS, s.hasLast)
}
