package nullsink

import "testing"

func TestSink_Write(t *testing.T) {
	sink := New("frame-%02d.png")
	path, err := sink.Write(3, 0, []byte("abcd"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != "frame-03.png" {
		t.Errorf("path = %q, want frame-03.png", path)
	}
	sink.Write(4, 0, []byte("ef"))
	if sink.Count() != 2 || sink.Bytes() != 6 {
		t.Errorf("Count() = %d, Bytes() = %d; want 2, 6", sink.Count(), sink.Bytes())
	}
}

func TestSink_NoTemplate(t *testing.T) {
	path, err := New("").Write(0, 0, nil)
	if err != nil || path != "" {
		t.Errorf("Write() = %q, %v; want empty path", path, err)
	}
}
