package rvc

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		ImageWidth:  320,
		ImageHeight: 240,
		FPS:         29.97,
		FrameCount:  42,
		Metadata:    []byte("hello"),
		IQuant:      NewQMatrices(1.0),
		PQuant:      NewQMatrices(0.5),
	}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got.ImageWidth != h.ImageWidth || got.ImageHeight != h.ImageHeight || got.FrameCount != h.FrameCount {
		t.Fatalf("fixed fields mismatch: %+v", got)
	}
	if got.FPS != h.FPS {
		t.Errorf("fps: got %v, want %v", got.FPS, h.FPS)
	}
	if string(got.Metadata) != "hello" {
		t.Errorf("metadata: got %q", got.Metadata)
	}
	if got.IQuant != h.IQuant || got.PQuant != h.PQuant {
		t.Errorf("qmatrices mismatch")
	}
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("XXXX")
	if _, err := ReadHeader(&buf); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestFrameRecordCursorInvariant(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrameRecord(&buf, FrameI, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("writeFrameRecord: %v", err)
	}
	if err := writeFrameRecord(&buf, FrameP, []byte{9, 9}, []byte{1, 2, 3}); err != nil {
		t.Fatalf("writeFrameRecord: %v", err)
	}

	data := buf.Bytes()
	r := bytes.NewReader(data)

	start0 := int64(0)
	var frameSize uint32
	readLE(t, r, &frameSize)
	cursorAfterLen := start0 + 4
	if r.Size()-int64(r.Len()) != cursorAfterLen {
		t.Fatalf("cursor after length field: got %d, want %d", r.Size()-int64(r.Len()), cursorAfterLen)
	}
	// skip the rest of the first record
	if _, err := r.Seek(int64(frameSize), 1); err != nil {
		t.Fatalf("seek: %v", err)
	}
	pos1 := start0 + 4 + int64(frameSize)
	if cur, _ := r.Seek(0, 1); cur != pos1 {
		t.Fatalf("cursor after frame 0: got %d, want %d", cur, pos1)
	}
}

func readLE(t *testing.T, r *bytes.Reader, v *uint32) {
	t.Helper()
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		t.Fatalf("read: %v", err)
	}
	*v = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
