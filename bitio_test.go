package rvc

import (
	"bytes"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	for v := int32(-1023); v <= 1023; v++ {
		var buf bytes.Buffer
		bw := NewBitWriter(&buf)
		if err := bw.WriteVarint(v); err != nil {
			t.Fatalf("WriteVarint(%d): %v", v, err)
		}
		if err := bw.Flush(); err != nil {
			t.Fatalf("Flush(%d): %v", v, err)
		}
		w := varintWidth(v)
		br := NewBitReader(&buf)
		got, err := br.ReadVarint(w)
		if err != nil {
			t.Fatalf("ReadVarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d (width %d)", v, got, w)
		}
	}
}

func TestVarintBoundary(t *testing.T) {
	values := []int32{-1024, -1023, -512, -1, 0, 1, 511, 512, 1023}
	for _, v := range values {
		w := varintWidth(v)
		var buf bytes.Buffer
		bw := NewBitWriter(&buf)
		if err := bw.WriteVarint(v); err != nil {
			t.Fatalf("WriteVarint(%d): %v", v, err)
		}
		bw.Flush()
		br := NewBitReader(&buf)
		got, err := br.ReadVarint(w)
		if err != nil {
			t.Fatalf("ReadVarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("boundary round trip %d: got %d", v, got)
		}
	}
}

func TestVarintWidthTooWide(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	if err := bw.WriteVarint(2048); err == nil {
		t.Fatalf("expected width overflow error for 2048")
	}
}

func TestBitWriterPacksLSBFirst(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	// bits 1,0,1,1,0,0,0,0 packed LSB-first -> byte 0x0D
	bits := []uint8{1, 0, 1, 1, 0, 0, 0, 0}
	for _, b := range bits {
		bw.WriteBit(b)
	}
	bw.Flush()
	if got := buf.Bytes()[0]; got != 0x0D {
		t.Errorf("got byte %#x, want 0x0d", got)
	}
}

func TestBitReaderMatchesWriter(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	bits := []uint8{0, 1, 1, 0, 1, 0, 0, 1, 1, 0}
	for _, b := range bits {
		bw.WriteBit(b)
	}
	bw.Flush()
	br := NewBitReader(&buf)
	for i, want := range bits {
		got, err := br.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit %d: %v", i, err)
		}
		if got != want {
			t.Errorf("bit %d: got %d, want %d", i, got, want)
		}
	}
}
