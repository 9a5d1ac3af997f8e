package rvc

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func checkerImage(w, h, shiftX int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := x - shiftX
			if sx < 0 {
				sx = 0
			}
			v := uint8((sx * 7) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestEncodeDecodeSolidGraySingleFrame(t *testing.T) {
	img := solidImage(8, 8, 128, 128, 128)
	var buf bytes.Buffer
	opt := Options{Quality: 1.0, FPS: 30}
	if err := Encode(&buf, []image.Image{img}, opt); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got *image.RGBA
	err := Decode(&buf, func(i int, im image.Image) error {
		got = im.(*image.RGBA)
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, _ := got.At(x, y).RGBA()
			if diff(uint8(r>>8), 128) > 1 || diff(uint8(g>>8), 128) > 1 || diff(uint8(b>>8), 128) > 1 {
				t.Fatalf("pixel (%d,%d): got (%d,%d,%d)", x, y, r>>8, g>>8, b>>8)
			}
		}
	}
}

func TestEncodeEightIdenticalFramesMotionAndSize(t *testing.T) {
	img := checkerImage(16, 16, 0)
	images := make([]image.Image, 8)
	for i := range images {
		images[i] = img
	}
	var buf bytes.Buffer
	opt := Options{Quality: 0.9, FPS: 30}
	if err := Encode(&buf, images, opt); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	h, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	var iSize uint32
	var pSizes []uint32
	for i := 0; i < int(h.FrameCount); i++ {
		var size uint32
		if err := readUint32LE(&buf, &size); err != nil {
			t.Fatalf("reading frame_size %d: %v", i, err)
		}
		body := make([]byte, size)
		if _, err := buf.Read(body); err != nil {
			t.Fatalf("reading frame body %d: %v", i, err)
		}
		frameType := FrameType(body[0])
		if i == 0 {
			if frameType != FrameI {
				t.Fatalf("frame 0 type = %v, want I", frameType)
			}
			iSize = size
			continue
		}
		mprevLen := le32(body[1:5])
		mm := &MotionMap{Width: 1, Height: 1}
		if err := mm.Read(bytes.NewReader(body[5 : 5+mprevLen])); err != nil {
			t.Fatalf("frame %d motion map: %v", i, err)
		}
		if c := mm.Cells[0]; c != (MotionCell{Kind: CellMotion}) {
			t.Errorf("frame %d cell = %+v, want MOTION(0,0)", i, c)
		}
		if frameType == FrameP {
			pSizes = append(pSizes, size)
		}
	}
	if iSize == 0 {
		t.Fatalf("I-frame size not recorded")
	}
	for i, s := range pSizes {
		if s >= iSize {
			t.Errorf("P-frame %d size %d not smaller than I-frame size %d", i, s, iSize)
		}
	}
}

func TestEncodeShiftedFrameMotionVector(t *testing.T) {
	f0 := checkerImage(32, 32, 0)
	f1 := checkerImage(32, 32, 4)
	var buf bytes.Buffer
	opt := Options{Quality: 0.9, FPS: 30}
	if err := Encode(&buf, []image.Image{f0, f1}, opt); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := ReadHeader(&buf); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	var size0 uint32
	if err := readUint32LE(&buf, &size0); err != nil {
		t.Fatalf("reading frame 0 size: %v", err)
	}
	body0 := make([]byte, size0)
	buf.Read(body0)

	var size1 uint32
	if err := readUint32LE(&buf, &size1); err != nil {
		t.Fatalf("reading frame 1 size: %v", err)
	}
	body1 := make([]byte, size1)
	buf.Read(body1)

	if FrameType(body1[0]) != FrameP {
		t.Fatalf("frame 1 type = %v, want P", FrameType(body1[0]))
	}
	mprevLen := le32(body1[1:5])
	mprevBytes := body1[5 : 5+mprevLen]

	mm := &MotionMap{Width: 2, Height: 2}
	if err := mm.Read(bytes.NewReader(mprevBytes)); err != nil {
		t.Fatalf("MotionMap.Read: %v", err)
	}
	matches := 0
	for _, c := range mm.Cells {
		if c.Kind == CellMotion && c.DX == -4 && c.DY == 0 {
			matches++
		}
	}
	if matches*2 < len(mm.Cells) {
		t.Errorf("expected majority MOTION(-4,0), got %d/%d", matches, len(mm.Cells))
	}
}

func TestEncodeNoMotionAllIntra(t *testing.T) {
	images := make([]image.Image, 14)
	for i := range images {
		images[i] = checkerImage(16, 16, i%3)
	}
	var buf bytes.Buffer
	opt := Options{Quality: 0.9, FPS: 25, NoMotion: true}
	if err := Encode(&buf, images, opt); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	h, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	for i := 0; i < int(h.FrameCount); i++ {
		var size uint32
		if err := readUint32LE(&buf, &size); err != nil {
			t.Fatalf("reading frame_size %d: %v", i, err)
		}
		body := make([]byte, size)
		buf.Read(body)
		if FrameType(body[0]) != FrameI {
			t.Errorf("frame %d type = %v, want I under --nomotion", i, FrameType(body[0]))
		}
	}
}

func TestEncodeThirtyFramesSchedulePattern(t *testing.T) {
	images := make([]image.Image, 30)
	for i := range images {
		images[i] = checkerImage(16, 16, i%5)
	}
	var buf bytes.Buffer
	opt := Options{Quality: 0.95, FPS: 30}
	if err := Encode(&buf, images, opt); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	h, err := ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}

	var types []FrameType
	for i := 0; i < int(h.FrameCount); i++ {
		var size uint32
		if err := readUint32LE(&buf, &size); err != nil {
			t.Fatalf("reading frame_size %d: %v", i, err)
		}
		body := make([]byte, size)
		buf.Read(body)
		types = append(types, FrameType(body[0]))
	}

	if types[0] != FrameI || types[1] != FrameP || types[2] != FrameB || types[3] != FrameB {
		t.Fatalf("coded type prefix = %v, want I P B B", types[:4])
	}
	secondI, pCount := -1, 0
	for i, ty := range types {
		if i > 0 && ty == FrameI {
			secondI = i
			break
		}
		if i > 0 && ty == FrameP {
			pCount++
		}
	}
	if secondI == -1 {
		t.Fatalf("no second I-frame in 30-frame coded sequence")
	}
	if pCount > MaxPFrames {
		t.Errorf("second I-frame follows %d P-frames, want <= %d", pCount, MaxPFrames)
	}
}

func readUint32LE(buf *bytes.Buffer, v *uint32) error {
	var b [4]byte
	if _, err := buf.Read(b[:]); err != nil {
		return err
	}
	*v = le32(b[:])
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
