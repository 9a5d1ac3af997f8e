package rvc

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var magic = [4]byte{'N', 'R', 'V', 'C'}

const containerVersion = 1

// FrameType tags a coded frame record, per spec §4.6.
type FrameType byte

const (
	FrameI FrameType = 0
	FrameP FrameType = 1
	FrameB FrameType = 2
)

func (t FrameType) String() string {
	switch t {
	case FrameI:
		return "I"
	case FrameP:
		return "P"
	case FrameB:
		return "B"
	default:
		return "?"
	}
}

// Header is the fixed portion of the container, plus the two QMatrices
// records that follow it (one set for I-frames, one for P/B-frames).
type Header struct {
	ImageWidth, ImageHeight uint16
	FPS                     float32
	FrameCount              uint32
	Metadata                []byte
	IQuant, PQuant          QMatrices
}

// WriteHeader writes h's fixed fields, metadata, and both QMatrices
// records, in the byte-exact layout of spec §6.
func WriteHeader(w io.Writer, h Header) error {
	if _, err := w.Write(magic[:]); err != nil {
		return errors.Wrap(err, "writing magic")
	}
	if err := writeByte(w, containerVersion); err != nil {
		return errors.Wrap(err, "writing version")
	}
	if err := binary.Write(w, binary.LittleEndian, h.ImageWidth); err != nil {
		return errors.Wrap(err, "writing image_width")
	}
	if err := binary.Write(w, binary.LittleEndian, h.ImageHeight); err != nil {
		return errors.Wrap(err, "writing image_height")
	}
	if err := binary.Write(w, binary.LittleEndian, h.FPS); err != nil {
		return errors.Wrap(err, "writing fps")
	}
	if err := binary.Write(w, binary.LittleEndian, h.FrameCount); err != nil {
		return errors.Wrap(err, "writing frame_count")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(h.Metadata))); err != nil {
		return errors.Wrap(err, "writing metadata_len")
	}
	if len(h.Metadata) > 0 {
		if _, err := w.Write(h.Metadata); err != nil {
			return errors.Wrap(err, "writing metadata")
		}
	}
	if err := writeQMatrices(w, h.IQuant); err != nil {
		return errors.Wrap(err, "writing I-frame QMatrices")
	}
	if err := writeQMatrices(w, h.PQuant); err != nil {
		return errors.Wrap(err, "writing P/B-frame QMatrices")
	}
	return nil
}

// ReadHeader reads and validates the fixed header and both QMatrices
// records.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return h, errors.Wrap(err, "reading magic")
	}
	if got != magic {
		return h, formatErrorf("bad magic %q", got)
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return h, errors.Wrap(err, "reading version")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.ImageWidth); err != nil {
		return h, errors.Wrap(err, "reading image_width")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.ImageHeight); err != nil {
		return h, errors.Wrap(err, "reading image_height")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.FPS); err != nil {
		return h, errors.Wrap(err, "reading fps")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.FrameCount); err != nil {
		return h, errors.Wrap(err, "reading frame_count")
	}
	var metaLen uint32
	if err := binary.Read(r, binary.LittleEndian, &metaLen); err != nil {
		return h, errors.Wrap(err, "reading metadata_len")
	}
	if metaLen > 0 {
		h.Metadata = make([]byte, metaLen)
		if _, err := io.ReadFull(r, h.Metadata); err != nil {
			return h, errors.Wrap(err, "reading metadata")
		}
	}
	var err error
	if h.IQuant, err = readQMatrices(r); err != nil {
		return h, errors.Wrap(err, "reading I-frame QMatrices")
	}
	if h.PQuant, err = readQMatrices(r); err != nil {
		return h, errors.Wrap(err, "reading P/B-frame QMatrices")
	}
	return h, nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// writeQMatrices writes a 128-byte record: 64 luma bytes (natural order),
// then 64 chroma bytes.
func writeQMatrices(w io.Writer, q QMatrices) error {
	var buf [2 * blockSize]byte
	for i, v := range q.Luma {
		buf[i] = byte(v)
	}
	for i, v := range q.Chroma {
		buf[blockSize+i] = byte(v)
	}
	_, err := w.Write(buf[:])
	return err
}

func readQMatrices(r io.Reader) (QMatrices, error) {
	var q QMatrices
	var buf [2 * blockSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return q, err
	}
	for i := range q.Luma {
		q.Luma[i] = float64(buf[i])
	}
	for i := range q.Chroma {
		q.Chroma[i] = float64(buf[blockSize+i])
	}
	return q, nil
}

// writeFrameRecord writes the length-prefixed frame record of spec §4.6:
// u32 frame_size, u8 frame_type, then each part as a u32 length prefix
// followed by its bytes, in the order given.
func writeFrameRecord(w io.Writer, frameType FrameType, parts ...[]byte) error {
	bodyLen := 1
	for _, p := range parts {
		bodyLen += 4 + len(p)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(bodyLen)); err != nil {
		return errors.Wrap(err, "writing frame_size")
	}
	if err := writeByte(w, byte(frameType)); err != nil {
		return errors.Wrap(err, "writing frame_type")
	}
	for _, p := range parts {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(p))); err != nil {
			return errors.Wrap(err, "writing part length")
		}
		if _, err := w.Write(p); err != nil {
			return errors.Wrap(err, "writing part bytes")
		}
	}
	return nil
}

// readFramePart reads one length-prefixed part from r.
func readFramePart(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, "reading part length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "reading part bytes")
	}
	return buf, nil
}
