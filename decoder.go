package rvc

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"

	"github.com/pkg/errors"
)

// Decoder walks an NRVC container and reconstructs frames, maintaining the
// two reconstructed reference slots (§4.7) and three Macroblock scratch
// slots reused across frames.
type Decoder struct {
	r      io.Reader
	Header Header

	prevSupport, nextSupport *Frame

	target, predictor, other Macroblock
}

// NewDecoder reads and validates the container header from r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r, Header: h}, nil
}

// Decode reads the container's header and all frame_count records, calling
// fn with the reconstructed image in display order. Records arrive off the
// wire in coded order (§4.5's I/P/B interleaving puts B-frames' display
// indices between the P/I "supports" that are coded after them), so Decode
// recomputes the same Schedule the encoder used to map each record back to
// its DisplayIndex, buffers the reconstructed frames, and only then invokes
// fn in order 0..frame_count-1.
func Decode(r io.Reader, fn func(index int, img image.Image) error) error {
	dec, err := NewDecoder(r)
	if err != nil {
		return err
	}
	n := int(dec.Header.FrameCount)
	sched := Schedule(n)
	if len(sched) != n {
		return formatErrorf("schedule length %d does not match frame_count %d", len(sched), n)
	}

	images := make([]image.Image, n)
	for i := 0; i < n; i++ {
		f, err := dec.DecodeFrame()
		if err != nil {
			return errors.Wrapf(err, "decoding coded frame %d", i)
		}
		images[sched[i].DisplayIndex] = f.ToRGBA()
	}
	for idx, img := range images {
		if err := fn(idx, img); err != nil {
			return err
		}
	}
	return nil
}

// DecodeFrame reads and reconstructs the next frame record.
func (d *Decoder) DecodeFrame() (*Frame, error) {
	var frameSize uint32
	if err := binary.Read(d.r, binary.LittleEndian, &frameSize); err != nil {
		return nil, errors.Wrap(err, "reading frame_size")
	}

	// Reading exactly frame_size bytes up front, then parsing from this
	// bounded slice, gives the "seek to the recorded next-frame position"
	// recovery of spec §4.7 for free: any unconsumed tail is simply
	// discarded as trailing padding.
	body := make([]byte, frameSize)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, errors.Wrap(err, "reading frame body")
	}
	br := bytes.NewReader(body)

	if br.Len() == 0 {
		return nil, formatErrorf("empty frame body")
	}
	var frameTypeByte [1]byte
	if _, err := br.Read(frameTypeByte[:]); err != nil {
		return nil, errors.Wrap(err, "reading frame_type")
	}
	frameType := FrameType(frameTypeByte[0])

	width, height := int(d.Header.ImageWidth), int(d.Header.ImageHeight)
	cur := NewFrame(width, height)

	switch frameType {
	case FrameI:
		dct, err := readFramePart(br)
		if err != nil {
			return nil, err
		}
		if err := d.decodeIntraPlanes(cur, dct, d.Header.IQuant); err != nil {
			return nil, err
		}
		d.prevSupport, d.nextSupport = d.nextSupport, cur

	case FrameP:
		mprev, err := readFramePart(br)
		if err != nil {
			return nil, err
		}
		dct, err := readFramePart(br)
		if err != nil {
			return nil, err
		}
		if d.nextSupport == nil {
			return nil, formatErrorf("P-frame with no reference frame")
		}
		// The most recent support becomes prevSupport and is the P-frame's
		// predictor; the decoded P-frame then becomes nextSupport.
		d.prevSupport = d.nextSupport
		if err := d.decodeInterPlanes(cur, mprev, nil, dct, d.Header.PQuant); err != nil {
			return nil, err
		}
		d.nextSupport = cur

	case FrameB:
		mprev, err := readFramePart(br)
		if err != nil {
			return nil, err
		}
		mnext, err := readFramePart(br)
		if err != nil {
			return nil, err
		}
		dct, err := readFramePart(br)
		if err != nil {
			return nil, err
		}
		if d.prevSupport == nil || d.nextSupport == nil {
			return nil, formatErrorf("B-frame with missing reference frame")
		}
		if err := d.decodeInterPlanes(cur, mprev, mnext, dct, d.Header.PQuant); err != nil {
			return nil, err
		}
		// B-frames do not update the reference slots.

	default:
		return nil, formatErrorf("unknown frame_type %d", frameTypeByte[0])
	}

	return cur, nil
}

// decodeIntraPlanes fills cur entirely from intra-coded macroblocks.
func (d *Decoder) decodeIntraPlanes(cur *Frame, dct []byte, q QMatrices) error {
	br := NewBitReader(bytes.NewReader(dct))
	for my := 0; my < cur.MacroblocksHigh(); my++ {
		for mx := 0; mx < cur.MacroblocksWide(); mx++ {
			if err := d.target.ReadEntropy(br); err != nil {
				return errors.Wrap(err, "decoding I macroblock")
			}
			d.target.InverseTransform(q)
			cur.ApplyMacroblock(mx*16, my*16, &d.target)
		}
	}
	return nil
}

// decodeInterPlanes reconstructs cur from one or two MotionMaps (mnext may
// be nil for a P-frame) plus the residual DCT stream, per spec §4.7.
func (d *Decoder) decodeInterPlanes(cur *Frame, mprevBytes, mnextBytes, dct []byte, q QMatrices) error {
	wide, high := cur.MacroblocksWide(), cur.MacroblocksHigh()

	mmPrev := &MotionMap{Width: wide, Height: high}
	if err := mmPrev.Read(bytes.NewReader(mprevBytes)); err != nil {
		return errors.Wrap(err, "reading prev motion map")
	}
	var mmNext *MotionMap
	if mnextBytes != nil {
		mmNext = &MotionMap{Width: wide, Height: high}
		if err := mmNext.Read(bytes.NewReader(mnextBytes)); err != nil {
			return errors.Wrap(err, "reading next motion map")
		}
	}

	br := NewBitReader(bytes.NewReader(dct))
	for my := 0; my < high; my++ {
		for mx := 0; mx < wide; mx++ {
			dstX, dstY := mx*16, my*16
			idx := mx + my*wide

			if err := d.target.ReadEntropy(br); err != nil {
				return errors.Wrap(err, "decoding inter macroblock")
			}
			d.target.InverseTransform(q)

			cp := mmPrev.Cells[idx]
			var cn MotionCell
			if mmNext != nil {
				cn = mmNext.Cells[idx]
			}

			switch {
			case mmNext == nil:
				if cp.Kind == CellMotion {
					d.prevSupport.ExtractMacroblock(dstX+cp.DX, dstY+cp.DY, &d.predictor)
					d.target.Add(&d.predictor)
				}
			case cp.Kind == CellMotion && cn.Kind == CellMotion:
				d.prevSupport.ExtractMacroblock(dstX+cp.DX, dstY+cp.DY, &d.predictor)
				d.nextSupport.ExtractMacroblock(dstX+cn.DX, dstY+cn.DY, &d.other)
				d.predictor.Average(&d.other)
				d.target.Add(&d.predictor)
			case cp.Kind == CellMotion:
				d.prevSupport.ExtractMacroblock(dstX+cp.DX, dstY+cp.DY, &d.predictor)
				d.target.Add(&d.predictor)
			case cn.Kind == CellMotion:
				d.nextSupport.ExtractMacroblock(dstX+cn.DX, dstY+cn.DY, &d.predictor)
				d.target.Add(&d.predictor)
			}

			cur.ApplyMacroblock(dstX, dstY, &d.target)
		}
	}
	return nil
}
