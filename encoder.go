package rvc

import (
	"bytes"
	"image"
	"io"

	"github.com/pkg/errors"
)

// Options controls how Encode codes a frame sequence.
type Options struct {
	Quality      float64 // [0,1], default handled by caller; clamped again by NewQMatrices
	FPS          float32
	NoMotion     bool // disable inter prediction; every frame is coded as I
	RateAccurate bool // use the "ULT" encoded-size search instead of the fast SAD-threshold one
	Metadata     []byte
}

// Encoder drives the scheduler across a sequence of source images and
// writes the NRVC container to w. It holds the scratch buffers spec §5
// names (buffer_dct, buffer_mprev, buffer_mnext) plus the Macroblock
// scratch slots needed to build both the entropy-coded residual and its
// local reconstruction, reused across frames.
type Encoder struct {
	w   io.Writer
	opt Options
	iq  QMatrices
	pq  QMatrices

	bufDCT, bufMPrev, bufMNext bytes.Buffer

	target, transformed, candidate, altCandidate, reconstructed Macroblock
}

// NewEncoder prepares an Encoder for frameCount frames of the given source
// dimensions, immediately writing the container header.
func NewEncoder(w io.Writer, width, height, frameCount int, opt Options) (*Encoder, error) {
	iq := NewQMatrices(opt.Quality)
	pq := NewQMatrices(opt.Quality)
	h := Header{
		ImageWidth:  uint16(width),
		ImageHeight: uint16(height),
		FPS:         opt.FPS,
		FrameCount:  uint32(frameCount),
		Metadata:    opt.Metadata,
		IQuant:      iq,
		PQuant:      pq,
	}
	if err := WriteHeader(w, h); err != nil {
		return nil, errors.Wrap(err, "writing container header")
	}
	return &Encoder{w: w, opt: opt, iq: iq, pq: pq}, nil
}

// Encode loads images in display order, schedules them I/P/B per spec
// §4.5, and writes one frame record per image. Reference frames used for
// motion compensation are the encoder's own reconstructed (quantized then
// dequantized) output, not the pristine source — the same frames the
// decoder will have on hand — so encoder and decoder never drift apart.
func Encode(w io.Writer, images []image.Image, opt Options) error {
	if len(images) == 0 {
		return errors.New("rvc: no input images")
	}
	bounds := images[0].Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	enc, err := NewEncoder(w, width, height, len(images), opt)
	if err != nil {
		return err
	}

	sourceFrames := make([]*Frame, len(images))
	for i, img := range images {
		b := img.Bounds()
		if b.Dx() != width || b.Dy() != height {
			return errors.Errorf("rvc: frame %d dimensions %dx%d do not match first frame %dx%d", i, b.Dx(), b.Dy(), width, height)
		}
		f := NewFrame(width, height)
		f.LoadRGBA(img)
		sourceFrames[i] = f
	}

	sched := Schedule(len(images))
	if opt.NoMotion {
		for i := range sched {
			sched[i].Type = FrameI
		}
	}

	refs := make(map[int]*Frame, 2)
	for _, sf := range sched {
		cur := sourceFrames[sf.DisplayIndex]
		var rec *Frame
		switch sf.Type {
		case FrameI:
			rec, err = enc.encodeI(cur)
		case FrameP:
			rec, err = enc.encodeP(cur, refs[sf.PrevSupport])
		case FrameB:
			_, err = enc.encodeB(cur, refs[sf.PrevSupport], refs[sf.NextSupport])
		}
		if err != nil {
			return err
		}
		if sf.Type != FrameB {
			refs[sf.DisplayIndex] = rec
		}
	}
	return nil
}

func (e *Encoder) quantFor(t FrameType) QMatrices {
	if t == FrameI {
		return e.iq
	}
	return e.pq
}

// encodeI writes an I-frame record and returns the reconstructed frame that
// becomes the reference for later P/B frames.
func (e *Encoder) encodeI(cur *Frame) (*Frame, error) {
	e.bufDCT.Reset()
	bw := NewBitWriter(&e.bufDCT)
	q := e.quantFor(FrameI)
	rec := NewFrame(cur.SourceWidth, cur.SourceHeight)

	for my := 0; my < cur.MacroblocksHigh(); my++ {
		for mx := 0; mx < cur.MacroblocksWide(); mx++ {
			dstX, dstY := mx*16, my*16
			cur.ExtractMacroblock(dstX, dstY, &e.target)

			e.transformed = e.target
			e.transformed.Transform(q)
			if err := e.transformed.WriteEntropy(bw); err != nil {
				return nil, errors.Wrap(err, "encoding I macroblock")
			}

			e.reconstructed = e.transformed
			e.reconstructed.InverseTransform(q)
			rec.ApplyMacroblock(dstX, dstY, &e.reconstructed)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return rec, writeFrameRecord(e.w, FrameI, e.bufDCT.Bytes())
}

// encodeP writes a P-frame record and returns the reconstructed frame that
// becomes the reference for later P/B frames.
func (e *Encoder) encodeP(cur, prev *Frame) (*Frame, error) {
	mm := NewMotionMap(cur)
	if e.opt.RateAccurate {
		if err := mm.CalculateRateAccurate(cur, prev, e.pq); err != nil {
			return nil, err
		}
	} else {
		mm.Calculate(cur, prev)
	}

	e.bufMPrev.Reset()
	if err := mm.Write(&e.bufMPrev); err != nil {
		return nil, errors.Wrap(err, "writing P motion map")
	}

	e.bufDCT.Reset()
	bw := NewBitWriter(&e.bufDCT)
	q := e.quantFor(FrameP)
	rec := NewFrame(cur.SourceWidth, cur.SourceHeight)

	for my := 0; my < mm.Height; my++ {
		for mx := 0; mx < mm.Width; mx++ {
			dstX, dstY := mx*16, my*16
			cell := mm.Cells[mx+my*mm.Width]

			cur.ExtractMacroblock(dstX, dstY, &e.target)
			e.transformed = e.target
			havePredictor := cell.Kind == CellMotion
			if havePredictor {
				prev.ExtractMacroblock(dstX+cell.DX, dstY+cell.DY, &e.candidate)
				e.transformed.Difference(&e.candidate)
			}
			e.transformed.Transform(q)
			if err := e.transformed.WriteEntropy(bw); err != nil {
				return nil, errors.Wrap(err, "encoding P macroblock")
			}

			e.reconstructed = e.transformed
			e.reconstructed.InverseTransform(q)
			if havePredictor {
				e.reconstructed.Add(&e.candidate)
			}
			rec.ApplyMacroblock(dstX, dstY, &e.reconstructed)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return rec, writeFrameRecord(e.w, FrameP, e.bufMPrev.Bytes(), e.bufDCT.Bytes())
}

// encodeB writes a B-frame record. B-frames are never used as references,
// so no reconstruction is needed; its return value is nil.
func (e *Encoder) encodeB(cur, prev, next *Frame) (*Frame, error) {
	mmPrev := NewMotionMap(cur)
	mmNext := NewMotionMap(cur)
	if e.opt.RateAccurate {
		if err := mmPrev.CalculateRateAccurate(cur, prev, e.pq); err != nil {
			return nil, err
		}
		if err := mmNext.CalculateRateAccurate(cur, next, e.pq); err != nil {
			return nil, err
		}
	} else {
		mmPrev.Calculate(cur, prev)
		mmNext.Calculate(cur, next)
	}

	e.bufMPrev.Reset()
	if err := mmPrev.Write(&e.bufMPrev); err != nil {
		return nil, errors.Wrap(err, "writing B prev motion map")
	}
	e.bufMNext.Reset()
	if err := mmNext.Write(&e.bufMNext); err != nil {
		return nil, errors.Wrap(err, "writing B next motion map")
	}

	e.bufDCT.Reset()
	bw := NewBitWriter(&e.bufDCT)
	q := e.quantFor(FrameB)

	for my := 0; my < mmPrev.Height; my++ {
		for mx := 0; mx < mmPrev.Width; mx++ {
			dstX, dstY := mx*16, my*16
			idx := mx + my*mmPrev.Width
			cp := mmPrev.Cells[idx]
			cn := mmNext.Cells[idx]

			cur.ExtractMacroblock(dstX, dstY, &e.target)
			e.transformed = e.target
			switch {
			case cp.Kind == CellMotion && cn.Kind == CellMotion:
				prev.ExtractMacroblock(dstX+cp.DX, dstY+cp.DY, &e.candidate)
				next.ExtractMacroblock(dstX+cn.DX, dstY+cn.DY, &e.altCandidate)
				e.candidate.Average(&e.altCandidate)
				e.transformed.Difference(&e.candidate)
			case cp.Kind == CellMotion:
				prev.ExtractMacroblock(dstX+cp.DX, dstY+cp.DY, &e.candidate)
				e.transformed.Difference(&e.candidate)
			case cn.Kind == CellMotion:
				next.ExtractMacroblock(dstX+cn.DX, dstY+cn.DY, &e.candidate)
				e.transformed.Difference(&e.candidate)
			}
			e.transformed.Transform(q)
			if err := e.transformed.WriteEntropy(bw); err != nil {
				return nil, errors.Wrap(err, "encoding B macroblock")
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return nil, writeFrameRecord(e.w, FrameB, e.bufMPrev.Bytes(), e.bufMNext.Bytes(), e.bufDCT.Bytes())
}
