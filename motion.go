package rvc

import "io"

const (
	zmpThreshold = 512.0
	newThreshold = 4096.0
)

// MotionCellKind distinguishes an intra ("new") macroblock from one with an
// assigned motion vector. The transport-layer run-length marker used by
// (Read/Write) is not part of this in-memory model (spec §9).
type MotionCellKind int

const (
	CellNew MotionCellKind = iota
	CellMotion
)

// MotionCell is one entry of a MotionMap: either CellNew or a CellMotion
// with a vector bounded by ±7 in each axis.
type MotionCell struct {
	Kind   MotionCellKind
	DX, DY int
}

// MotionMap holds one cell per 16x16 macroblock of a target frame,
// describing its best predictor in a reference frame.
type MotionMap struct {
	Cells  []MotionCell
	Width  int // macroblocks across
	Height int // macroblocks down
}

// NewMotionMap allocates a map for a frame's macroblock grid, initialized
// to CellNew everywhere.
func NewMotionMap(f *Frame) *MotionMap {
	w, h := f.MacroblocksWide(), f.MacroblocksHigh()
	cells := make([]MotionCell, w*h)
	return &MotionMap{Cells: cells, Width: w, Height: h}
}

func blockDiffSAD(a *Plane, ax, ay int, b *Plane, bx, by int) float64 {
	var accum float64
	for y := 0; y < 16; y++ {
		astart := ax + (ay+y)*a.Width
		bstart := bx + (by+y)*b.Width
		for x := 0; x < 16; x++ {
			d := a.data[astart+x] - b.data[bstart+x]
			if d < 0 {
				d = -d
			}
			accum += d
		}
	}
	return accum
}

func clampSearchRange(center, frameDim int) (lo, hi int) {
	lo = center - 7
	if lo < 0 {
		lo = 0
	}
	hi = center + 7
	if hi > frameDim-16 {
		hi = frameDim - 16
	}
	return lo, hi
}

// Calculate runs the fast SAD-threshold search of spec §4.4: a zero-offset
// match under zmpThreshold is taken immediately as CellMotion(0,0);
// otherwise the full ±7 window is searched and the minimum-SAD offset is
// used (on equal SAD, the offset with the smaller |dx|+|dy|), falling back
// to CellNew if even that exceeds newThreshold.
func (mm *MotionMap) Calculate(cur, prev *Frame) {
	for my := 0; my < mm.Height; my++ {
		for mx := 0; mx < mm.Width; mx++ {
			dstX, dstY := mx*16, my*16
			idx := mx + my*mm.Width

			minD := blockDiffSAD(cur.Y, dstX, dstY, prev.Y, dstX, dstY)
			if minD <= zmpThreshold {
				mm.Cells[idx] = MotionCell{Kind: CellMotion, DX: 0, DY: 0}
				continue
			}

			vx, vy := 0, 0
			loX, hiX := clampSearchRange(dstX, prev.Width)
			loY, hiY := clampSearchRange(dstY, prev.Height)
			for by := loY; by <= hiY; by++ {
				for bx := loX; bx <= hiX; bx++ {
					d := blockDiffSAD(cur.Y, dstX, dstY, prev.Y, bx, by)
					dx, dy := bx-dstX, by-dstY
					if d < minD || (d == minD && absInt(dx)+absInt(dy) < absInt(vx)+absInt(vy)) {
						minD = d
						vx, vy = dx, dy
					}
				}
			}
			if minD > newThreshold {
				mm.Cells[idx] = MotionCell{Kind: CellNew}
			} else {
				mm.Cells[idx] = MotionCell{Kind: CellMotion, DX: vx, DY: vy}
			}
		}
	}
}

// CalculateRateAccurate is the "ULT" policy of spec §4.4: every candidate
// offset (plus pure intra coding) is scored by the Block encoded-size
// estimator on the residual macroblock, and the cheapest wins.
func (mm *MotionMap) CalculateRateAccurate(cur, prev *Frame, q QMatrices) error {
	var target, candidate, residual Macroblock
	for my := 0; my < mm.Height; my++ {
		for mx := 0; mx < mm.Width; mx++ {
			dstX, dstY := mx*16, my*16
			idx := mx + my*mm.Width

			cur.ExtractMacroblock(dstX, dstY, &target)
			best, err := target.EncodedSize(q)
			if err != nil {
				return err
			}
			bestCell := MotionCell{Kind: CellNew}

			loX, hiX := clampSearchRange(dstX, prev.Width)
			loY, hiY := clampSearchRange(dstY, prev.Height)
			for by := loY; by <= hiY; by++ {
				for bx := loX; bx <= hiX; bx++ {
					prev.ExtractMacroblock(bx, by, &candidate)
					residual = target
					residual.Difference(&candidate)
					size, err := residual.EncodedSize(q)
					if err != nil {
						continue
					}
					if size < best {
						best = size
						bestCell = MotionCell{Kind: CellMotion, DX: bx - dstX, DY: by - dstY}
					}
				}
			}
			mm.Cells[idx] = bestCell
		}
	}
	return nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func encodeMotionByte(c MotionCell) byte {
	if c.Kind == CellNew {
		return 0xFF
	}
	x, y := c.DX+7, c.DY+7
	return byte(((x & 0x0F) << 4) | (y & 0x0F))
}

func encodeRepeatByte(n int) byte {
	if n <= 16 {
		return 0xF0 | byte(n-2)
	}
	return byte(n-17)<<4 | 0x0F
}

// decodeMotionByte returns either a decoded cell (repeat == 0) or a repeat
// count (repeat >= 2, cell is the zero value and must be ignored).
func decodeMotionByte(b byte) (cell MotionCell, repeat int) {
	x := int(b>>4) - 7
	y := int(b&0x0F) - 7
	if x == 8 && y == 8 {
		return MotionCell{Kind: CellNew}, 0
	}
	if x == 8 {
		return MotionCell{}, y + 9
	}
	if y == 8 {
		return MotionCell{}, x + 24
	}
	return MotionCell{Kind: CellMotion, DX: x, DY: y}, 0
}

// Write serializes mm with the run-length scheme of spec §4.4: a literal
// byte per cell, collapsed into a repeat marker once a value recurs.
func (mm *MotionMap) Write(w io.Writer) error {
	flush := func(last MotionCell, repeats int) error {
		switch {
		case repeats == 1:
			_, err := w.Write([]byte{encodeMotionByte(last)})
			return err
		case repeats > 1:
			_, err := w.Write([]byte{encodeRepeatByte(repeats)})
			return err
		}
		return nil
	}

	var last MotionCell
	haveLast := false
	repeats := 0
	for _, cell := range mm.Cells {
		if haveLast && cell == last && repeats < 31 {
			repeats++
			continue
		}
		if err := flush(last, repeats); err != nil {
			return err
		}
		repeats = 0
		last = cell
		haveLast = true
		if _, err := w.Write([]byte{encodeMotionByte(cell)}); err != nil {
			return err
		}
	}
	return flush(last, repeats)
}

// Read is the inverse of Write; mm.Cells is reallocated to
// mm.Width*mm.Height cells unless it already has that length.
func (mm *MotionMap) Read(r io.Reader) error {
	n := mm.Width * mm.Height
	if len(mm.Cells) != n {
		mm.Cells = make([]MotionCell, n)
	}
	var buf [1]byte
	var last MotionCell
	idx := 0
	for idx < n {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		cell, repeat := decodeMotionByte(buf[0])
		if repeat > 0 {
			for i := 0; i < repeat && idx < n; i++ {
				mm.Cells[idx] = last
				idx++
			}
			continue
		}
		last = cell
		mm.Cells[idx] = cell
		idx++
	}
	return nil
}
