package rvc

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Block is a row-major 8x8 array of samples (pixel domain) or, after
// Transform, of quantized DCT coefficients (spec §4.2). Index y*8+x.
type Block [blockSize]float64

// dctBasis is the precomputed separable DCT-II basis: dctBasis[u][x] =
// (alpha(u)/2) * cos((2x+1)u*pi/16). The 2D transform is C*B*Ct; since C is
// orthogonal, the inverse is Ct*D*C.
var dctBasis *mat.Dense

func init() {
	data := make([]float64, blockSize)
	for u := 0; u < 8; u++ {
		alpha := 1.0
		if u == 0 {
			alpha = 1.0 / math.Sqrt2
		}
		for x := 0; x < 8; x++ {
			data[u*8+x] = (alpha / 2) * math.Cos((2*float64(x)+1)*float64(u)*math.Pi/16)
		}
	}
	dctBasis = mat.NewDense(8, 8, data)
}

func blockToDense(b *Block) *mat.Dense {
	return mat.NewDense(8, 8, b[:])
}

func denseToBlock(m *mat.Dense) Block {
	var b Block
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			b[r*8+c] = m.At(r, c)
		}
	}
	return b
}

// ForwardDCT returns the type-II DCT of b.
func (b *Block) ForwardDCT() Block {
	m := blockToDense(b)
	var tmp, out mat.Dense
	tmp.Mul(dctBasis, m)
	out.Mul(&tmp, dctBasis.T())
	return denseToBlock(&out)
}

// InverseDCT returns the inverse of ForwardDCT.
func (b *Block) InverseDCT() Block {
	m := blockToDense(b)
	var tmp, out mat.Dense
	tmp.Mul(dctBasis.T(), m)
	out.Mul(&tmp, dctBasis)
	return denseToBlock(&out)
}

// Transform normalizes (subtracts 128), applies the forward DCT, and
// quantizes against q (natural order), replacing b in place with integral
// quantized coefficients in natural order.
func (b *Block) Transform(q *[blockSize]float64) {
	var normalized Block
	for i, v := range b {
		normalized[i] = v - 128
	}
	d := normalized.ForwardDCT()
	for i, c := range d {
		b[i] = math.Round(c / q[i])
	}
}

// InverseTransform dequantizes against q, applies the inverse DCT, and adds
// the 128 bias back, replacing b in place with reconstructed samples.
func (b *Block) InverseTransform(q *[blockSize]float64) {
	var dequantized Block
	for i, c := range b {
		dequantized[i] = c * q[i]
	}
	px := dequantized.InverseDCT()
	for i, v := range px {
		b[i] = v + 128
	}
}

// maxCoeffMagnitude is the Block layer's enforced coefficient domain: wider
// values would need an 11-bit varint width, which spec §8 scenario 6 treats
// as a Range error at this layer rather than a format limitation of BitIO
// itself (BitIO's varint format remains valid up to width 11, |v|<=2047).
const maxCoeffMagnitude = 1023

func checkCoeffRange(v int32) error {
	if v > maxCoeffMagnitude || v < -maxCoeffMagnitude {
		return RangeError("coefficient magnitude exceeds 1023")
	}
	return nil
}

func huffCodeLen(sym byte) int {
	hc := huffEncodeTable[sym]
	for i, bit := range hc {
		if bit < 0 {
			return i
		}
	}
	return len(hc)
}

// WriteEntropy entropy-codes b's natural-order quantized coefficients (as
// left by Transform) per spec §4.2: DC width+value, then AC run/width
// symbols in zig-zag order with ZRL/EOB.
func (b *Block) WriteEntropy(bw *BitWriter) error {
	var zig [blockSize]int32
	for k, natural := range unzig {
		zig[k] = int32(b[natural])
	}

	dc := zig[0]
	if err := checkCoeffRange(dc); err != nil {
		return err
	}
	if err := bw.WriteHuffman(byte(varintWidth(dc))); err != nil {
		return err
	}
	if err := bw.WriteVarint(dc); err != nil {
		return err
	}

	lastNonzero := 0
	for i := 1; i < blockSize; i++ {
		if zig[i] != 0 {
			lastNonzero = i
		}
	}

	run := 0
	for i := 1; i <= lastNonzero; i++ {
		v := zig[i]
		if v == 0 {
			run++
			continue
		}
		if err := checkCoeffRange(v); err != nil {
			return err
		}
		for run >= 16 {
			if err := bw.WriteHuffman(0xF0); err != nil {
				return err
			}
			run -= 16
		}
		w := varintWidth(v)
		sym := byte(run<<4) | byte(w)
		if err := bw.WriteHuffman(sym); err != nil {
			return err
		}
		if err := bw.WriteVarint(v); err != nil {
			return err
		}
		run = 0
	}
	if lastNonzero < blockSize-1 {
		if err := bw.WriteHuffman(0x00); err != nil {
			return err
		}
	}
	return nil
}

// ReadEntropy is the inverse of WriteEntropy: it decodes a block's
// coefficients into b, in natural order, ready for InverseTransform.
func (b *Block) ReadEntropy(br *BitReader) error {
	var zig [blockSize]int32
	dcWidth, err := br.ReadHuffman()
	if err != nil {
		return err
	}
	dc, err := br.ReadVarint(int(dcWidth))
	if err != nil {
		return err
	}
	zig[0] = dc

	pos := 1
	for pos < blockSize {
		sym, err := br.ReadHuffman()
		if err != nil {
			return err
		}
		if sym == 0xF0 {
			pos += 16
			continue
		}
		if sym == 0x00 {
			break
		}
		run := int(sym >> 4)
		w := int(sym & 0x0F)
		pos += run
		if pos >= blockSize {
			return formatErrorf("AC run advanced past end of block")
		}
		v, err := br.ReadVarint(w)
		if err != nil {
			return err
		}
		zig[pos] = v
		pos++
	}

	for k, natural := range unzig {
		b[natural] = float64(zig[k])
	}
	return nil
}

// EncodedSize returns the exact bit count WriteEntropy would emit for a
// copy of b transformed against q, without emitting any bits. It is used
// by the rate-accurate motion search to score candidate predictors in
// actual coded-cost units.
func (b Block) EncodedSize(q *[blockSize]float64) (int, error) {
	b.Transform(q)
	var zig [blockSize]int32
	for k, natural := range unzig {
		zig[k] = int32(b[natural])
	}

	dc := zig[0]
	if err := checkCoeffRange(dc); err != nil {
		return 0, err
	}
	bits := huffCodeLen(byte(varintWidth(dc))) + varintWidth(dc)

	lastNonzero := 0
	for i := 1; i < blockSize; i++ {
		if zig[i] != 0 {
			lastNonzero = i
		}
	}

	run := 0
	for i := 1; i <= lastNonzero; i++ {
		v := zig[i]
		if v == 0 {
			run++
			continue
		}
		if err := checkCoeffRange(v); err != nil {
			return 0, err
		}
		for run >= 16 {
			bits += huffCodeLen(0xF0)
			run -= 16
		}
		w := varintWidth(v)
		sym := byte(run<<4) | byte(w)
		bits += huffCodeLen(sym) + w
		run = 0
	}
	if lastNonzero < blockSize-1 {
		bits += huffCodeLen(0x00)
	}
	return bits, nil
}
