package rvc

import "math"

// baseQuantLuma and baseQuantChroma are the canonical JPEG luma/chroma base
// quantization tables (ITU-T T.81 annex K.1), in zig-zag order as published.
var baseQuantLuma = [blockSize]byte{
	16, 11, 12, 14, 12, 10, 16, 14,
	13, 14, 18, 17, 16, 19, 24, 40,
	26, 24, 22, 22, 24, 49, 35, 37,
	29, 40, 58, 51, 61, 60, 57, 51,
	56, 55, 64, 72, 92, 78, 64, 68,
	87, 69, 55, 56, 80, 109, 81, 87,
	95, 98, 103, 104, 103, 62, 77, 113,
	121, 112, 100, 120, 92, 101, 103, 99,
}

var baseQuantChroma = [blockSize]byte{
	17, 18, 18, 24, 21, 24, 47, 26,
	26, 47, 99, 66, 56, 66, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}

// QMatrices holds the luma and chroma quantization matrices for a stream,
// in natural (row-major) order, chosen once from the stream's quality and
// carried in the container header.
type QMatrices struct {
	Luma   [blockSize]float64
	Chroma [blockSize]float64
}

// quantScale maps a quality in (0, 1] to the quantizer scale factor of
// spec §4.2: s = q >= 0.5 ? 2 - 2q : 0.5/q.
func quantScale(quality float64) float64 {
	if quality <= 0 {
		quality = 1e-6
	}
	if quality > 1 {
		quality = 1
	}
	if quality >= 0.5 {
		return 2 - 2*quality
	}
	return 0.5 / quality
}

func buildQMatrix(base [blockSize]byte, quality float64) [blockSize]float64 {
	s := quantScale(quality)
	var nat [blockSize]float64
	for zig, b := range base {
		v := math.Round(float64(b) * s)
		if v < 1 {
			v = 1
		} else if v > 255 {
			v = 255
		}
		nat[unzig[zig]] = v
	}
	return nat
}

// NewQMatrices builds the luma/chroma quantization matrices for quality,
// clamping quality to [0, 1] per spec §7.
func NewQMatrices(quality float64) QMatrices {
	if quality < 0 {
		quality = 0
	} else if quality > 1 {
		quality = 1
	}
	return QMatrices{
		Luma:   buildQMatrix(baseQuantLuma, quality),
		Chroma: buildQMatrix(baseQuantChroma, quality),
	}
}
