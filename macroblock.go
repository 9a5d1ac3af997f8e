package rvc

// Macroblock is a 16x16 luma region together with the co-located 8x8 U and
// V regions: four luma Blocks followed by one U and one V Block, in the
// fixed order spec §4.3/GLOSSARY defines.
type Macroblock [6]Block

// Difference subtracts other from m, element-wise, across all six blocks.
func (m *Macroblock) Difference(other *Macroblock) {
	for i := range m {
		for j := range m[i] {
			m[i][j] -= other[i][j]
		}
	}
}

// Add adds other to m, element-wise.
func (m *Macroblock) Add(other *Macroblock) {
	for i := range m {
		for j := range m[i] {
			m[i][j] += other[i][j]
		}
	}
}

// Average replaces m with the element-wise mean of m and other.
func (m *Macroblock) Average(other *Macroblock) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = (m[i][j] + other[i][j]) / 2
		}
	}
}

// Transform runs Block.Transform on each of the six blocks, luma blocks
// against qluma and the two chroma blocks against qchroma.
func (m *Macroblock) Transform(q QMatrices) {
	for i := 0; i < 4; i++ {
		m[i].Transform(&q.Luma)
	}
	m[4].Transform(&q.Chroma)
	m[5].Transform(&q.Chroma)
}

// InverseTransform is the inverse of Transform.
func (m *Macroblock) InverseTransform(q QMatrices) {
	for i := 0; i < 4; i++ {
		m[i].InverseTransform(&q.Luma)
	}
	m[4].InverseTransform(&q.Chroma)
	m[5].InverseTransform(&q.Chroma)
}

// WriteEntropy entropy-codes all six blocks in order.
func (m *Macroblock) WriteEntropy(bw *BitWriter) error {
	for i := range m {
		if err := m[i].WriteEntropy(bw); err != nil {
			return err
		}
	}
	return nil
}

// ReadEntropy is the inverse of WriteEntropy.
func (m *Macroblock) ReadEntropy(br *BitReader) error {
	for i := range m {
		if err := m[i].ReadEntropy(br); err != nil {
			return err
		}
	}
	return nil
}

// EncodedSize is the sum of the per-block closed-form bit-cost estimate,
// the same walk Transform+WriteEntropy would perform without emitting.
func (m Macroblock) EncodedSize(q QMatrices) (int, error) {
	total := 0
	for i := 0; i < 4; i++ {
		n, err := m[i].EncodedSize(&q.Luma)
		if err != nil {
			return 0, err
		}
		total += n
	}
	for i := 4; i < 6; i++ {
		n, err := m[i].EncodedSize(&q.Chroma)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
