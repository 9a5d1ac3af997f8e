package rvc

// huffNode is one entry of the Huffman decode trie: a two-element signed
// array indexed by the next bit read. A non-positive entry is a terminal
// whose decoded byte is its negation; a positive entry is the relative
// offset (in nodes) to the child.
type huffNode [2]int16

// huffCode is an encode-side codeword: up to 16 bits, MSB-first, terminated
// by the first -1 entry. Symbols with no assigned code (not part of the
// canonical 162-entry table) get the all -1 sentinel; WriteHuffman rejects
// those with an UnsupportedError.
type huffCode [16]int8

// huffmanSpec is the canonical JPEG-style encoding: count[i] is the number
// of codewords of length i+1, and value holds the decoded byte for each
// codeword in canonical order.
type huffmanSpec struct {
	count [16]byte
	value []byte
}

// lumaACSpec is the canonical JPEG luma AC Huffman table (ITU-T T.81 annex
// K.3). This codec has no adaptive entropy coding (spec Non-goals) and uses
// this single 162-entry table for every Huffman-coded symbol: AC run/size
// bytes, ZRL (0xF0), EOB (0x00), and DC widths (which, since the block layer
// keeps coefficients within ±1023, never exceed width 10 and so always fall
// within this table's run=0 entries).
var lumaACSpec = huffmanSpec{
	count: [16]byte{0, 2, 1, 3, 3, 2, 4, 3, 5, 5, 4, 4, 0, 0, 1, 125},
	value: []byte{
		0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12,
		0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
		0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08,
		0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
		0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16,
		0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
		0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39,
		0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
		0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59,
		0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
		0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79,
		0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
		0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98,
		0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
		0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6,
		0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
		0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4,
		0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
		0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea,
		0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
		0xf9, 0xfa,
	},
}

// huffEncodeTable and huffDecodeTree are built once from lumaACSpec.
var (
	huffEncodeTable [256]huffCode
	huffDecodeTree  []huffNode
)

func init() {
	for i := range huffEncodeTable {
		huffEncodeTable[i] = huffCode{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	}
	huffDecodeTree = []huffNode{{0, 0}}

	code, k := 0, 0
	for length := 1; length <= 16; length++ {
		for j := byte(0); j < lumaACSpec.count[length-1]; j++ {
			sym := lumaACSpec.value[k]
			setHuffCode(sym, code, length)
			insertHuffNode(sym, code, length)
			code++
			k++
		}
		code <<= 1
	}
}

func setHuffCode(sym byte, code, length int) {
	var hc huffCode
	for i := range hc {
		hc[i] = -1
	}
	for i := 0; i < length; i++ {
		bit := (code >> uint(length-1-i)) & 1
		hc[i] = int8(bit)
	}
	huffEncodeTable[sym] = hc
}

func insertHuffNode(sym byte, code, length int) {
	cur := 0
	for i := 0; i < length-1; i++ {
		bit := (code >> uint(length-1-i)) & 1
		if huffDecodeTree[cur][bit] == 0 {
			huffDecodeTree = append(huffDecodeTree, huffNode{0, 0})
			huffDecodeTree[cur][bit] = int16(len(huffDecodeTree) - 1 - cur)
		}
		cur += int(huffDecodeTree[cur][bit])
	}
	lastBit := code & 1
	huffDecodeTree[cur][lastBit] = -int16(sym)
}

// WriteHuffman emits sym's canonical codeword. It returns an
// UnsupportedError if sym has no assigned code.
func (bw *BitWriter) WriteHuffman(sym byte) error {
	hc := huffEncodeTable[sym]
	if hc[0] == -1 {
		return UnsupportedError("no Huffman code assigned to symbol")
	}
	for _, bit := range hc {
		if bit < 0 {
			break
		}
		if err := bw.WriteBit(uint8(bit)); err != nil {
			return err
		}
	}
	return bw.Err()
}

// ReadHuffman decodes the next symbol using the shared canonical tree.
func (br *BitReader) ReadHuffman() (byte, error) {
	return br.DecodeHuffman(huffDecodeTree)
}
