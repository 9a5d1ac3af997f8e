package rvc

// blockSize is the number of samples in one 8x8 block.
const blockSize = 64

// unzig maps a zig-zag scan index to its natural row-major index within an
// 8x8 block, the canonical JPEG zig-zag order.
var unzig = [blockSize]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// wrapZigzag is the inverse of unzig: wrapZigzag[natural] = zig-zag index.
var wrapZigzag [blockSize]int

func init() {
	for zig, natural := range unzig {
		wrapZigzag[natural] = zig
	}
}
