package rvc

import "testing"

func TestZigzagIsBijection(t *testing.T) {
	seen := make(map[int]bool, blockSize)
	for _, n := range unzig {
		if n < 0 || n >= blockSize {
			t.Fatalf("unzig entry out of range: %d", n)
		}
		if seen[n] {
			t.Fatalf("unzig maps two zig-zag indices to natural index %d", n)
		}
		seen[n] = true
	}
	for zig, natural := range unzig {
		if wrapZigzag[natural] != zig {
			t.Errorf("wrapZigzag[%d] = %d, want %d", natural, wrapZigzag[natural], zig)
		}
	}
}
