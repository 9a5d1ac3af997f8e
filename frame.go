package rvc

import "image"

// Frame is the (Y, U, V) triplet of Planes for one picture, at 4:2:0
// chroma subsampling, with the original source dimensions retained so the
// padded macroblock grid can be cropped back on save.
type Frame struct {
	Y, U, V *Plane

	SourceWidth, SourceHeight int
	Width, Height             int // luma plane dimensions, multiples of 16
}

// NewFrame allocates planes sized for a source image of the given
// dimensions, rounding the luma plane up to a multiple of 16 and halving
// that for chroma.
func NewFrame(width, height int) *Frame {
	pw := roundUp16(width)
	ph := roundUp16(height)
	return &Frame{
		Y:            NewPlane(pw, ph),
		U:            NewPlane(pw/2, ph/2),
		V:            NewPlane(pw/2, ph/2),
		SourceWidth:  width,
		SourceHeight: height,
		Width:        pw,
		Height:       ph,
	}
}

func roundUp16(v int) int {
	return (v + 15) / 16 * 16
}

// LoadRGBA loads img into f, replicating edge pixels into the padded
// border and box-downsampling 2x2 chroma, per spec §4.3.
func (f *Frame) LoadRGBA(img image.Image) {
	bounds := img.Bounds()
	iw, ih := bounds.Dx(), bounds.Dy()

	f.U.Fill(0)
	f.V.Fill(0)

	for py := 0; py < f.Height; py++ {
		iy := py
		if iy > ih-1 {
			iy = ih - 1
		}
		for px := 0; px < f.Width; px++ {
			ix := px
			if ix > iw-1 {
				ix = iw - 1
			}
			r, g, b, _ := img.At(bounds.Min.X+ix, bounds.Min.Y+iy).RGBA()
			y, u, v := RGBToYUV(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			f.Y.Put(px, py, y)
			f.U.Add(px/2, py/2, u)
			f.V.Add(px/2, py/2, v)
		}
	}
	f.U.Scale(1.0 / 4.0)
	f.V.Scale(1.0 / 4.0)
}

// ToRGBA renders f, cropped to its source dimensions, with nearest-neighbor
// chroma upsampling and a clamp to [0,255] per sample.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.SourceWidth, f.SourceHeight))
	for py := 0; py < f.SourceHeight; py++ {
		for px := 0; px < f.SourceWidth; px++ {
			y := f.Y.Get(px, py)
			u := f.U.Get(px/2, py/2)
			v := f.V.Get(px/2, py/2)
			r, g, b := YUVToRGB(y, u, v)
			img.Set(px, py, colorRGBA(r, g, b))
		}
	}
	return img
}

// ExtractMacroblock copies the six co-located blocks at luma origin (x, y)
// into mb, in the fixed order: four luma quadrants, then U, then V.
func (f *Frame) ExtractMacroblock(x, y int, mb *Macroblock) {
	f.Y.ExtractBlock(x, y, &mb[0])
	f.Y.ExtractBlock(x+8, y, &mb[1])
	f.Y.ExtractBlock(x, y+8, &mb[2])
	f.Y.ExtractBlock(x+8, y+8, &mb[3])
	f.U.ExtractBlock(x/2, y/2, &mb[4])
	f.V.ExtractBlock(x/2, y/2, &mb[5])
}

// ApplyMacroblock is the inverse of ExtractMacroblock.
func (f *Frame) ApplyMacroblock(x, y int, mb *Macroblock) {
	f.Y.ApplyBlock(x, y, &mb[0])
	f.Y.ApplyBlock(x+8, y, &mb[1])
	f.Y.ApplyBlock(x, y+8, &mb[2])
	f.Y.ApplyBlock(x+8, y+8, &mb[3])
	f.U.ApplyBlock(x/2, y/2, &mb[4])
	f.V.ApplyBlock(x/2, y/2, &mb[5])
}

// MacroblocksWide and MacroblocksHigh report the motion/macroblock grid
// dimensions for this frame's luma plane.
func (f *Frame) MacroblocksWide() int { return f.Width / 16 }
func (f *Frame) MacroblocksHigh() int { return f.Height / 16 }
