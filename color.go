package rvc

import "image/color"

// colorRGBA builds an opaque color.RGBA from clamped 8-bit channels.
func colorRGBA(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// RGBToYUV converts an 8-bit RGB triplet to BT.601 Y/U/V, offsetting chroma
// by 128 as in spec §4.3.
func RGBToYUV(r, g, b uint8) (y, u, v float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	y = 0.299*rf + 0.587*gf + 0.114*bf
	u = 0.5*(bf-y)/(1.0-0.114) + 128.0
	v = 0.5*(rf-y)/(1.0-0.299) + 128.0
	return y, u, v
}

// YUVToRGB is the inverse of RGBToYUV, clamping each channel to [0, 255].
// Channels are truncated, not rounded, so a round trip can come back one
// below the original value.
func YUVToRGB(y, u, v float64) (r, g, b uint8) {
	rf := y + 1.402*(v-128.0)
	gf := y - (0.114*1.772*(u-128.0)+0.299*1.402*(v-128.0))/0.587
	bf := y + 1.772*(u-128.0)
	return clampByte(rf), clampByte(gf), clampByte(bf)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
