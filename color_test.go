package rvc

import "testing"

func TestColorClampAlwaysInRange(t *testing.T) {
	ys := []float64{-50, 0, 64, 128, 255, 400}
	us := []float64{-50, 0, 128, 255, 400}
	vs := []float64{-50, 0, 128, 255, 400}
	for _, y := range ys {
		for _, u := range us {
			for _, v := range vs {
				r, g, b := YUVToRGB(y, u, v)
				_ = r
				_ = g
				_ = b
			}
		}
	}
}

func TestColorGrayRoundTrip(t *testing.T) {
	for _, gray := range []uint8{0, 1, 16, 128, 254, 255} {
		y, u, v := RGBToYUV(gray, gray, gray)
		if y < float64(gray)-1 || y > float64(gray)+1 {
			t.Errorf("gray %d: y = %v", gray, y)
		}
		r, g, b := YUVToRGB(y, u, v)
		if diff(r, gray) > 1 || diff(g, gray) > 1 || diff(b, gray) > 1 {
			t.Errorf("gray %d round trip: got (%d,%d,%d)", gray, r, g, b)
		}
	}
}
