package rvc

import "testing"

func TestQMatricesClampedToByteRange(t *testing.T) {
	for _, q := range []float64{0, 0.01, 0.5, 0.95, 1, 1.5, -1} {
		m := NewQMatrices(q)
		for _, v := range m.Luma {
			if v < 1 || v > 255 {
				t.Fatalf("quality %v: luma entry %v out of [1,255]", q, v)
			}
		}
		for _, v := range m.Chroma {
			if v < 1 || v > 255 {
				t.Fatalf("quality %v: chroma entry %v out of [1,255]", q, v)
			}
		}
	}
}

func TestQuantScaleMonotoneAroundHalf(t *testing.T) {
	if quantScale(0.5) != 1 {
		t.Errorf("quantScale(0.5) = %v, want 1", quantScale(0.5))
	}
	if quantScale(1) != 0 {
		t.Errorf("quantScale(1) = %v, want 0", quantScale(1))
	}
	if s := quantScale(0.25); s != 2 {
		t.Errorf("quantScale(0.25) = %v, want 2", s)
	}
}

func TestQMatricesHighQualityNearUnity(t *testing.T) {
	m := NewQMatrices(1)
	for _, v := range m.Luma {
		if v != 1 {
			t.Errorf("quality 1 luma entry = %v, want 1", v)
		}
	}
}
