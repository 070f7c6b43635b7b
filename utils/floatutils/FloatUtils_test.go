package floatutils

import (
	"reflect"
	"testing"
)

func TestMinMaxSlice(t *testing.T) {
	values := []float64{3, -1, 4, -1, 5, 5}

	min, minIndices := MinSlice(values)
	if min != -1 || !reflect.DeepEqual(minIndices, []int{1, 3}) {
		t.Errorf("minSlice: \n\twant(-1 [1 3]) \n\thave(%v %v)", min,
			minIndices)
	}

	max, maxIndices := MaxSlice(values)
	if max != 5 || !reflect.DeepEqual(maxIndices, []int{4, 5}) {
		t.Errorf("maxSlice: \n\twant(5 [4 5]) \n\thave(%v %v)", max,
			maxIndices)
	}

	if i := ArgMin(values); i != 1 {
		t.Errorf("argMin: \n\twant(1) \n\thave(%v)", i)
	}
}

func TestRoundHalfEven(t *testing.T) {
	tests := map[float64]int{
		0.5:  0,
		1.5:  2,
		2.5:  2,
		-0.5: 0,
		4.51: 5,
		3.49: 3,
	}
	for in, want := range tests {
		if have := RoundHalfEven(in); have != want {
			t.Errorf("roundHalfEven(%v): \n\twant(%v) \n\thave(%v)", in,
				want, have)
		}
	}
}

func TestClip(t *testing.T) {
	if v := Clip(5, 0, 1); v != 1 {
		t.Errorf("clip: want 1 have %v", v)
	}
	if v := Clip(-5, 0, 1); v != 0 {
		t.Errorf("clip: want 0 have %v", v)
	}
}

func TestArange(t *testing.T) {
	values := Arange(-1, 1, 0.5)
	if !reflect.DeepEqual(values, []float64{-1, -0.5, 0, 0.5}) {
		t.Errorf("arange: \n\twant([-1 -0.5 0 0.5]) \n\thave(%v)", values)
	}

	if values := Arange(1, 1, 0.1); len(values) != 0 {
		t.Errorf("arange: expected empty range, have %v", values)
	}
}
