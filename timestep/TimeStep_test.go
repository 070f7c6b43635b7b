package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTerminal(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})

	tests := []struct {
		end      EndType
		terminal bool
	}{
		{Timeout, false},
		{Success, true},
		{Failure, true},
	}

	for _, test := range tests {
		step := New(Mid, 0, 1, obs, 3)
		if step.Terminal() {
			t.Errorf("mid step should never be terminal")
		}

		step.SetEnd(test.end)
		if !step.Last() {
			t.Errorf("setEnd(%v): step should be last", test.end)
		}
		if step.Terminal() != test.terminal {
			t.Errorf("setEnd(%v): terminal \n\twant(%v) \n\thave(%v)",
				test.end, test.terminal, step.Terminal())
		}
	}
}

func TestNewTransition(t *testing.T) {
	s := New(First, 0, 1, mat.NewVecDense(2, []float64{0, 0}), 0)
	s.SafetyMargin = -0.5
	s.TargetMargin = 0.25

	next := New(Mid, 1.5, 1, mat.NewVecDense(2, []float64{1, 1}), 1)
	next.SafetyMargin = 10
	next.TargetMargin = 10

	tr := NewTransition(s, 2, next)
	if tr.Terminal() {
		t.Fatal("mid step transition should not be terminal")
	}
	if tr.SafetyMargin != -0.5 || tr.TargetMargin != 0.25 {
		t.Errorf("margins should come from the first state: have g=%v l=%v",
			tr.SafetyMargin, tr.TargetMargin)
	}
	if tr.Reward != 1.5 || tr.Action != 2 {
		t.Errorf("unexpected transition %v", tr)
	}

	next.SetEnd(Failure)
	if tr = NewTransition(s, 0, next); !tr.Terminal() {
		t.Errorf("failure transition should be terminal")
	}

	next.SetEnd(Timeout)
	if tr = NewTransition(s, 0, next); tr.Terminal() {
		t.Errorf("timeout transition should not be terminal")
	}
}
