package effects

import (
	"errors"
	"testing"
)

func TestParseSPPMode(t *testing.T) {
	type spec struct {
		in     string
		exp    SPPMode
		expErr error
	}

	specs := []spec{
		{"4x MSAA", MSAA4, nil},
		{"8x msaa", MSAA8, nil},
		{"16x MSAA", MSAA16, nil},
		{"Quasi-Random (Sobol)", SobolQMC, nil},
		{"32x MSAA", MSAA4, ErrUnknownSPPMode},
	}

	for index, s := range specs {
		mode, err := ParseSPPMode(s.in)
		if !errors.Is(err, s.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
		if mode != s.exp {
			t.Fatalf("[spec %d] expected mode %s; got %s", index, s.exp, mode)
		}
	}
}

func TestSPPBudget(t *testing.T) {
	type spec struct {
		mode      SPPMode
		expTarget int
	}

	specs := []spec{
		{MSAA4, 4},
		{MSAA8, 8},
		{MSAA16, 16},
		{SobolQMC, 64},
	}

	for index, s := range specs {
		spp := NewSPP(s.mode, 1)
		if spp.TargetSamples() != s.expTarget {
			t.Fatalf("[spec %d] expected target %d; got %d", index, s.expTarget, spp.TargetSamples())
		}

		// The budget check is inclusive: target + 1 jitter calls exhaust it.
		for i := 0; i <= s.expTarget; i++ {
			if !spp.HasMoreToAccumulate() {
				t.Fatalf("[spec %d] budget exhausted early after %d samples", index, i)
			}
			spp.Jitter(1, 1)
		}
		if spp.HasMoreToAccumulate() {
			t.Fatalf("[spec %d] expected budget to be exhausted", index)
		}

		spp.Reset()
		if spp.Accumulated() != 0 || !spp.HasMoreToAccumulate() {
			t.Fatalf("[spec %d] expected reset to restore the budget", index)
		}
	}
}

func TestSPPJitterRange(t *testing.T) {
	for _, mode := range []SPPMode{MSAA4, MSAA8, MSAA16, SobolQMC} {
		spp := NewSPP(mode, 1)
		for i := 0; i < 70; i++ {
			grid := spp.Jitter(2, 3)
			if len(grid) != 6 {
				t.Fatalf("[%s] expected 6 offsets; got %d", mode, len(grid))
			}
			for _, off := range grid {
				if off[0] < -0.5 || off[0] >= 0.5 || off[1] < -0.5 || off[1] >= 0.5 {
					t.Fatalf("[%s] offset %v out of range", mode, off)
				}
			}
		}
	}
}

func TestSPPSetModeResets(t *testing.T) {
	spp := NewSPP(MSAA8, 0)
	if spp.BatchSize() != 1 {
		t.Fatalf("expected batch size to default to 1; got %d", spp.BatchSize())
	}
	spp.Jitter(1, 1)
	spp.SetMode(SobolQMC)
	if spp.Accumulated() != 0 || spp.Mode() != SobolQMC {
		t.Fatal("expected mode switch to reset accumulation")
	}
}

func TestSobolSequence(t *testing.T) {
	type spec struct {
		index uint32
		expU  float32
		expV  float32
	}

	specs := []spec{
		{0, 0, 0},
		{1, 0.5, 0.5},
		{2, 0.25, 0.75},
		{3, 0.75, 0.25},
	}

	for index, s := range specs {
		u, v := sobolPoint(s.index)
		if u != s.expU || v != s.expV {
			t.Fatalf("[spec %d] expected (%f, %f); got (%f, %f)", index, s.expU, s.expV, u, v)
		}
	}
}
