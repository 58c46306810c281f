package indicator

import (
	"math"
	"testing"
)

func TestRollingMean_Calculate(t *testing.T) {
	xs := []float64{10, 11, 12, 13, 14, 15}

	means := RollingMean(xs, 3)

	// mean(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14
	expected := []float64{11, 12, 13, 14}

	if len(means) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(means))
	}
	for i, v := range expected {
		if math.Abs(means[i]-v) > 1e-12 {
			t.Errorf("means[%d] = %f, want %f", i, means[i], v)
		}
	}
}

func TestRollingMean_NotEnoughData(t *testing.T) {
	means := RollingMean([]float64{10, 11}, 5)
	if len(means) != 0 {
		t.Errorf("expected empty slice, got %d values", len(means))
	}
}

func TestRollingStd_Calculate(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}

	stds := RollingStd(xs, 3)

	// sample std of [1,2,3] = 1, and every window here is an arithmetic
	// progression with step 1
	if len(stds) != 3 {
		t.Fatalf("expected 3 values, got %d", len(stds))
	}
	for i, v := range stds {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("stds[%d] = %f, want 1", i, v)
		}
	}
}

func TestRollingStd_ConstantSeries(t *testing.T) {
	stds := RollingStd([]float64{3, 3, 3, 3}, 3)
	for i, v := range stds {
		if v != 0 {
			t.Errorf("stds[%d] = %f, want 0", i, v)
		}
	}
}

func TestRollingStd_WindowTooSmall(t *testing.T) {
	if got := RollingStd([]float64{1, 2, 3}, 1); len(got) != 0 {
		t.Errorf("window 1 should yield empty slice, got %d values", len(got))
	}
}

func TestRolling_Alignment(t *testing.T) {
	xs := []float64{5, 1, 9, 2, 7, 3, 8}

	means := RollingMean(xs, 4)
	stds := RollingStd(xs, 4)

	if len(means) != len(stds) {
		t.Fatalf("mean and std lengths differ: %d vs %d", len(means), len(stds))
	}
	if len(means) != len(xs)-4+1 {
		t.Errorf("expected %d values, got %d", len(xs)-4+1, len(means))
	}
}
