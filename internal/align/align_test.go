package align

import "testing"

func TestPlanSingleIndexPassesThroughDecimated(t *testing.T) {
	// decimate starts last=0, so a leading t=0 is always rejected (0-0 >= 4
	// is false, and |0-4| < 1 is false); the first accepted entry is 4.
	idx := []float32{0, 2, 4, 6, 8, 10}
	got := Plan([][]float32{idx}, 4)
	want := []float32{4, 8}
	assertEqual(t, got, want)
}

func TestPlanEmptyWhenNoIndexes(t *testing.T) {
	got := Plan(nil, 4)
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestPlanAgreementWithinEpsilon(t *testing.T) {
	// Scenario 2: two inputs whose keyframe sets disagree by 0.05s (within ε).
	a := []float32{0, 2.0, 4.0, 6.0, 8.0}
	b := []float32{0.05, 1.95, 4.05, 5.95, 8.05}
	got := Plan([][]float32{a, b}, 4)
	want := []float32{4.0, 8.0}
	assertApproxEqual(t, got, want)
}

func TestPlanDisagreementOutsideEpsilon(t *testing.T) {
	// Scenario 3: two inputs whose keyframe sets disagree by 0.5s (outside ε).
	a := []float32{0, 2.0, 4.0}
	b := []float32{0.5, 2.5, 4.5}
	got := Plan([][]float32{a, b}, 4)
	if len(got) != 0 {
		t.Fatalf("expected no common boundaries, got %v", got)
	}
}

func TestPlanResultIsSubsequenceOfEachIndex(t *testing.T) {
	a := []float32{0, 2, 4, 6, 8, 10, 12}
	b := []float32{0.1, 2.1, 4.1, 6.1, 8.1, 10.1, 12.1}
	got := Plan([][]float32{a, b}, 4)
	for _, t0 := range got {
		if !withinEpsilonOf(a, t0) || !withinEpsilonOf(b, t0) {
			t.Fatalf("%v not within epsilon of both indexes", t0)
		}
	}
}

func TestDecimateSpacingInvariant(t *testing.T) {
	aligned := []float32{0, 1, 2, 3, 3.2, 7, 7.9, 12}
	got := decimate(aligned, 4)
	for i := 1; i < len(got); i++ {
		gap := float64(got[i] - got[i-1])
		if gap < 4-1.0 {
			t.Fatalf("spacing invariant violated: %v -> %v (gap %v)", got[i-1], got[i], gap)
		}
	}
}

func withinEpsilonOf(idx []float32, t float32) bool {
	for _, v := range idx {
		if abs32(v-t) < Epsilon {
			return true
		}
	}
	return false
}

func assertEqual(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func assertApproxEqual(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if abs32(got[i]-want[i]) > 0.2 {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
