// Package align intersects per-rendition Keyframe Indexes into a single
// Aligned Boundary List, then decimates that list to a target segment
// duration.
package align

// Epsilon is the keyframe alignment tolerance, MAX_DTS_DELTA, fixed at
// 0.2 seconds: timestamps within this window of each other across
// renditions are considered the same sync point.
const Epsilon = 0.2

// searchWindow is the cursor-advance bound, 2ε, allowing a boundary to be
// matched against a neighbour within ±2ε.
const searchWindow = 2 * Epsilon

// Plan computes the Aligned Boundary List for indexes (one []float32 per
// rendition's Keyframe Index, possibly empty — e.g. an audio-only
// rendition contributes no index) and a target segment duration
// targetSeconds. Empty indexes impose no constraint: a boundary must
// agree with every *non-empty* index, per the Aligned Boundary List's own
// definition.
//
// N = 0 non-empty indexes returns empty. N = 1 passes that single index
// straight through (still subject to decimation). Otherwise the first
// non-empty index is treated as the "front": every t in front is declared
// common iff every other non-empty index has an entry within ε of t,
// found by sweeping a monotone cursor no further than 2ε past t.
func Plan(indexes [][]float32, targetSeconds float64) []float32 {
	nonEmpty := make([][]float32, 0, len(indexes))
	for _, idx := range indexes {
		if len(idx) > 0 {
			nonEmpty = append(nonEmpty, idx)
		}
	}

	if len(nonEmpty) == 0 {
		return nil
	}
	if len(nonEmpty) == 1 {
		return decimate(nonEmpty[0], targetSeconds)
	}

	front := nonEmpty[0]
	others := nonEmpty[1:]
	cursors := make([]int, len(others))

	aligned := make([]float32, 0, len(front))
	for _, t := range front {
		common := true
		for i, idx := range others {
			c := cursors[i]
			for c < len(idx) && idx[c] <= t+searchWindow {
				c++
			}
			cursors[i] = c
			if !hasMatch(idx, c, t) {
				common = false
			}
		}
		if common {
			aligned = append(aligned, t)
		}
	}
	return decimate(aligned, targetSeconds)
}

// hasMatch reports whether idx has an entry within ε of t. idx is
// monotone non-decreasing and cursor is the first position the sweep has
// not yet passed (idx[cursor] > t+2ε or cursor == len(idx)). Because the
// sweep may already have passed an entry in (t+ε, t+2ε], the two entries
// just behind the cursor are checked for one within ε.
func hasMatch(idx []float32, cursor int, t float32) bool {
	for i := cursor - 1; i >= 0 && i >= cursor-2; i-- {
		if abs32(idx[i]-t) < Epsilon {
			return true
		}
	}
	return false
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// decimate walks aligned, accepting t iff (t-last) >= D or
// |(t-last)-D| < 1.0 (the ±1s slack absorbing sub-GOP drift), starting
// last at 0.
func decimate(aligned []float32, d float64) []float32 {
	if len(aligned) == 0 {
		return nil
	}
	out := make([]float32, 0, len(aligned))
	last := 0.0
	for _, t := range aligned {
		ft := float64(t)
		if ft-last >= d || abs64(ft-last-d) < 1.0 {
			out = append(out, t)
			last = ft
		}
	}
	return out
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
