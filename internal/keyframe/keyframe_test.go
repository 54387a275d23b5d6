package keyframe

import "testing"

func TestIndexEmpty(t *testing.T) {
	if !(Index{}).Empty() {
		t.Fatalf("zero-value Index should be empty")
	}
	if (Index{Times: []float32{0, 1}}).Empty() {
		t.Fatalf("non-empty Times should not be Empty")
	}
}
