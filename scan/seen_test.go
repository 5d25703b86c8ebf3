package scan

import "testing"

func TestSeenSet(t *testing.T) {
	s := NewSeenSet()

	if !s.Add("obj12") {
		t.Error("first Add should report a new id")
	}
	if s.Add("obj12") {
		t.Error("second Add should report a duplicate")
	}
	if !s.Has("obj12") || s.Has("obj13") {
		t.Error("Has reports the wrong membership")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}

	s.Reset()
	if s.Len() != 0 || s.Has("obj12") {
		t.Error("Reset should forget every id")
	}
	if !s.Add("obj12") {
		t.Error("ids should be new again after Reset")
	}
}
