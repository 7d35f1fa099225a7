package irt

import (
	"errors"
	"slices"
	"testing"
)

func TestHistories(t *testing.T) {
	masked := Matrix{
		{0, 3, 1},
		{0, 0, 0},
	}
	binary := Matrix{
		{1, 0, 1}, // position 0 unasked, its value is ignored
		{0, 0, 0},
	}
	hist, n, err := Histories(masked, binary, []float64{-1, 0.5, 2})
	if err != nil {
		t.Fatalf("Histories: %v", err)
	}
	if n != 2 {
		t.Errorf("observed = %d, want 2", n)
	}
	if want := []Record{{0.5, 0}, {2, 1}}; !slices.Equal(hist[0], want) {
		t.Errorf("student 0 history = %v, want %v", hist[0], want)
	}
	if len(hist[1]) != 0 {
		t.Errorf("student 1 history = %v, want empty", hist[1])
	}
}

func TestHistories_Rejects(t *testing.T) {
	diff := []float64{0, 1}
	tests := []struct {
		name   string
		masked Matrix
		binary Matrix
		want   error
	}{
		{"row mismatch", Matrix{{1, 0}}, Matrix{{1, 0}, {0, 0}}, ErrShape},
		{"column mismatch", Matrix{{1, 0, 0}}, Matrix{{1, 0, 0}}, ErrShape},
		{"non-binary outcome", Matrix{{1, 0}}, Matrix{{0.5, 0}}, ErrValue},
		{"nan mask", Matrix{{nan(), 0}}, Matrix{{1, 0}}, ErrValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Histories(tt.masked, tt.binary, diff)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
