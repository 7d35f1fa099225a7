package irt

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

type recordingObserver struct {
	picks [][2]int
}

func (r *recordingObserver) ObserveSelection(student, item int) {
	r.picks = append(r.picks, [2]int{student, item})
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		thetas     []float64
		difficulty []float64
		mask       Mask
		want       []int
	}{
		{"prefers half probability", []float64{0}, []float64{0, 1, -1}, NewMask(1, 3, true), []int{0}},
		// Items 1 and 2 sit at equal distance on either side of theta.
		{"mirrored items tie to lowest index", []float64{0}, []float64{0, 1, -1}, Mask{{false, true, true}}, []int{1}},
		{"identical difficulty ties", []float64{0.5, 0.5}, []float64{3, 2, 2, 2}, NewMask(2, 4, true), []int{1, 1}},
		// Item 0 is the ideal item but only item 3 may be asked.
		{"respects mask", []float64{0}, []float64{0, 0.1, -0.1, 9}, Mask{{false, false, false, true}}, []int{3}},
		{"per student", []float64{-2, 0, 4}, []float64{-2, 0, 4}, NewMask(3, 3, true), []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Selector{}.Select(tt.thetas, tt.difficulty, tt.mask)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Select = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInformationLoss_Mirrored(t *testing.T) {
	if a, b := InformationLoss(0, 1), InformationLoss(0, -1); a != b {
		t.Errorf("InformationLoss(0, 1) = %v, InformationLoss(0, -1) = %v", a, b)
	}
}

func TestSelect_NothingQueryable(t *testing.T) {
	obs := &recordingObserver{}
	sel := Selector{Observer: obs}
	mask := Mask{{false, false}, {true, false}}
	got, err := sel.Select([]float64{0, 0}, []float64{0, 1}, mask)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if want := []int{NoItem, 0}; !slices.Equal(got, want) {
		t.Errorf("Select = %v, want %v", got, want)
	}
	if want := [][2]int{{1, 0}}; !reflect.DeepEqual(obs.picks, want) {
		t.Errorf("observed %v, want %v", obs.picks, want)
	}
}

func TestSelect_ObserverDoesNotChangeResult(t *testing.T) {
	thetas := []float64{0.2, -1.3, 2.4}
	difficulty := []float64{1, -1, 0.5, 2}
	mask := Mask{{true, true, false, true}, {true, true, true, true}, {false, true, true, true}}

	plain, err := Selector{}.Select(thetas, difficulty, mask)
	if err != nil {
		t.Fatal(err)
	}

	obs := &recordingObserver{}
	observed, err := Selector{Observer: obs}.Select(thetas, difficulty, mask)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(plain, observed) {
		t.Errorf("with observer %v, without %v", observed, plain)
	}
	if len(obs.picks) != 3 {
		t.Errorf("observer saw %d picks, want 3", len(obs.picks))
	}
}

func TestSelect_MalformedInput(t *testing.T) {
	tests := []struct {
		name       string
		thetas     []float64
		difficulty []float64
		mask       Mask
		want       error
	}{
		{"too few mask rows", []float64{0, 0}, []float64{0}, Mask{{true}}, ErrShape},
		{"ragged mask", []float64{0}, []float64{0, 1}, Mask{{true}}, ErrShape},
		{"nan theta", []float64{nan()}, []float64{0}, Mask{{true}}, ErrValue},
		{"inf difficulty", []float64{0}, []float64{inf()}, Mask{{true}}, ErrValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Selector{}.Select(tt.thetas, tt.difficulty, tt.mask)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
