package irt

import (
	"errors"
	"fmt"
	"math"
)

// Calibration is the fixed output of offline fitting: one difficulty per
// item and the baseline ability assigned to students with no history.
// It is read-only once validated; callers share it by pointer.
type Calibration struct {
	// ItemKeys are the external item identifiers, parallel to Difficulty.
	// Optional; when empty items are addressed by index only.
	ItemKeys   []string
	Difficulty []float64
	Theta0     float64

	index map[string]int
}

// NewCalibration validates and builds a Calibration. The slices are copied.
func NewCalibration(keys []string, difficulty []float64, theta0 float64) (*Calibration, error) {
	c := &Calibration{
		ItemKeys:   append([]string(nil), keys...),
		Difficulty: append([]float64(nil), difficulty...),
		Theta0:     theta0,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the calibration is usable.
func (c *Calibration) Validate() error {
	if len(c.Difficulty) == 0 {
		return errors.New("calibration has no items")
	}
	if err := checkFinite("difficulty", c.Difficulty); err != nil {
		return err
	}
	if math.IsNaN(c.Theta0) || math.IsInf(c.Theta0, 0) {
		return valueError("theta0", "baseline is %v", c.Theta0)
	}
	// theta0 seeds every student and stands in for empty histories, so it
	// is held to the same range as estimates.
	if c.Theta0 < MinTheta || c.Theta0 > MaxTheta {
		return valueError("theta0", "baseline %v outside [%v, %v]", c.Theta0, MinTheta, MaxTheta)
	}
	if len(c.ItemKeys) == 0 {
		return nil
	}
	if len(c.ItemKeys) != len(c.Difficulty) {
		return shapeError("item_keys", "got %d keys for %d items", len(c.ItemKeys), len(c.Difficulty))
	}
	idx := make(map[string]int, len(c.ItemKeys))
	for i, k := range c.ItemKeys {
		if _, dup := idx[k]; dup {
			return fmt.Errorf("duplicate item key %q", k)
		}
		idx[k] = i
	}
	c.index = idx
	return nil
}

// Items returns the number of calibrated items.
func (c *Calibration) Items() int {
	return len(c.Difficulty)
}

// Index returns the item index for an external key.
func (c *Calibration) Index(key string) (int, bool) {
	i, ok := c.index[key]
	return i, ok
}

// Key returns the external key for item i, or its decimal index when the
// calibration carries no keys.
func (c *Calibration) Key(i int) string {
	if i >= 0 && i < len(c.ItemKeys) {
		return c.ItemKeys[i]
	}
	return fmt.Sprintf("%d", i)
}
