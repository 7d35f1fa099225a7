package dataset

import "github.com/abhisek/adaptiq/internal/irt"

// ItemLookup resolves an item key to its column. *irt.Calibration and
// *Index both satisfy it.
type ItemLookup interface {
	Index(key string) (int, bool)
}

// Grid is a dense view of responses: Outcome holds the answer where
// Observed is set.
type Grid struct {
	Students *Index
	Outcome  irt.Matrix
	Observed irt.Mask

	// Dropped counts responses whose item was not known to the lookup.
	Dropped int
}

// NewGrid lays responses out as a students × items grid. When a student
// answered the same item more than once the last response wins.
func NewGrid(responses []Response, items ItemLookup, itemCount int) *Grid {
	students := StudentIndex(responses)
	g := &Grid{
		Students: students,
		Outcome:  irt.NewMatrix(students.Len(), itemCount),
		Observed: irt.NewMask(students.Len(), itemCount, false),
	}
	for _, r := range responses {
		it, ok := items.Index(r.Item)
		if !ok || it >= itemCount {
			g.Dropped++
			continue
		}
		st, _ := students.Index(r.Student)
		g.Outcome[st][it] = float64(r.Outcome)
		g.Observed[st][it] = true
	}
	return g
}

// ObservedCount returns the number of set cells.
func (g *Grid) ObservedCount() int {
	n := 0
	for _, row := range g.Observed {
		for _, ok := range row {
			if ok {
				n++
			}
		}
	}
	return n
}
