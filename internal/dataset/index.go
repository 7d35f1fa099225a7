package dataset

import "sort"

// Index assigns dense, stable positions to string identifiers.
type Index struct {
	keys []string
	pos  map[string]int
}

// NewIndex builds an Index over the distinct keys, sorted.
func NewIndex(keys []string) *Index {
	pos := make(map[string]int, len(keys))
	var uniq []string
	for _, k := range keys {
		if _, ok := pos[k]; ok {
			continue
		}
		pos[k] = 0
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)
	for i, k := range uniq {
		pos[k] = i
	}
	return &Index{keys: uniq, pos: pos}
}

// StudentIndex indexes the students appearing in responses.
func StudentIndex(responses []Response) *Index {
	keys := make([]string, len(responses))
	for i, r := range responses {
		keys[i] = r.Student
	}
	return NewIndex(keys)
}

// ItemIndex indexes the items appearing in responses.
func ItemIndex(responses []Response) *Index {
	keys := make([]string, len(responses))
	for i, r := range responses {
		keys[i] = r.Item
	}
	return NewIndex(keys)
}

func (ix *Index) Len() int { return len(ix.keys) }

func (ix *Index) Key(i int) string { return ix.keys[i] }

// Keys returns a copy of the ordered keys.
func (ix *Index) Keys() []string { return append([]string(nil), ix.keys...) }

// Index returns the position of key.
func (ix *Index) Index(key string) (int, bool) {
	i, ok := ix.pos[key]
	return i, ok
}
