package feed

import "vaultScope/internal/model"

// MergeIncremental folds a freshly fetched batch into the displayed set.
// Events are keyed by id; the incoming record wins on collision. The result
// is re-sorted oldest to newest.
func (s *Sorter) MergeIncremental(current, incoming []model.Event) []model.Event {
	index := make(map[string]int, len(current)+len(incoming))
	merged := make([]model.Event, 0, len(current)+len(incoming))

	put := func(e model.Event) {
		id := e.Header().ID
		if i, ok := index[id]; ok {
			merged[i] = e
			return
		}
		index[id] = len(merged)
		merged = append(merged, e)
	}
	for _, e := range current {
		put(e)
	}
	for _, e := range incoming {
		put(e)
	}
	return s.Sort(merged)
}

// MergeIncremental uses the default sorter.
func MergeIncremental(current, incoming []model.Event) []model.Event {
	return defaultSorter.MergeIncremental(current, incoming)
}
