package feed

import "vaultScope/internal/model"

// userPriority ranks records of one transaction; the higher rank wins.
func userPriority(t model.EventType) int {
	if t == model.EventTransfer {
		return 1
	}
	return 0
}

// DedupeUserEvents keeps one record per transaction hash. The first record
// seen for a hash fixes its position; a later record of strictly higher
// priority replaces the content at that position. Records without a hash are
// always kept. Input order is otherwise preserved.
func DedupeUserEvents(events []model.Event) []model.Event {
	type slot struct {
		index    int
		priority int
	}
	seen := make(map[string]slot, len(events))
	out := make([]model.Event, 0, len(events))

	for _, e := range events {
		hash := model.TxKey(e)
		if hash == "" {
			out = append(out, e)
			continue
		}

		priority := userPriority(e.Kind())
		existing, ok := seen[hash]
		if !ok {
			seen[hash] = slot{index: len(out), priority: priority}
			out = append(out, e)
			continue
		}
		if priority > existing.priority {
			out[existing.index] = e
			seen[hash] = slot{index: existing.index, priority: priority}
		}
	}
	return out
}

// FilterTypes returns the events whose type is in types, preserving order.
func FilterTypes(events []model.Event, types ...model.EventType) []model.Event {
	allowed := make(map[model.EventType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if _, ok := allowed[e.Kind()]; ok {
			out = append(out, e)
		}
	}
	return out
}
