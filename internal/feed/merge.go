// Package feed reconciles vault events from several chains into one ordered,
// deduplicated stream and filters it into display views.
package feed

import (
	"slices"

	"vaultScope/internal/model"
	"vaultScope/internal/timestamp"
)

// sortKey holds the parsed ordering fields of one event.
type sortKey struct {
	ts      int64
	tsOK    bool
	chain   int64
	chainOK bool
	block   int64
	blockOK bool
	log     int64
	logOK   bool
}

func keyOf(e model.Event, n *timestamp.Normalizer) sortKey {
	h := e.Header()
	id := model.ParseEventID(h.ID)

	var k sortKey
	k.ts, k.tsOK = n.Seconds(string(h.BlockTimestamp))
	k.chain, k.chainOK = model.ResolveChainID(e)
	if v, ok := h.BlockNumber.Int64(); ok {
		k.block, k.blockOK = v, true
	} else {
		k.block, k.blockOK = id.BlockNumber, id.BlockNumberValid
	}
	k.log, k.logOK = id.LogIndex, id.LogIndexValid
	return k
}

func sameChain(a, b sortKey) bool {
	return a.chainOK == b.chainOK && a.chain == b.chain
}

// compareKeys orders oldest first. Events on different chains without both
// timestamps are reported equal so a stable sort leaves them in place.
func compareKeys(a, b sortKey) int {
	if a.tsOK && b.tsOK && a.ts != b.ts {
		return cmpInt(a.ts, b.ts)
	}
	if !sameChain(a, b) && (!a.tsOK || !b.tsOK) {
		return 0
	}
	if c := cmpValid(a.block, a.blockOK, b.block, b.blockOK); c != 0 {
		return c
	}
	return cmpValid(a.log, a.logOK, b.log, b.logOK)
}

// cmpValid sorts invalid values after every valid one.
func cmpValid(a int64, aOK bool, b int64, bOK bool) int {
	switch {
	case aOK && bOK:
		return cmpInt(a, b)
	case aOK:
		return -1
	case bOK:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Sorter performs the chronological merge with a configurable normalizer.
type Sorter struct {
	normalizer *timestamp.Normalizer
}

// NewSorter returns a Sorter. A nil normalizer selects the default rules.
func NewSorter(n *timestamp.Normalizer) *Sorter {
	if n == nil {
		n = timestamp.New(nil)
	}
	return &Sorter{normalizer: n}
}

// Compare orders a before b (negative), after b (positive), or neither (zero).
func (s *Sorter) Compare(a, b model.Event) int {
	return compareKeys(keyOf(a, s.normalizer), keyOf(b, s.normalizer))
}

// Sort returns a new slice ordered oldest to newest. Each chain is ordered by
// block and log index, then chains are merged: the next event is the earliest
// in input order among lane heads that no other lane's next timestamped event
// precedes. Events without a timestamp are never held back by another chain.
// Sort(Sort(x)) equals Sort(x).
func (s *Sorter) Sort(events []model.Event) []model.Event {
	type keyed struct {
		event model.Event
		key   sortKey
		pos   int
	}
	type chainID struct {
		id int64
		ok bool
	}

	var order []chainID
	groups := make(map[chainID][]keyed)
	for i, e := range events {
		k := keyOf(e, s.normalizer)
		c := chainID{id: k.chain, ok: k.chainOK}
		if _, seen := groups[c]; !seen {
			order = append(order, c)
		}
		groups[c] = append(groups[c], keyed{event: e, key: k, pos: i})
	}

	lanes := make([][]keyed, len(order))
	for i, c := range order {
		lane := groups[c]
		slices.SortStableFunc(lane, func(a, b keyed) int {
			return compareWithinChain(a.key, b.key)
		})
		lanes[i] = lane
	}

	heads := make([]int, len(lanes))
	gates := make([]int, len(lanes))
	// gate returns the first remaining event of a lane that has a timestamp.
	gate := func(j int) (sortKey, bool) {
		if gates[j] < heads[j] {
			gates[j] = heads[j]
		}
		lane := lanes[j]
		for gates[j] < len(lane) && !lane[gates[j]].key.tsOK {
			gates[j]++
		}
		if gates[j] == len(lane) {
			return sortKey{}, false
		}
		return lane[gates[j]].key, true
	}
	blocked := func(k sortKey, lane int) bool {
		for j := range lanes {
			if j == lane {
				continue
			}
			if g, ok := gate(j); ok && precedesAcrossChains(g, k) {
				return true
			}
		}
		return false
	}
	out := make([]model.Event, 0, len(events))
	for len(out) < len(events) {
		best := -1
		for i, lane := range lanes {
			if heads[i] == len(lane) {
				continue
			}
			cand := lane[heads[i]]
			if blocked(cand.key, i) {
				continue
			}
			if best == -1 || cand.pos < lanes[best][heads[best]].pos {
				best = i
			}
		}
		out = append(out, lanes[best][heads[best]].event)
		heads[best]++
	}
	return out
}

// compareWithinChain is a total order over events of one chain.
func compareWithinChain(a, b sortKey) int {
	if c := cmpValid(a.block, a.blockOK, b.block, b.blockOK); c != 0 {
		return c
	}
	if c := cmpValid(a.log, a.logOK, b.log, b.logOK); c != 0 {
		return c
	}
	return cmpValid(a.ts, a.tsOK, b.ts, b.tsOK)
}

// precedesAcrossChains reports a strictly before b when both carry a
// timestamp. It is a strict partial order, so some lane head is always free:
// a head without a timestamp is never blocked, and among timestamped heads
// the least one is not.
func precedesAcrossChains(a, b sortKey) bool {
	if !a.tsOK || !b.tsOK {
		return false
	}
	if a.ts != b.ts {
		return a.ts < b.ts
	}
	if c := cmpValid(a.block, a.blockOK, b.block, b.blockOK); c != 0 {
		return c < 0
	}
	return cmpValid(a.log, a.logOK, b.log, b.logOK) < 0
}

// NewestFirst sorts ascending and reverses the result.
func (s *Sorter) NewestFirst(events []model.Event) []model.Event {
	out := s.Sort(events)
	slices.Reverse(out)
	return out
}

var defaultSorter = NewSorter(nil)

// Sort orders events oldest to newest using the default timestamp rules.
func Sort(events []model.Event) []model.Event {
	return defaultSorter.Sort(events)
}

// NewestFirst orders events newest to oldest using the default timestamp rules.
func NewestFirst(events []model.Event) []model.Event {
	return defaultSorter.NewestFirst(events)
}
