package feed

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultScope/internal/model"
)

func TestSortCrossChainByTimestamp(t *testing.T) {
	a := deposit("1_100_0", "1000", "")
	b := deposit("8453_50_0", "999", "")

	sorted := Sort([]model.Event{a, b})
	assert.Equal(t, []string{"8453_50_0", "1_100_0"}, ids(sorted))

	newest := NewestFirst([]model.Event{a, b})
	assert.Equal(t, []string{"1_100_0", "8453_50_0"}, ids(newest))
}

func TestSortCrossChainLowerBlockDoesNotWin(t *testing.T) {
	a := deposit("1_10_0", "1000", "")
	b := deposit("8453_99999_0", "999", "")

	assert.Equal(t, []string{"8453_99999_0", "1_10_0"}, ids(Sort([]model.Event{a, b})))
}

func TestSortMixedTimestampUnits(t *testing.T) {
	seconds := deposit("1_100_0", "1700000001", "")
	millis := deposit("8453_50_0", "1700000000000", "")

	assert.Equal(t, []string{"8453_50_0", "1_100_0"}, ids(Sort([]model.Event{seconds, millis})))
}

func TestSortCrossChainMissingTimestampsKeepsOrder(t *testing.T) {
	a := deposit("1_500_0", "", "")
	b := deposit("8453_10_0", "", "")

	assert.Equal(t, []string{"1_500_0", "8453_10_0"}, ids(Sort([]model.Event{a, b})))
	assert.Equal(t, []string{"8453_10_0", "1_500_0"}, ids(Sort([]model.Event{b, a})))
	assert.Equal(t, 0, NewSorter(nil).Compare(a, b))
}

func TestSortSameChainFallsBackToBlockAndLogIndex(t *testing.T) {
	a := deposit("1_101_0", "", "")
	b := deposit("1_100_5", "", "")
	c := deposit("1_100_2", "", "")

	assert.Equal(t, []string{"1_100_2", "1_100_5", "1_101_0"}, ids(Sort([]model.Event{a, b, c})))
}

func TestSortEqualTimestampsUseBlockThenLog(t *testing.T) {
	a := deposit("1_100_4", "1000", "")
	b := deposit("1_100_1", "1000", "")

	assert.Equal(t, []string{"1_100_1", "1_100_4"}, ids(Sort([]model.Event{a, b})))
}

func TestSortBlockNumberFromIDWhenFieldMissing(t *testing.T) {
	a := model.DepositEvent{Envelope: model.Envelope{ID: "1_200_0", ChainID: 1}}
	b := model.DepositEvent{Envelope: model.Envelope{ID: "1_100_0", ChainID: 1, BlockNumber: "not-a-number"}}

	assert.Equal(t, []string{"1_100_0", "1_200_0"}, ids(Sort([]model.Event{a, b})))
}

func TestSortMalformedIDsSortLast(t *testing.T) {
	bad := model.DepositEvent{Envelope: model.Envelope{ID: "1_garbage", ChainID: 1}}
	good := deposit("1_100_0", "", "")
	worse := model.DepositEvent{Envelope: model.Envelope{ID: "1_x_y", ChainID: 1}}

	first := Sort([]model.Event{bad, good, worse})
	second := Sort([]model.Event{worse, good, bad})

	assert.Equal(t, "1_100_0", first[0].Header().ID)
	assert.Equal(t, "1_100_0", second[0].Header().ID)
	// Invalid keys compare equal to each other, so their relative order is kept.
	assert.Equal(t, []string{"1_100_0", "1_garbage", "1_x_y"}, ids(first))
	assert.Equal(t, []string{"1_100_0", "1_x_y", "1_garbage"}, ids(second))
}

func TestSortIdempotent(t *testing.T) {
	events := []model.Event{
		deposit("1_300_1", "1300", ""),
		withdraw("8453_20_0", "1100", ""),
		transfer("1_300_0", "1300", ""),
		deposit("8453_25_3", "1250", ""),
		deposit("1_200_0", "1200", ""),
	}

	once := Sort(events)
	twice := Sort(once)
	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, []string{"8453_20_0", "1_200_0", "8453_25_3", "1_300_0", "1_300_1"}, ids(once))
}

// randomEvents spreads n deposits over three chains with about half the
// timestamps missing. With monotonic set, timestamps grow with block number
// inside each chain.
func randomEvents(rng *rand.Rand, n int, monotonic bool) []model.Event {
	chains := []int64{1, 8453, 10}
	events := make([]model.Event, n)
	for i := range events {
		c := rng.Intn(len(chains))
		block := rng.Intn(40)
		id := fmt.Sprintf("%d_%d_%d", chains[c], block, i)
		ts := ""
		if rng.Intn(2) == 0 {
			if monotonic {
				ts = fmt.Sprint(1000 + 2*block + c/2)
			} else {
				ts = fmt.Sprint(1000 + rng.Intn(30))
			}
		}
		events[i] = deposit(id, ts, "")
	}
	return events
}

func TestSortIdempotentOnLargeMixedInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 500; trial++ {
		events := randomEvents(rng, 20+rng.Intn(61), trial%2 == 0)

		once := Sort(events)
		require.Len(t, once, len(events))
		require.ElementsMatch(t, ids(events), ids(once))
		require.Equal(t, ids(once), ids(Sort(once)), "trial %d", trial)
	}
}

func TestSortRespectsChainAndTimestampOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		sorted := Sort(randomEvents(rng, 20+rng.Intn(61), true))
		keys := make([]sortKey, len(sorted))
		for i, e := range sorted {
			keys[i] = keyOf(e, defaultSorter.normalizer)
		}
		for i := range keys {
			for j := i + 1; j < len(keys); j++ {
				a, b := keys[i], keys[j]
				if sameChain(a, b) {
					require.LessOrEqual(t, compareWithinChain(a, b), 0, "trial %d: %s before %s", trial, sorted[i].Header().ID, sorted[j].Header().ID)
				} else {
					require.False(t, precedesAcrossChains(b, a), "trial %d: %s before %s", trial, sorted[i].Header().ID, sorted[j].Header().ID)
				}
			}
		}
	}
}

func TestSortTimestampedEventWaitsForEarlierChain(t *testing.T) {
	events := []model.Event{
		deposit("1_10_0", "1005", ""),
		deposit("8453_5_0", "", ""),
		deposit("8453_6_0", "1001", ""),
	}

	assert.Equal(t, []string{"8453_5_0", "8453_6_0", "1_10_0"}, ids(Sort(events)))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	events := []model.Event{deposit("1_2_0", "2", ""), deposit("1_1_0", "1", "")}
	_ = Sort(events)
	assert.Equal(t, []string{"1_2_0", "1_1_0"}, ids(events))
}
