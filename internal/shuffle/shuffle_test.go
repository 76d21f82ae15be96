package shuffle

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleIsPermutation(t *testing.T) {
	s := Seeded(42)
	for n := 0; n < 20; n++ {
		in := make([]int, n)
		for i := range in {
			in[i] = i * 3
		}
		out := Shuffle(s, in)
		require.Len(t, out, n)

		sorted := append([]int(nil), out...)
		sort.Ints(sorted)
		assert.Equal(t, in, sorted)
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	orig := append([]string(nil), in...)

	_ = Shuffle(New(), in)
	assert.Equal(t, orig, in)
}

func TestShuffleSameSeedSameOrder(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	a := Shuffle(Seeded(7), in)
	b := Shuffle(Seeded(7), in)
	assert.Equal(t, a, b)
}

func TestShuffleRoughlyUniform(t *testing.T) {
	const (
		n      = 4
		trials = 40000
	)
	in := []int{0, 1, 2, 3}
	s := Seeded(1)

	var counts [n][n]int
	for i := 0; i < trials; i++ {
		out := Shuffle(s, in)
		for pos, v := range out {
			counts[pos][v]++
		}
	}

	expected := float64(trials) / n
	for pos := 0; pos < n; pos++ {
		for v := 0; v < n; v++ {
			got := float64(counts[pos][v])
			assert.InDelta(t, expected, got, expected*0.05, "position %d value %d", pos, v)
		}
	}
}

func TestDailySeed(t *testing.T) {
	loc := time.UTC
	morning := time.Date(2024, 3, 9, 6, 0, 0, 0, loc)
	evening := time.Date(2024, 3, 9, 23, 59, 0, 0, loc)
	nextDay := time.Date(2024, 3, 10, 0, 0, 1, 0, loc)

	assert.Equal(t, DailySeed(morning, "s"), DailySeed(evening, "s"))
	assert.NotEqual(t, DailySeed(morning, "s"), DailySeed(nextDay, "s"))
	assert.NotEqual(t, DailySeed(morning, "s"), DailySeed(morning, "other"))
	assert.GreaterOrEqual(t, DailySeed(morning, "s"), int64(0))
}
