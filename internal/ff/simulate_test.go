package ff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_OneWeek(t *testing.T) {
	scores, bonus := SeasonInputs(oneWeekScenario())
	sim, err := Simulate(context.Background(), scores, bonus, Options{Trials: 1000, Source: rand.NewSource(1)})
	require.NoError(t, err)

	require.Contains(t, sim, "A")
	assert.Len(t, sim["A"], 3)
	assert.InDelta(t, 1., sim["A"].P(2), 1e-12)
	assert.Equal(t, 2, sim["A"].Median())
}

func TestSimulate_SumsToOne(t *testing.T) {
	results := makeSeason(fourTeams, fourPoints, fourPairings, 2)
	scores, bonus := SeasonInputs(results)
	sim, err := Simulate(context.Background(), scores, bonus, Options{Trials: 5000, Source: rand.NewSource(2)})
	require.NoError(t, err)
	require.Len(t, sim, len(fourTeams))

	for team, d := range sim {
		assert.InDelta(t, 1., d.Sum(), 1e-6, team)
		assert.Len(t, d, 2*len(fourPairings)+1, team)
		for w, p := range d {
			assert.GreaterOrEqual(t, p, 0., "%s P(%d)", team, w)
		}
	}
	t.Logf("\n%s", sim)
}

func TestSimulate_NoWeeks(t *testing.T) {
	scores := map[string][]float64{"A": {}, "B": {12.}}
	sim, err := Simulate(context.Background(), scores, nil, Options{Trials: 100, Source: rand.NewSource(3)})
	require.NoError(t, err)
	assert.Equal(t, Degenerate(), sim["A"])
	// A has no score for week 1, so B always wins it.
	assert.InDelta(t, 1., sim["B"].P(1), 1e-12)
}

func TestSimulate_MissedWeek(t *testing.T) {
	scores := map[string][]float64{
		"A": {50, 50},
		"B": {math.NaN(), 100},
		"C": {60, 10},
	}
	sim, err := Simulate(context.Background(), scores, nil, Options{Trials: 4000, Source: rand.NewSource(7)})
	require.NoError(t, err)

	assert.Len(t, sim["A"], 5)
	assert.InDelta(t, .5, sim["A"].P(0), .05)
	assert.InDelta(t, .5, sim["A"].P(2), .05)
	assert.Zero(t, sim["A"].P(1))
	// B played one week and beat both possible opponents.
	assert.Equal(t, Distribution{0, 1, 0}, sim["B"])
}

func TestSimulate_Empty(t *testing.T) {
	sim, err := Simulate(context.Background(), nil, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, sim)
}

func TestSimulate_Precondition(t *testing.T) {
	scores := map[string][]float64{
		"A": {1, 2, 3},
		"B": {3, 2, 1},
		"C": {2},
	}
	sim, err := Simulate(context.Background(), scores, nil, Options{Trials: 100, Source: rand.NewSource(4)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))

	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Weeks)
	assert.Equal(t, 2, pe.Opponents)

	assert.NotContains(t, sim, "A")
	assert.NotContains(t, sim, "B")
	assert.Contains(t, sim, "C")
}

func TestSimulate_Reproducible(t *testing.T) {
	results := makeSeason(fourTeams, fourPoints, fourPairings, 2)
	scores, bonus := SeasonInputs(results)

	first, err := Simulate(context.Background(), scores, bonus, Options{Trials: 2000, Source: rand.NewSource(42), Workers: 1})
	require.NoError(t, err)
	second, err := Simulate(context.Background(), scores, bonus, Options{Trials: 2000, Source: rand.NewSource(42), Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulate_Roster(t *testing.T) {
	scores := map[string][]float64{
		"A": {10},
		"B": {20},
		"C": {5},
	}
	sim, err := Simulate(context.Background(), scores, nil, Options{
		Trials: 500,
		Source: rand.NewSource(5),
		Roster: []string{"A", "C"},
	})
	require.NoError(t, err)
	// B is never drawn, so A always beats C.
	assert.InDelta(t, 1., sim["A"].P(1), 1e-12)
	// B's only possible opponents are A and C.
	assert.InDelta(t, 1., sim["B"].P(1), 1e-12)
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scores, bonus := SeasonInputs(makeSeason(fourTeams, fourPoints, fourPairings, 2))
	sim, err := Simulate(ctx, scores, bonus, Options{Trials: 100000})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sim)
}

func TestExactDistribution(t *testing.T) {
	scores := map[string][]float64{
		"A": {10, 10},
		"B": {5, 20},
		"C": {20, 5},
	}
	d, err := ExactDistribution("A", scores, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Distribution{.5, 0, .5, 0, 0}, d)

	d, err = ExactDistribution("A", scores, map[string][]bool{"A": {true, false}}, nil)
	require.NoError(t, err)
	assert.Equal(t, Distribution{0, .5, 0, .5, 0}, d)
}

func TestExactDistribution_MatchesSimulate(t *testing.T) {
	teams := []string{"A", "B", "C", "D", "E", "F"}
	points := [][]float64{
		{101, 87, 120, 95, 110, 76},
		{90, 130, 85, 99, 104, 112},
		{115, 93, 97, 125, 88, 101},
	}
	pairings := [][][2]int{
		{{0, 1}, {2, 3}, {4, 5}},
		{{0, 2}, {1, 4}, {3, 5}},
		{{0, 3}, {1, 5}, {2, 4}},
	}
	scores, bonus := SeasonInputs(makeSeason(teams, points, pairings, 3))

	sim, err := Simulate(context.Background(), scores, bonus, Options{Trials: 20000, Source: rand.NewSource(6)})
	require.NoError(t, err)

	for _, team := range teams {
		exact, err := ExactDistribution(team, scores, bonus, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1., exact.Sum(), 1e-9)
		for w := range exact {
			assert.InDelta(t, exact[w], sim[team].P(w), 0.02, "%s P(%d)", team, w)
		}
	}
}

func TestExactDistribution_TooLarge(t *testing.T) {
	scores := make(map[string][]float64)
	for _, team := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m"} {
		scores[team] = []float64{1}
	}
	_, err := ExactDistribution("a", scores, nil, nil)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func BenchmarkSimulate(b *testing.B) {
	scores, bonus := SeasonInputs(makeSeason(fourTeams, fourPoints, fourPairings, 2))
	src := rand.NewSource(0)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := Simulate(context.Background(), scores, bonus, Options{Source: src})
		if err != nil {
			b.Fatal(err)
		}
	}
}
