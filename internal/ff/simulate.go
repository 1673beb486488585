package ff

import (
	"context"
	"errors"
	"io"
	"math"
	"math/big"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTrials is the number of simulated seasons per team when Options.Trials is not set.
const DefaultTrials = 10000

// MaxExactPermutations caps the opponent orderings ExactDistribution will walk.
var MaxExactPermutations = big.NewInt(5000000)

// Options configure Simulate.
type Options struct {
	// Trials is the number of simulated seasons per team. Defaults to DefaultTrials.
	Trials int
	// Source seeds the per-team random generators. Defaults to a time-seeded source.
	// A fixed source makes the whole simulation reproducible.
	Source rand.Source
	// Roster restricts the opponent pool to these teams. Nil means every scored team.
	Roster []string
	// Workers bounds the teams simulated concurrently. Defaults to GOMAXPROCS.
	Workers int
	// Log receives per-team progress. Defaults to a discarding logger.
	Log logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Trials <= 0 {
		o.Trials = DefaultTrials
	}
	if o.Source == nil {
		o.Source = rand.NewSource(time.Now().UnixNano())
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Log = l
	}
	return o
}

// season holds one team's fixed inputs to the simulation.
type season struct {
	team      string
	scores    []float64
	weeks     []int // indices of the weeks the team played
	bonusWins int
	opponents [][]float64
}

func newSeason(team string, scores map[string][]float64, bonus map[string][]bool, pool []string) (*season, error) {
	s := &season{team: team, scores: scores[team]}
	for w, p := range s.scores {
		if !math.IsNaN(p) {
			s.weeks = append(s.weeks, w)
		}
	}
	n := len(s.weeks)

	opponents := make([][]float64, 0, len(pool))
	for _, opp := range pool {
		if opp == team {
			continue
		}
		opponents = append(opponents, scores[opp])
	}
	s.opponents = opponents

	if n == 0 {
		return s, nil
	}
	if len(opponents) < n {
		return nil, &PreconditionError{Team: team, Weeks: n, Opponents: len(opponents)}
	}

	// The bonus win does not depend on who the opponent is.
	b := bonus[team]
	for _, w := range s.weeks {
		if w < len(b) && b[w] {
			s.bonusWins++
		}
	}
	return s, nil
}

// wins counts the season wins when order[j] is the opponent for the j-th played week.
// An opponent with no score for that week scored zero.
func (s *season) wins(order []int) int {
	win := s.bonusWins
	for j, w := range s.weeks {
		opp := s.opponents[order[j]]
		theirs := 0.
		if w < len(opp) && !math.IsNaN(opp[w]) {
			theirs = opp[w]
		}
		if s.scores[w] > theirs {
			win++
		}
	}
	return win
}

func (s *season) simulate(ctx context.Context, rng *rand.Rand, trials int) (Distribution, error) {
	n := len(s.weeks)
	if n == 0 {
		return Degenerate(), nil
	}

	hist := make([]int, 2*n+1)
	order := NewIndexPermutor(len(s.opponents)).indices
	for i := 0; i < trials; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		drawPrefix(rng, order, n)
		hist[s.wins(order)]++
	}

	out := make(Distribution, len(hist))
	for i, c := range hist {
		out[i] = float64(c) / float64(trials)
	}
	return out, nil
}

// opponentPool returns the sorted teams that may be drawn as opponents.
func opponentPool(scores map[string][]float64, roster []string) []string {
	pool := make([]string, 0, len(scores))
	if roster == nil {
		for team := range scores {
			pool = append(pool, team)
		}
	} else {
		seen := make(map[string]bool)
		for _, team := range roster {
			if _, ok := scores[team]; ok && !seen[team] {
				seen[team] = true
				pool = append(pool, team)
			}
		}
	}
	sort.Strings(pool)
	return pool
}

type teamResult struct {
	team string
	dist Distribution
	err  error
}

// Simulate estimates, for every team in scores, the distribution of season wins it would have had against randomly ordered opponents.
// Each simulated season faces a uniformly random sequence of distinct opponents, one per week, while every team keeps its actual weekly scores.
// The team's bonus wins are added unchanged.
// scores are indexed by week, as SeasonInputs builds them. A NaN marks a week the team did not play: it is
// skipped for that team and counts as zero points for anyone drawn against it.
//
// Teams whose opponent pool is smaller than their number of weeks are left out of the result and reported in the returned error, which wraps ErrPrecondition.
// The other teams are still simulated, so callers can choose to use the partial result.
// If ctx is cancelled, Simulate returns ctx.Err() and no result.
func Simulate(ctx context.Context, scores map[string][]float64, bonus map[string][]bool, opts Options) (Simulation, error) {
	opts = opts.withDefaults()
	out := make(Simulation)
	if len(scores) == 0 {
		return out, nil
	}

	teams := make([]string, 0, len(scores))
	for team := range scores {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	pool := opponentPool(scores, opts.Roster)

	// Seed every team before any goroutine starts so results do not depend on scheduling.
	master := rand.New(opts.Source)
	seeds := make(map[string]int64, len(teams))
	for _, team := range teams {
		seeds[team] = master.Int63()
	}

	jobs := make(chan string, len(teams))
	results := make(chan teamResult, len(teams))
	var wg sync.WaitGroup
	for i := 0; i < opts.Workers && i < len(teams); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for team := range jobs {
				s, err := newSeason(team, scores, bonus, pool)
				if err != nil {
					results <- teamResult{team: team, err: err}
					continue
				}
				rng := rand.New(rand.NewSource(seeds[team]))
				d, err := s.simulate(ctx, rng, opts.Trials)
				results <- teamResult{team: team, dist: d, err: err}
			}
		}()
	}
	for _, team := range teams {
		jobs <- team
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	errs := make([]error, 0)
	for result := range results {
		if result.err != nil {
			opts.Log.WithField("team", result.team).WithError(result.err).Warn("team not simulated")
			errs = append(errs, result.err)
			continue
		}
		opts.Log.WithFields(logrus.Fields{
			"team":   result.team,
			"trials": opts.Trials,
			"median": result.dist.Median(),
		}).Debug("simulated season")
		out[result.team] = result.dist
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return out, errors.Join(errs...)
	}
	return out, nil
}

// ExactDistribution computes a team's win distribution by walking every distinct assignment of opponents to weeks.
// It agrees with Simulate in the limit of infinite trials, and returns ErrTooLarge when the opponent pool has more
// than MaxExactPermutations orderings.
func ExactDistribution(team string, scores map[string][]float64, bonus map[string][]bool, roster []string) (Distribution, error) {
	s, err := newSeason(team, scores, bonus, opponentPool(scores, roster))
	if err != nil {
		return nil, err
	}
	n := len(s.weeks)
	if n == 0 {
		return Degenerate(), nil
	}

	pp := NewPrefixPermutor(len(s.opponents), n)
	if pp.NumberOfPermutations().Cmp(MaxExactPermutations) > 0 {
		return nil, ErrTooLarge
	}

	hist := make([]int, 2*n+1)
	total := 0
	for prefix := range pp.Iterator() {
		hist[s.wins(prefix)]++
		total++
	}

	out := make(Distribution, len(hist))
	for i, c := range hist {
		out[i] = float64(c) / float64(total)
	}
	return out, nil
}
