package ff

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/atgjack/prob"
)

// Distribution is a probability mass function over season win totals.
// Index i holds the probability of exactly i wins.
type Distribution []float64

// Degenerate returns the distribution of a team that has played no weeks: zero wins with certainty.
func Degenerate() Distribution {
	return Distribution{1.}
}

// P returns the probability of exactly w wins. Win totals outside the support have probability 0.
func (d Distribution) P(w int) float64 {
	if w < 0 || w >= len(d) {
		return 0.
	}
	return d[w]
}

// Sum returns the total probability mass.
func (d Distribution) Sum() float64 {
	s := 0.
	for _, p := range d {
		s += p
	}
	return s
}

// AtLeast returns the reverse cumulative distribution: element i is the probability of at least i wins.
func (d Distribution) AtLeast() []float64 {
	out := make([]float64, len(d))
	c := 0.
	for i := len(d) - 1; i >= 0; i-- {
		c += d[i]
		out[i] = c
	}
	return out
}

// Median returns the smallest win total w such that P(wins <= w) >= 0.5.
func (d Distribution) Median() int {
	c := 0.
	for w, p := range d {
		c += p
		if c >= 0.5-1e-12 {
			return w
		}
	}
	return len(d) - 1
}

// Mean returns the expected number of wins.
func (d Distribution) Mean() float64 {
	m := 0.
	for w, p := range d {
		m += float64(w) * p
	}
	return m
}

// StdDev returns the standard deviation of the number of wins.
func (d Distribution) StdDev() float64 {
	m := d.Mean()
	v := 0.
	for w, p := range d {
		v += (float64(w) - m) * (float64(w) - m) * p
	}
	return math.Sqrt(v)
}

// Verdict classifies a team's actual win total against its simulated distribution.
type Verdict int

const (
	// AsExpected means the team won exactly the median number of simulated wins.
	AsExpected Verdict = iota

	// Lucky means the team won more than the median number of simulated wins.
	Lucky

	// Unlucky means the team won fewer than the median number of simulated wins.
	Unlucky
)

func (v Verdict) String() string {
	switch v {
	case Lucky:
		return "lucky"
	case Unlucky:
		return "unlucky"
	default:
		return "as expected"
	}
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// LuckReport compares a team's actual wins with its simulated distribution.
type LuckReport struct {
	Team     string  `json:"team_name" firestore:"team_name"`
	Actual   int     `json:"actual_wins" firestore:"actual_wins"`
	Median   int     `json:"median_wins" firestore:"median_wins"`
	Expected float64 `json:"expected_wins" firestore:"expected_wins"`
	StdDev   float64 `json:"std_dev" firestore:"std_dev"`
	// Percentile is the mid-rank of the actual total: P(wins < actual) + P(wins == actual)/2.
	Percentile float64 `json:"percentile" firestore:"percentile"`
	// ZScore and NormalPercentile use a normal approximation of the distribution.
	ZScore           float64      `json:"z_score" firestore:"z_score"`
	NormalPercentile float64      `json:"normal_percentile" firestore:"normal_percentile"`
	Verdict          Verdict      `json:"verdict" firestore:"-"`
	VerdictName      string       `json:"-" firestore:"verdict"`
	Distribution     Distribution `json:"distribution" firestore:"distribution"`
}

// Luck builds a LuckReport for one team.
func Luck(team string, actual int, d Distribution) LuckReport {
	r := LuckReport{
		Team:         team,
		Actual:       actual,
		Median:       d.Median(),
		Expected:     d.Mean(),
		StdDev:       d.StdDev(),
		Distribution: d,
	}

	for w, p := range d {
		if w < actual {
			r.Percentile += p
		} else if w == actual {
			r.Percentile += p / 2
		}
	}

	r.NormalPercentile = 0.5
	if r.StdDev > 0 {
		r.ZScore = (float64(actual) - r.Expected) / r.StdDev
		normal := prob.Normal{Mu: r.Expected, Sigma: r.StdDev}
		r.NormalPercentile = normal.Cdf(float64(actual))
	}

	switch {
	case actual > r.Median:
		r.Verdict = Lucky
	case actual < r.Median:
		r.Verdict = Unlucky
	default:
		r.Verdict = AsExpected
	}
	r.VerdictName = r.Verdict.String()

	return r
}

// LuckTable builds LuckReports in standings order.
// Teams without a simulated distribution are skipped.
func LuckTable(s Standings, sim Simulation) []LuckReport {
	out := make([]LuckReport, 0, len(s))
	for _, row := range s {
		d, ok := sim[row.Team]
		if !ok {
			continue
		}
		out = append(out, Luck(row.Team, row.TotalWins, d))
	}
	return out
}

// Simulation maps team names to simulated win distributions.
type Simulation map[string]Distribution

// Teams returns the simulated teams in sorted order.
func (s Simulation) Teams() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MaxWins returns the largest win total in the support of any distribution.
func (s Simulation) MaxWins() int {
	m := 0
	for _, d := range s {
		if len(d)-1 > m {
			m = len(d) - 1
		}
	}
	return m
}

func (s Simulation) String() string {
	keys := s.Teams()
	nWins := s.MaxWins() + 1

	var buffer bytes.Buffer

	buffer.WriteString("              ")
	for i := 0; i < nWins; i++ {
		buffer.WriteString(fmt.Sprintf(" %6d ", i))
	}
	buffer.WriteString("\n")
	for _, k := range keys {
		buffer.WriteString(fmt.Sprintf(" %12s ", Truncate(k, 12)))
		for i := 0; i < nWins; i++ {
			buffer.WriteString(fmt.Sprintf(" %6.4f ", s[k].P(i)))
		}
		buffer.WriteString("\n")
	}

	return buffer.String()
}
