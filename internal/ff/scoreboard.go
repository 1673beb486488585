package ff

import (
	"math"
	"sort"
)

// CellClass ranks a team's weekly score against the rest of the league that week.
type CellClass int

const (
	// BelowMedian is a score at or below the weekly median.
	BelowMedian CellClass = iota
	// AboveMedian is a score above the weekly median.
	AboveMedian
	// Top is the highest score of the week.
	Top
)

func (c CellClass) String() string {
	switch c {
	case Top:
		return "top"
	case AboveMedian:
		return "above_median"
	default:
		return "below_median"
	}
}

// MarshalText encodes the class by name.
func (c CellClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// PivotCell is one team's score in one week.
type PivotCell struct {
	Points float64   `json:"points"`
	Played bool      `json:"played"`
	Class  CellClass `json:"class"`
}

// PivotRow is one team's weekly scores.
type PivotRow struct {
	Team  string      `json:"team_name"`
	Weeks []PivotCell `json:"weeks"`
}

// WeeklyPivot lays out each team's weekly points as a team-by-week table, with rows in standings order.
// Week w is column w-1. A team without a played row for a week gets an empty cell.
func WeeklyPivot(results []WeeklyResult, s Standings) []PivotRow {
	played, _ := CheckPlayed(results)
	nWeeks := MaxWeek(played)

	byWeek := make(map[int][]float64)
	points := make(map[string]map[int]float64)
	for _, r := range played {
		byWeek[r.Week] = append(byWeek[r.Week], r.PointsFor)
		if _, ok := points[r.Team]; !ok {
			points[r.Team] = make(map[int]float64)
		}
		points[r.Team][r.Week] = r.PointsFor
	}

	maxes := make(map[int]float64)
	medians := make(map[int]float64)
	for week, ps := range byWeek {
		maxes[week] = maxOf(ps)
		medians[week] = median(ps)
	}

	out := make([]PivotRow, 0, len(s))
	for _, row := range s {
		pr := PivotRow{Team: row.Team, Weeks: make([]PivotCell, nWeeks)}
		for week := 1; week <= nWeeks; week++ {
			p, ok := points[row.Team][week]
			if !ok {
				continue
			}
			cell := PivotCell{Points: p, Played: true}
			switch {
			case p == maxes[week]:
				cell.Class = Top
			case p > medians[week]:
				cell.Class = AboveMedian
			}
			pr.Weeks[week-1] = cell
		}
		out = append(out, pr)
	}
	return out
}

// Margin is a team's average margin in the games it won and in the games it lost.
type Margin struct {
	Team             string  `json:"team_name"`
	AvgMarginWin     float64 `json:"avg_margin_of_victory"`
	AvgMarginLoss    float64 `json:"avg_margin_of_loss"`
	HeadToHeadWins   int     `json:"h2h_wins"`
	HeadToHeadLosses int     `json:"h2h_losses"`
}

// Margins computes average margins of victory and of loss for each team, sorted by team name.
// Loss margins are negative. A team that never won (or never lost) has a zero average for that side.
func Margins(results []WeeklyResult) []Margin {
	played, _ := CheckPlayed(results)

	type acc struct {
		win, loss   float64
		nWin, nLoss int
	}
	accs := make(map[string]*acc)
	for _, r := range played {
		a, ok := accs[r.Team]
		if !ok {
			a = &acc{}
			accs[r.Team] = a
		}
		diff := r.PointsFor - r.PointsAgainst
		if r.HeadToHeadWin {
			a.win += diff
			a.nWin++
		} else {
			a.loss += diff
			a.nLoss++
		}
	}

	out := make([]Margin, 0, len(accs))
	for team, a := range accs {
		m := Margin{Team: team, HeadToHeadWins: a.nWin, HeadToHeadLosses: a.nLoss}
		if a.nWin > 0 {
			m.AvgMarginWin = a.win / float64(a.nWin)
		}
		if a.nLoss > 0 {
			m.AvgMarginLoss = a.loss / float64(a.nLoss)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Team < out[j].Team })
	return out
}

// TeamSummary describes one team's season at a glance.
type TeamSummary struct {
	Team      string         `json:"team_name"`
	MaxPoints float64        `json:"max_points"`
	MaxWeek   int            `json:"max_week"`
	MinPoints float64        `json:"min_points"`
	MinWeek   int            `json:"min_week"`
	StdDev    float64        `json:"std_dev"`
	Results   []WeeklyResult `json:"results"`
	// TopPerformers counts how often each player was one of the team's top three scorers.
	TopPerformers map[string]int `json:"top_performers"`
}

// Summarize builds the season summary for one team.
// The boolean result is false if the team has no played weeks.
// StdDev is the sample standard deviation of weekly points, zero with fewer than two weeks.
func Summarize(results []WeeklyResult, team string) (TeamSummary, bool) {
	played, _ := CheckPlayed(results)
	mine := make([]WeeklyResult, 0)
	for _, r := range played {
		if r.Team == team {
			mine = append(mine, r)
		}
	}
	if len(mine) == 0 {
		return TeamSummary{Team: team}, false
	}
	SortResults(mine)

	s := TeamSummary{
		Team:          team,
		MaxPoints:     math.Inf(-1),
		MinPoints:     math.Inf(1),
		Results:       mine,
		TopPerformers: TopPerformerCounts(mine, team),
	}
	pts := make([]float64, len(mine))
	for i, r := range mine {
		pts[i] = r.PointsFor
		if r.PointsFor > s.MaxPoints {
			s.MaxPoints = r.PointsFor
			s.MaxWeek = r.Week
		}
		if r.PointsFor < s.MinPoints {
			s.MinPoints = r.PointsFor
			s.MinWeek = r.Week
		}
	}
	s.StdDev = sampleStdDev(pts)
	return s, true
}

// TopPerformerCounts counts how many weeks each player was one of the team's top scorers.
func TopPerformerCounts(results []WeeklyResult, team string) map[string]int {
	out := make(map[string]int)
	for _, r := range results {
		if r.Team != team {
			continue
		}
		for _, p := range r.TopPerformers {
			out[p.Name]++
		}
	}
	return out
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func sampleStdDev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	mean := 0.
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	ss := 0.
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(v)-1))
}
