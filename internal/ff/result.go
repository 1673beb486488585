package ff

import (
	"fmt"
	"math"
	"sort"
)

// Performer is one of a team's top scoring players for a week.
type Performer struct {
	Name   string  `json:"name" firestore:"name"`
	Points float64 `json:"points" firestore:"points"`
}

// WeeklyResult is one team's result for one week of the season.
type WeeklyResult struct {
	Team          string      `json:"team_name"`
	Week          int         `json:"week"`
	PointsFor     float64     `json:"points"`
	PointsAgainst float64     `json:"points_against"`
	Opponent      string      `json:"opponent"`
	HeadToHeadWin bool        `json:"h2h_win"`
	Top6Win       bool        `json:"top6_win"`
	Year          int         `json:"year"`
	TopPerformers []Performer `json:"top_performers,omitempty"`
}

// Played reports whether the week has been played.
// Rows with no points against are placeholders for weeks that have not happened yet.
func (r WeeklyResult) Played() bool {
	return r.PointsAgainst > 0
}

func (r WeeklyResult) String() string {
	return fmt.Sprintf("%s week %d: %.2f-%.2f vs %s (h2h %v, top6 %v)",
		r.Team, r.Week, r.PointsFor, r.PointsAgainst, r.Opponent, r.HeadToHeadWin, r.Top6Win)
}

// byTeamWeek sorts results by team name, then week.
type byTeamWeek []WeeklyResult

func (a byTeamWeek) Len() int      { return len(a) }
func (a byTeamWeek) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a byTeamWeek) Less(i, j int) bool {
	if a[i].Team == a[j].Team {
		return a[i].Week < a[j].Week
	}
	return a[i].Team < a[j].Team
}

// SortResults sorts results in place by team and week.
func SortResults(results []WeeklyResult) {
	sort.Sort(byTeamWeek(results))
}

// Teams returns the sorted unique team names present in results.
func Teams(results []WeeklyResult) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range results {
		if seen[r.Team] {
			continue
		}
		seen[r.Team] = true
		out = append(out, r.Team)
	}
	sort.Strings(out)
	return out
}

// MaxWeek returns the largest week number in results, or 0 if there are none.
func MaxWeek(results []WeeklyResult) int {
	m := 0
	for _, r := range results {
		if r.Week > m {
			m = r.Week
		}
	}
	return m
}

// SeasonInputs splits played results into the per-team weekly scores and bonus wins the simulator consumes.
// Slices are indexed by week, so scores[team][w-1] is the team's week w score, and every team's slices run to
// the last played week of the season. A week the team did not play holds NaN in scores and false in bonus.
func SeasonInputs(results []WeeklyResult) (scores map[string][]float64, bonus map[string][]bool) {
	played, _ := CheckPlayed(results)
	weeks := MaxWeek(played)

	scores = make(map[string][]float64)
	bonus = make(map[string][]bool)
	for _, r := range played {
		if r.Week < 1 {
			continue
		}
		if _, ok := scores[r.Team]; !ok {
			s := make([]float64, weeks)
			for i := range s {
				s[i] = math.NaN()
			}
			scores[r.Team] = s
			bonus[r.Team] = make([]bool, weeks)
		}
		scores[r.Team][r.Week-1] = r.PointsFor
		bonus[r.Team][r.Week-1] = r.Top6Win
	}
	return scores, bonus
}
