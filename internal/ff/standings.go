package ff

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// StandingsRow is a team's cumulative record for the season.
type StandingsRow struct {
	Team           string  `json:"team_name" firestore:"team_name"`
	Rank           int     `json:"rank" firestore:"rank"`
	TotalWins      int     `json:"total_wins" firestore:"total_wins"`
	TotalLosses    int     `json:"total_losses" firestore:"total_losses"`
	HeadToHeadWins int     `json:"h2h_wins" firestore:"h2h_wins"`
	Top6Wins       int     `json:"top6_wins" firestore:"top6_wins"`
	PointsFor      float64 `json:"points_for" firestore:"points_for"`
	PointsAgainst  float64 `json:"points_against" firestore:"points_against"`
	WeeksPlayed    int     `json:"weeks_played" firestore:"weeks_played"`
	TopScorerCount int     `json:"top_scorer_count" firestore:"top_scorer_count"`
}

// Record returns the team's record as "W-L".
func (s StandingsRow) Record() string {
	return fmt.Sprintf("%d-%d", s.TotalWins, s.TotalLosses)
}

// Standings are StandingsRows in ranked order.
type Standings []StandingsRow

// Len implements sort.Interface.
func (s Standings) Len() int { return len(s) }

// Less ranks by total wins, then points for (both descending), then team name.
func (s Standings) Less(i, j int) bool {
	if s[i].TotalWins != s[j].TotalWins {
		return s[i].TotalWins > s[j].TotalWins
	}
	if s[i].PointsFor != s[j].PointsFor {
		return s[i].PointsFor > s[j].PointsFor
	}
	return s[i].Team < s[j].Team
}

// Swap implements sort.Interface.
func (s Standings) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// ByTeam maps team names to their standings rows.
func (s Standings) ByTeam() map[string]StandingsRow {
	out := make(map[string]StandingsRow, len(s))
	for _, row := range s {
		out[row.Team] = row
	}
	return out
}

// Teams returns team names in ranked order.
func (s Standings) Teams() []string {
	out := make([]string, len(s))
	for i, row := range s {
		out[i] = row.Team
	}
	return out
}

// Aggregate builds ranked standings from weekly results.
// Unplayed rows are dropped first (see CheckPlayed).
// Each played week awards two contested wins: one head-to-head and one top-6 bonus.
// Losses are counted against the season-wide last played week, so a team missing a week is charged both losses for it.
func Aggregate(results []WeeklyResult) Standings {
	played, _ := CheckPlayed(results)
	if len(played) == 0 {
		return Standings{}
	}

	rows := make(map[string]*StandingsRow)
	for _, r := range played {
		row, ok := rows[r.Team]
		if !ok {
			row = &StandingsRow{Team: r.Team}
			rows[r.Team] = row
		}
		row.PointsFor += r.PointsFor
		row.PointsAgainst += r.PointsAgainst
		row.WeeksPlayed++
		if r.HeadToHeadWin {
			row.HeadToHeadWins++
		}
		if r.Top6Win {
			row.Top6Wins++
		}
	}

	for team, n := range TopScorerCounts(played) {
		rows[team].TopScorerCount = n
	}

	maxWeek := MaxWeek(played)
	out := make(Standings, 0, len(rows))
	for _, row := range rows {
		row.TotalWins = row.HeadToHeadWins + row.Top6Wins
		row.TotalLosses = 2*maxWeek - row.TotalWins
		out = append(out, *row)
	}

	sort.Sort(out)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// TopScorerCounts counts, per team, the weeks in which the team had the highest score in the league.
// Tied weekly high scores credit every tied team.
// Teams that never top-scored are absent.
func TopScorerCounts(played []WeeklyResult) map[string]int {
	best := make(map[int]float64)
	for _, r := range played {
		if p, ok := best[r.Week]; !ok || r.PointsFor > p {
			best[r.Week] = r.PointsFor
		}
	}

	out := make(map[string]int)
	for _, r := range played {
		if r.PointsFor == best[r.Week] {
			out[r.Team]++
		}
	}
	return out
}

// Truncate shortens a team name to at most n characters for table output.
func Truncate(name string, n int) string {
	if utf8.RuneCountInString(name) <= n {
		return name
	}
	return string([]rune(name)[:n])
}

func (s Standings) String() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%4s %-24s %7s %10s %10s %4s\n", "Rank", "Team", "Record", "PF", "PA", "Top"))
	for _, row := range s {
		name := Truncate(row.Team, 24)
		b.WriteString(fmt.Sprintf("%4d %-24s %7s %10.2f %10.2f %4d\n",
			row.Rank, name, row.Record(), row.PointsFor, row.PointsAgainst, row.TopScorerCount))
	}

	return b.String()
}
