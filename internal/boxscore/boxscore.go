// Package boxscore turns league box scores into weekly results.
package boxscore

import (
	"fmt"
	"os"
	"sort"

	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// DefaultTopN is how many of the week's best scores earn the bonus win.
const DefaultTopN = 6

// TopPerformers is how many of a lineup's best players are kept per team-week.
const TopPerformers = 3

// Player is one lineup slot's score.
type Player struct {
	Name   string  `yaml:"name"`
	Points float64 `yaml:"points"`
}

// Side is one team's half of a matchup.
type Side struct {
	Team   string   `yaml:"team"`
	Score  float64  `yaml:"score"`
	Lineup []Player `yaml:"lineup"`
}

// Matchup is a head-to-head game. Away is nil for a bye.
type Matchup struct {
	Home Side  `yaml:"home"`
	Away *Side `yaml:"away"`
}

// Week is every matchup of one scoring period.
type Week struct {
	Week     int       `yaml:"week"`
	Matchups []Matchup `yaml:"matchups"`
}

// Season is a year of box scores in week order.
type Season struct {
	Year  int    `yaml:"year"`
	Weeks []Week `yaml:"weeks"`
}

// Parse reads a season of box scores from YAML.
func Parse(data []byte) (*Season, error) {
	var s Season
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("Parse: %v", err)
	}
	for i, w := range s.Weeks {
		if w.Week <= 0 {
			return nil, fmt.Errorf("Parse: week entry %d has no positive week number", i)
		}
		for j, m := range w.Matchups {
			if m.Home.Team == "" || (m.Away != nil && m.Away.Team == "") {
				return nil, fmt.Errorf("Parse: week %d matchup %d is missing a team name", w.Week, j)
			}
		}
	}
	return &s, nil
}

// Load parses a box score YAML file.
func Load(fileName string) (*Season, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// bonusCut returns the lowest score that still earns the bonus win.
// With fewer than topN scores every team earns it.
func (w Week) bonusCut(topN int) float64 {
	scores := make([]float64, 0, 2*len(w.Matchups))
	for _, m := range w.Matchups {
		scores = append(scores, m.Home.Score)
		if m.Away != nil {
			scores = append(scores, m.Away.Score)
		}
	}
	if len(scores) == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	if topN <= 0 || topN > len(scores) {
		return scores[len(scores)-1]
	}
	return scores[topN-1]
}

// topPerformers returns the lineup's best players, highest first.
func topPerformers(lineup []Player) []ff.Performer {
	sorted := make([]Player, len(lineup))
	copy(sorted, lineup)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Points > sorted[j].Points })

	n := TopPerformers
	if len(sorted) < n {
		n = len(sorted)
	}
	out := make([]ff.Performer, n)
	for i := 0; i < n; i++ {
		out[i] = ff.Performer{Name: sorted[i].Name, Points: sorted[i].Points}
	}
	return out
}

func sideResult(me Side, them *Side, week, year int, cut float64) ff.WeeklyResult {
	r := ff.WeeklyResult{
		Team:          me.Team,
		Week:          week,
		PointsFor:     me.Score,
		Year:          year,
		Top6Win:       me.Score >= cut,
		TopPerformers: topPerformers(me.Lineup),
	}
	if them != nil {
		r.Opponent = them.Team
		r.PointsAgainst = them.Score
		r.HeadToHeadWin = me.Score > them.Score
	}
	return r
}

// Results converts one week of box scores into one WeeklyResult per team.
// A team earns the bonus win when its score is at least the topN-th best of the week, so ties at the cut all earn it.
func (w Week) Results(year, topN int) []ff.WeeklyResult {
	cut := w.bonusCut(topN)
	out := make([]ff.WeeklyResult, 0, 2*len(w.Matchups))
	for _, m := range w.Matchups {
		out = append(out, sideResult(m.Home, m.Away, w.Week, year, cut))
		if m.Away != nil {
			home := m.Home
			out = append(out, sideResult(*m.Away, &home, w.Week, year, cut))
		}
	}
	return out
}

func pointsAgainst(results []ff.WeeklyResult) float64 {
	s := 0.
	for _, r := range results {
		s += r.PointsAgainst
	}
	return s
}

// Results assembles the season's weekly results in week order.
// Assembly stops at the first week after the opening one whose total points against is zero
// or identical to the previous week's, since the provider repeats or blanks weeks that have not been played.
func (s Season) Results(topN int, log logrus.FieldLogger) []ff.WeeklyResult {
	out := make([]ff.WeeklyResult, 0)
	prev := 0.
	for i, w := range s.Weeks {
		rows := w.Results(s.Year, topN)
		sum := pointsAgainst(rows)
		if i > 0 && (sum == 0 || sum == prev) {
			log.WithFields(logrus.Fields{"year": s.Year, "week": w.Week}).Info("season ends before unplayed week")
			break
		}
		log.WithFields(logrus.Fields{"year": s.Year, "week": w.Week, "teams": len(rows)}).Debug("read week")
		out = append(out, rows...)
		prev = sum
	}
	return out
}
