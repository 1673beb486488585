package ff

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// IssueKind classifies a data-quality problem found in input rows.
type IssueKind int

const (
	// Unplayed marks a row excluded because the week has not been played.
	Unplayed IssueKind = iota

	// MissingWeek marks a team without a played row for a week other teams played.
	MissingWeek

	// Duplicate marks a second row for the same team and week.
	Duplicate
)

func (k IssueKind) String() string {
	switch k {
	case Unplayed:
		return "unplayed"
	case MissingWeek:
		return "missing week"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("IssueKind(%d)", int(k))
	}
}

// Issue is a data-quality problem that was recovered by excluding or ignoring data.
type Issue struct {
	Kind IssueKind
	Team string
	Week int
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: team %q week %d", i.Kind, i.Team, i.Week)
}

// CheckPlayed filters results down to played weeks.
// Excluding unplayed rows is a data-quality policy: the provider reports future weeks with zero points against.
// Duplicated team/week rows keep the first occurrence.
// Teams missing weeks that other teams played are reported but left as they are.
func CheckPlayed(results []WeeklyResult) ([]WeeklyResult, []Issue) {
	issues := make([]Issue, 0)
	played := make([]WeeklyResult, 0, len(results))

	type teamWeek struct {
		team string
		week int
	}
	seen := make(map[teamWeek]bool)
	weeks := make(map[int]bool)
	teamWeeks := make(map[string]map[int]bool)

	for _, r := range results {
		if !r.Played() {
			issues = append(issues, Issue{Kind: Unplayed, Team: r.Team, Week: r.Week})
			continue
		}
		tw := teamWeek{r.Team, r.Week}
		if seen[tw] {
			issues = append(issues, Issue{Kind: Duplicate, Team: r.Team, Week: r.Week})
			continue
		}
		seen[tw] = true
		weeks[r.Week] = true
		if _, ok := teamWeeks[r.Team]; !ok {
			teamWeeks[r.Team] = make(map[int]bool)
		}
		teamWeeks[r.Team][r.Week] = true
		played = append(played, r)
	}

	maxWeek := MaxWeek(played)
	for _, team := range Teams(played) {
		for week := 1; week <= maxWeek; week++ {
			if weeks[week] && !teamWeeks[team][week] {
				issues = append(issues, Issue{Kind: MissingWeek, Team: team, Week: week})
			}
		}
	}

	return played, issues
}

// LogIssues writes each issue to the logger.
// Unplayed weeks are expected mid-season and only logged at debug level.
func LogIssues(log logrus.FieldLogger, issues []Issue) {
	for _, i := range issues {
		entry := log.WithFields(logrus.Fields{
			"kind": i.Kind.String(),
			"team": i.Team,
			"week": i.Week,
		})
		if i.Kind == Unplayed {
			entry.Debug("excluded unplayed week")
			continue
		}
		entry.Warn("inconsistent result row")
	}
}
