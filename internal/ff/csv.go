package ff

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVHeader is the column layout of season data files.
// Each team-week is repeated once per top performer (name tp1, tp2, tp3).
var CSVHeader = []string{
	"team_name",
	"week",
	"points",
	"name",
	"tp_names",
	"tp_points",
	"opponent",
	"h2h_win",
	"points_against",
	"top6_win",
	"year",
}

var requiredColumns = []string{"team_name", "week", "points", "points_against", "h2h_win", "top6_win"}

// ReadCSV parses season data.
// Columns are matched by header name, so extra or reordered columns are fine.
// Rows repeating a team-week are folded into one WeeklyResult carrying every top performer.
func ReadCSV(r io.Reader) ([]WeeklyResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []WeeklyResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ReadCSV: cannot read header: %v", err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("ReadCSV: missing column \"%s\"", c)
		}
	}

	type teamWeek struct {
		team string
		week int
	}
	index := make(map[teamWeek]int)
	out := make([]WeeklyResult, 0)

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("ReadCSV: line %d: %v", line, err)
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		r, err := parseRecord(get)
		if err != nil {
			return nil, fmt.Errorf("ReadCSV: line %d: %v", line, err)
		}

		var perf *Performer
		if name := get("tp_names"); name != "" {
			pts, err := parseFloat(get("tp_points"))
			if err != nil {
				return nil, fmt.Errorf("ReadCSV: line %d: tp_points: %v", line, err)
			}
			perf = &Performer{Name: name, Points: pts}
		}

		tw := teamWeek{r.Team, r.Week}
		if i, ok := index[tw]; ok {
			if perf != nil {
				out[i].TopPerformers = append(out[i].TopPerformers, *perf)
			}
			continue
		}
		if perf != nil {
			r.TopPerformers = []Performer{*perf}
		}
		index[tw] = len(out)
		out = append(out, r)
	}

	return out, nil
}

func parseRecord(get func(string) string) (WeeklyResult, error) {
	var r WeeklyResult
	var err error

	r.Team = get("team_name")
	if r.Team == "" {
		return r, fmt.Errorf("empty team_name")
	}
	if r.Week, err = strconv.Atoi(get("week")); err != nil {
		return r, fmt.Errorf("week: %v", err)
	}
	if r.PointsFor, err = parseFloat(get("points")); err != nil {
		return r, fmt.Errorf("points: %v", err)
	}
	if r.PointsAgainst, err = parseFloat(get("points_against")); err != nil {
		return r, fmt.Errorf("points_against: %v", err)
	}
	if r.HeadToHeadWin, err = strconv.ParseBool(get("h2h_win")); err != nil {
		return r, fmt.Errorf("h2h_win: %v", err)
	}
	if r.Top6Win, err = strconv.ParseBool(get("top6_win")); err != nil {
		return r, fmt.Errorf("top6_win: %v", err)
	}
	r.Opponent = get("opponent")
	if y := get("year"); y != "" {
		if r.Year, err = strconv.Atoi(y); err != nil {
			return r, fmt.Errorf("year: %v", err)
		}
	}
	return r, nil
}

// parseFloat treats an empty field as zero.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0., nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteCSV writes results in the layout ReadCSV reads.
func WriteCSV(w io.Writer, results []WeeklyResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	for _, r := range results {
		base := func(name, tpName, tpPoints string) []string {
			return []string{
				r.Team,
				strconv.Itoa(r.Week),
				formatFloat(r.PointsFor),
				name,
				tpName,
				tpPoints,
				r.Opponent,
				formatBool(r.HeadToHeadWin),
				formatFloat(r.PointsAgainst),
				formatBool(r.Top6Win),
				strconv.Itoa(r.Year),
			}
		}
		if len(r.TopPerformers) == 0 {
			if err := writer.Write(base("", "", "")); err != nil {
				return err
			}
			continue
		}
		for i, p := range r.TopPerformers {
			if err := writer.Write(base(fmt.Sprintf("tp%d", i+1), p.Name, formatFloat(p.Points))); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
