package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reallyasi9/fantasy-luck/internal/ff"
)

const (
	seasonPrefix = "fantasy_data_"
	seasonSuffix = ".csv"
)

// SeasonObject names the object holding a season's results.
func SeasonObject(year int) string {
	return fmt.Sprintf("%s%d%s", seasonPrefix, year, seasonSuffix)
}

// SeasonYear parses the year out of a season object name.
func SeasonYear(name string) (int, bool) {
	if !strings.HasPrefix(name, seasonPrefix) || !strings.HasSuffix(name, seasonSuffix) {
		return 0, false
	}
	y, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, seasonPrefix), seasonSuffix))
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

// LoadSeason reads a season's results.
func LoadSeason(ctx context.Context, s ObjectStore, year int) ([]ff.WeeklyResult, error) {
	data, err := s.Read(ctx, SeasonObject(year))
	if err != nil {
		return nil, fmt.Errorf("LoadSeason: %d: %w", year, err)
	}
	results, err := ff.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("LoadSeason: %d: %w", year, err)
	}
	return results, nil
}

// SaveSeason writes a season's results as CSV.
func SaveSeason(ctx context.Context, s ObjectStore, year int, results []ff.WeeklyResult) error {
	var buf bytes.Buffer
	if err := ff.WriteCSV(&buf, results); err != nil {
		return fmt.Errorf("SaveSeason: %d: %w", year, err)
	}
	return s.Write(ctx, SeasonObject(year), buf.Bytes(), "text/csv")
}

// ListSeasons returns the years with stored results, oldest first.
func ListSeasons(ctx context.Context, s ObjectStore) ([]int, error) {
	names, err := s.List(ctx, seasonPrefix)
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(names))
	for _, name := range names {
		if y, ok := SeasonYear(name); ok {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}
