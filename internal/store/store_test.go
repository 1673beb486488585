package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	ctx := context.Background()
	d := NewDir(t.TempDir())

	_, err := d.Read(ctx, "nothing.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, d.Write(ctx, "b.csv", []byte("b"), "text/csv"))
	require.NoError(t, d.Write(ctx, "a.csv", []byte("a"), "text/csv"))
	require.NoError(t, d.Write(ctx, "sub/a.csv", []byte("sub"), "text/csv"))

	b, err := d.Read(ctx, "sub/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "sub", string(b))

	names, err := d.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv", "sub/a.csv"}, names)

	names, err = d.List(ctx, "sub/")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/a.csv"}, names)
}

func TestDir_ListMissingRoot(t *testing.T) {
	d := NewDir(filepath.Join(t.TempDir(), "none"))
	names, err := d.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSeasonYear(t *testing.T) {
	tests := []struct {
		name string
		year int
		ok   bool
	}{
		{SeasonObject(2021), 2021, true},
		{"fantasy_data_2022.csv", 2022, true},
		{"fantasy_data_x.csv", 0, false},
		{"wd_2022.pickle", 0, false},
		{"fantasy_data_2022.csv.bak", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, ok := SeasonYear(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.year, y)
		})
	}
}

func TestSeasons(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := NewDir(root)

	results := []ff.WeeklyResult{
		{Team: "A", Week: 1, PointsFor: 100, PointsAgainst: 90, Opponent: "B", HeadToHeadWin: true, Top6Win: true, Year: 2022,
			TopPerformers: []ff.Performer{{Name: "QB", Points: 30}}},
		{Team: "B", Week: 1, PointsFor: 90, PointsAgainst: 100, Opponent: "A", Year: 2022},
	}
	require.NoError(t, SaveSeason(ctx, d, 2022, results))
	require.NoError(t, SaveSeason(ctx, d, 2021, results[:1]))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	got, err := LoadSeason(ctx, d, 2022)
	require.NoError(t, err)
	assert.Equal(t, results, got)

	years, err := ListSeasons(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []int{2021, 2022}, years)

	_, err = LoadSeason(ctx, d, 1999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Dir(t *testing.T) {
	s, closer, err := Open(context.Background(), t.TempDir(), "")
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, s)
	assert.NoError(t, closer())
}
