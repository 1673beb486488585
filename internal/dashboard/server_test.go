package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/reallyasi9/fantasy-luck/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	d := store.NewDir(t.TempDir())
	results := []ff.WeeklyResult{
		{Team: "Gridiron Gang", Week: 1, PointsFor: 100, PointsAgainst: 90, Opponent: "Bench Mob", HeadToHeadWin: true, Top6Win: true, Year: 2021,
			TopPerformers: []ff.Performer{{Name: "Josh Allen", Points: 31.2}}},
		{Team: "Bench Mob", Week: 1, PointsFor: 90, PointsAgainst: 100, Opponent: "Gridiron Gang", Year: 2021},
		{Team: "Sleepers", Week: 1, PointsFor: 80, PointsAgainst: 85, Opponent: "Waiver Wire", Year: 2021},
		{Team: "Waiver Wire", Week: 1, PointsFor: 85, PointsAgainst: 80, Opponent: "Sleepers", HeadToHeadWin: true, Year: 2021},
	}
	require.NoError(t, store.SaveSeason(context.Background(), d, 2021, results))
	require.NoError(t, store.SaveSeason(context.Background(), d, 2020, results))

	log, _ := test.NewNullLogger()
	return New(d, Options{Trials: 200, Seed: 1}, log)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestGETSeasons(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/seasons")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"years":[2020,2021]}`, rec.Body.String())
}

func TestGETStandings(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/seasons/2021/standings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var standings ff.Standings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &standings))
	require.Len(t, standings, 4)
	assert.Equal(t, "Gridiron Gang", standings[0].Team)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 2, standings[0].TotalWins)
}

func TestGETLuck(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/seasons/2021/luck")
	require.Equal(t, http.StatusOK, rec.Code)

	var luck []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &luck))
	require.Len(t, luck, 4)
	assert.Equal(t, "Gridiron Gang", luck[0]["team_name"])
	// Gridiron Gang outscored everyone, so any schedule gives two wins.
	assert.Equal(t, "as expected", luck[0]["verdict"])

	again := get(t, s, "/seasons/2021/luck")
	assert.Equal(t, rec.Body.String(), again.Body.String())
}

func TestGETWeekly(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/seasons/2021/weekly")
	require.Equal(t, http.StatusOK, rec.Code)

	var pivot []struct {
		Team  string `json:"team_name"`
		Weeks []struct {
			Points float64 `json:"points"`
			Class  string  `json:"class"`
		} `json:"weeks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pivot))
	require.Len(t, pivot, 4)
	assert.Equal(t, "top", pivot[0].Weeks[0].Class)
}

func TestGETMargins(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/seasons/2021/margins")
	require.Equal(t, http.StatusOK, rec.Code)

	var margins []ff.Margin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &margins))
	require.Len(t, margins, 4)
	assert.Equal(t, "Bench Mob", margins[0].Team)
	assert.Equal(t, -10., margins[0].AvgMarginLoss)
}

func TestGETTeam(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/seasons/2021/teams/Gridiron%20Gang")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary ff.TeamSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "Gridiron Gang", summary.Team)
	assert.Equal(t, 100., summary.MaxPoints)
	assert.Equal(t, map[string]int{"Josh Allen": 1}, summary.TopPerformers)

	rec = get(t, s, "/seasons/2021/teams/Nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrors(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		path string
		code int
	}{
		{"/seasons/abc/standings", http.StatusBadRequest},
		{"/seasons/-1/standings", http.StatusBadRequest},
		{"/seasons/1999/standings", http.StatusNotFound},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, get(t, s, tt.path).Code)
		})
	}
}

// slowStore holds reads of one object until release is closed.
type slowStore struct {
	store.ObjectStore
	object  string
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) Read(ctx context.Context, name string) ([]byte, error) {
	if name == s.object {
		close(s.entered)
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.ObjectStore.Read(ctx, name)
}

func TestSlowReadDoesNotBlockOtherYears(t *testing.T) {
	base := testServer(t)
	slow := &slowStore{
		ObjectStore: base.store,
		object:      store.SeasonObject(2020),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	log, _ := test.NewNullLogger()
	s := New(slow, Options{Trials: 200, Seed: 1}, log)

	first := make(chan int, 1)
	go func() {
		first <- get(t, s, "/seasons/2020/standings").Code
	}()
	<-slow.entered

	other := make(chan int, 1)
	go func() {
		other <- get(t, s, "/seasons/2021/standings").Code
	}()
	select {
	case code := <-other:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("request for 2021 blocked behind the read of 2020")
	}

	close(slow.release)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestResetDropsCache(t *testing.T) {
	s := testServer(t)
	require.Equal(t, http.StatusOK, get(t, s, "/seasons/2021/standings").Code)
	assert.Len(t, s.seasons, 1)

	s.Reset()
	assert.Empty(t, s.seasons)
	require.Equal(t, http.StatusOK, get(t, s, "/seasons/2021/standings").Code)
	assert.Len(t, s.seasons, 1)
}
