// Package dashboard serves season tables as JSON.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/reallyasi9/fantasy-luck/internal/store"
	"github.com/sirupsen/logrus"
)

// Options configure the luck simulation behind /luck.
type Options struct {
	Trials int
	Roster []string
	// Seed fixes the simulation. Zero seeds from the clock.
	Seed int64
}

// season is one year's data and derived tables.
type season struct {
	results   []ff.WeeklyResult
	standings ff.Standings

	simOnce sync.Once
	luck    []ff.LuckReport
	simErr  error
}

// Server answers dashboard queries from stored season files.
type Server struct {
	store store.ObjectStore
	opts  Options
	log   logrus.FieldLogger
	r     chi.Router

	mu      sync.Mutex
	seasons map[int]*season
	gen     int // bumped by Reset
}

// New builds a Server and its routes.
func New(s store.ObjectStore, opts Options, log logrus.FieldLogger) *Server {
	srv := &Server{
		store:   s,
		opts:    opts,
		log:     log,
		seasons: make(map[int]*season),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/seasons", srv.GETSeasons)
	r.Route("/seasons/{year}", func(r chi.Router) {
		r.Get("/standings", srv.GETStandings)
		r.Get("/luck", srv.GETLuck)
		r.Get("/weekly", srv.GETWeekly)
		r.Get("/margins", srv.GETMargins)
		r.Get("/teams/{team}", srv.GETTeam)
	})
	srv.r = r
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// Reset drops cached seasons so the next request rereads the store.
func (s *Server) Reset() {
	s.mu.Lock()
	s.seasons = make(map[int]*season)
	s.gen++
	s.mu.Unlock()
}

// season returns the cached year, reading the store on a miss.
// The store is read without holding s.mu so a slow read does not stall other years.
// When two requests miss at once, the first to finish is cached and both get it.
func (s *Server) season(ctx context.Context, year int) (*season, error) {
	s.mu.Lock()
	ss, ok := s.seasons[year]
	gen := s.gen
	s.mu.Unlock()
	if ok {
		return ss, nil
	}

	results, err := store.LoadSeason(ctx, s.store, year)
	if err != nil {
		return nil, err
	}
	_, issues := ff.CheckPlayed(results)
	ff.LogIssues(s.log.WithField("year", year), issues)
	loaded := &season{results: results, standings: ff.Aggregate(results)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ss, ok := s.seasons[year]; ok {
		return ss, nil
	}
	// A Reset during the read means the data may be stale, so serve it without caching.
	if gen == s.gen {
		s.seasons[year] = loaded
	}
	s.log.WithFields(logrus.Fields{"year": year, "rows": len(results)}).Info("loaded season")
	return loaded, nil
}

// simulate runs the luck simulation once per cached season.
// The run outlives the request that started it.
// Teams that cannot be simulated are logged and left out.
func (s *Server) simulate(ctx context.Context, year int, ss *season) ([]ff.LuckReport, error) {
	ss.simOnce.Do(func() {
		seed := s.opts.Seed
		if seed == 0 {
			seed = rand.Int63()
		}
		scores, bonus := ff.SeasonInputs(ss.results)
		sim, err := ff.Simulate(context.WithoutCancel(ctx), scores, bonus, ff.Options{
			Trials: s.opts.Trials,
			Source: rand.NewSource(seed),
			Roster: s.opts.Roster,
			Log:    s.log.WithField("year", year),
		})
		if err != nil && !errors.Is(err, ff.ErrPrecondition) {
			ss.simErr = err
			return
		}
		if err != nil {
			s.log.WithField("year", year).WithError(err).Warn("some teams not simulated")
		}
		ss.luck = ff.LuckTable(ss.standings, sim)
	})
	return ss.luck, ss.simErr
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
	}
}

// load resolves the {year} parameter, writing the error response itself on failure.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (int, *season, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 {
		http.Error(w, "Year must be a positive integer", http.StatusBadRequest)
		return 0, nil, false
	}
	ss, err := s.season(r.Context(), year)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Season not found", http.StatusNotFound)
		return 0, nil, false
	}
	if err != nil {
		s.log.WithField("year", year).WithError(err).Error("cannot load season")
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return 0, nil, false
	}
	return year, ss, true
}

// GETSeasons lists the stored years.
func (s *Server) GETSeasons(w http.ResponseWriter, r *http.Request) {
	years, err := store.ListSeasons(r.Context(), s.store)
	if err != nil {
		s.log.WithError(err).Error("cannot list seasons")
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"years": years})
}

// GETStandings returns the season standings in rank order.
func (s *Server) GETStandings(w http.ResponseWriter, r *http.Request) {
	_, ss, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, ss.standings)
}

// GETLuck returns each team's luck report, simulating the season on first request.
func (s *Server) GETLuck(w http.ResponseWriter, r *http.Request) {
	year, ss, ok := s.load(w, r)
	if !ok {
		return
	}
	luck, err := s.simulate(r.Context(), year, ss)
	if err != nil {
		s.log.WithField("year", year).WithError(err).Error("simulation failed")
		http.Error(w, "Simulation error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, luck)
}

// GETWeekly returns the team-by-week points table.
func (s *Server) GETWeekly(w http.ResponseWriter, r *http.Request) {
	_, ss, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, ff.WeeklyPivot(ss.results, ss.standings))
}

// GETMargins returns average winning and losing margins per team.
func (s *Server) GETMargins(w http.ResponseWriter, r *http.Request) {
	_, ss, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, ff.Margins(ss.results))
}

// GETTeam returns one team's season summary.
func (s *Server) GETTeam(w http.ResponseWriter, r *http.Request) {
	_, ss, ok := s.load(w, r)
	if !ok {
		return
	}
	team := chi.URLParam(r, "team")
	summary, found := ff.Summarize(ss.results, team)
	if !found {
		http.Error(w, "Team not found", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}
