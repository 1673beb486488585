package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"time"

	"cloud.google.com/go/errorreporting"
	firebase "firebase.google.com/go"
	"github.com/reallyasi9/fantasy-luck/internal/config"
	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/reallyasi9/fantasy-luck/internal/publish"
	"github.com/reallyasi9/fantasy-luck/internal/store"
	"github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "", "League YAML `file` (optional)")
var projectID = flag.String("project", "", "Google Cloud `project` to use")
var dataDir = flag.String("dir", "", "Local `directory` holding season CSV files instead of the bucket")
var bucket = flag.String("bucket", "", "Cloud Storage `bucket` holding season CSV files")
var year = flag.Int("year", 0, "Season `year` to publish (default: the config's years, else every stored season)")
var nMC = flag.Int("n", 0, "`number` of Monte Carlo seasons to simulate for each team")
var seed = flag.Int64("seed", 0, "Random `seed` (default: clock)")
var verbose = flag.Bool("v", false, "Log debug output")

var log = logrus.New()

var erclient *errorreporting.Client

// checkErr reports and logs an error, returning true if one occurred.
func checkErr(err error) bool {
	if err == nil {
		return false
	}
	if erclient != nil {
		erclient.Report(errorreporting.Entry{Error: err})
	}
	log.Error(err)
	return true
}

// fatal reports an error and exits.
func fatal(err error) {
	if checkErr(err) {
		if erclient != nil {
			erclient.Close()
		}
		os.Exit(1)
	}
}

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	ctx := context.Background()

	league := config.Default()
	if *configFile != "" {
		var err error
		league, err = config.Load(*configFile)
		fatal(err)
	}
	if *projectID != "" {
		league.Project = *projectID
	}
	if *bucket != "" {
		league.Bucket = *bucket
	}
	if *nMC > 0 {
		league.Trials = *nMC
	}

	var err error
	erclient, err = errorreporting.NewClient(ctx, league.Project, errorreporting.Config{
		ServiceName: "ffpublish",
		OnError: func(err error) {
			log.Warnf("could not report error: %v", err)
		},
	}, league.ClientOptions()...)
	if err != nil {
		log.WithError(err).Warn("error reporting disabled")
		erclient = nil
	} else {
		defer erclient.Close()
	}

	conf := &firebase.Config{ProjectID: league.Project}
	app, err := firebase.NewApp(ctx, conf, league.ClientOptions()...)
	fatal(err)
	fs, err := app.Firestore(ctx)
	fatal(err)
	defer fs.Close()

	pub := publish.New(fs, league.Collection, log)
	latest, err := pub.Latest(ctx)
	switch {
	case errors.Is(err, publish.ErrNoSeasons):
		log.Info("nothing published yet")
	case err != nil:
		fatal(err)
	default:
		log.Infof("most recent season on record: %d (%d weeks)", latest.Year, latest.Weeks)
	}

	s, closeStore, err := store.Open(ctx, *dataDir, league.Bucket, league.ClientOptions()...)
	fatal(err)
	defer closeStore()

	years := league.Years
	if *year > 0 {
		years = []int{*year}
	}
	if len(years) == 0 {
		years, err = store.ListSeasons(ctx, s)
		fatal(err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	src := rand.NewSource(*seed)

	failed := false
	for _, y := range years {
		if checkErr(publishSeason(ctx, pub, s, league, y, src)) {
			failed = true
		}
	}
	if failed {
		if erclient != nil {
			erclient.Close()
		}
		os.Exit(1)
	}
}

func publishSeason(ctx context.Context, pub *publish.Publisher, s store.ObjectStore, league *config.League, y int, src rand.Source) error {
	ylog := log.WithField("year", y)

	results, err := store.LoadSeason(ctx, s, y)
	if err != nil {
		return err
	}
	_, issues := ff.CheckPlayed(results)
	ff.LogIssues(ylog, issues)

	standings := ff.Aggregate(results)
	scores, bonus := ff.SeasonInputs(results)
	sim, err := ff.Simulate(ctx, scores, bonus, ff.Options{
		Trials: league.Trials,
		Source: src,
		Roster: league.Roster,
		Log:    ylog,
	})
	if errors.Is(err, ff.ErrPrecondition) {
		ylog.WithError(err).Warn("some teams could not be simulated")
	} else if err != nil {
		return err
	}

	season, err := publish.Build(y, league.Trials, results, standings, ff.LuckTable(standings, sim))
	if err != nil {
		return err
	}
	if err := pub.Publish(ctx, season); err != nil {
		return err
	}

	stored, err := pub.Standings(ctx, y)
	if err != nil {
		return err
	}
	if len(stored) != len(standings) {
		ylog.Warnf("published %d standings rows but read back %d", len(standings), len(stored))
	}
	return nil
}
