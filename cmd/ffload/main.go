package main

import (
	"context"
	"flag"

	"github.com/reallyasi9/fantasy-luck/internal/boxscore"
	"github.com/reallyasi9/fantasy-luck/internal/config"
	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/reallyasi9/fantasy-luck/internal/store"
	"github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "", "League YAML `file` (optional)")
var boxScoreFile = flag.String("boxscores", "boxscores.yaml", "YAML `file` of the season's box scores")
var dataDir = flag.String("dir", "", "Local `directory` to write the season CSV to instead of the bucket")
var bucket = flag.String("bucket", "", "Cloud Storage `bucket` to write the season CSV to")
var year = flag.Int("year", 0, "Season `year`, if the box score file does not give one")
var topN = flag.Int("top", 0, "`number` of best weekly scores earning the bonus win")
var verbose = flag.Bool("v", false, "Log debug output")

var log = logrus.New()

func check(err error) {
	if err != nil {
		log.Fatalln(err)
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
		check(err)
	}
	if *bucket != "" {
		league.Bucket = *bucket
	}
	if *topN > 0 {
		league.TopN = *topN
	}

	season, err := boxscore.Load(*boxScoreFile)
	check(err)
	if season.Year == 0 {
		season.Year = *year
	}
	if season.Year <= 0 {
		log.Fatalf("no season year in %s; set -year", *boxScoreFile)
	}
	log.Infof("read %d weeks of box scores for %d", len(season.Weeks), season.Year)

	results := season.Results(league.TopN, log)
	_, issues := ff.CheckPlayed(results)
	ff.LogIssues(log, issues)

	s, closeStore, err := store.Open(ctx, *dataDir, league.Bucket, league.ClientOptions()...)
	check(err)
	defer closeStore()

	err = store.SaveSeason(ctx, s, season.Year, results)
	check(err)
	log.WithFields(logrus.Fields{
		"object": store.SeasonObject(season.Year),
		"rows":   len(results),
	}).Info("saved season")
}
