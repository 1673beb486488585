package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/reallyasi9/fantasy-luck/internal/config"
	"github.com/reallyasi9/fantasy-luck/internal/dashboard"
	"github.com/reallyasi9/fantasy-luck/internal/store"
	"github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "", "League YAML `file` (optional)")
var addr = flag.String("addr", ":8080", "`address` to listen on")
var dataDir = flag.String("dir", "", "Local `directory` holding season CSV files instead of the bucket")
var bucket = flag.String("bucket", "", "Cloud Storage `bucket` holding season CSV files")
var nMC = flag.Int("n", 0, "`number` of Monte Carlo seasons to simulate for each team")
var seed = flag.Int64("seed", 0, "Random `seed` (default: clock)")
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
	if *nMC > 0 {
		league.Trials = *nMC
	}

	s, closeStore, err := store.Open(ctx, *dataDir, league.Bucket, league.ClientOptions()...)
	check(err)
	defer closeStore()

	srv := dashboard.New(s, dashboard.Options{
		Trials: league.Trials,
		Roster: league.Roster,
		Seed:   *seed,
	}, log)

	// SIGHUP rereads the stored seasons.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			srv.Reset()
			log.Info("dropped cached seasons")
		}
	}()

	log.Infof("listening on %s", *addr)
	check(http.ListenAndServe(*addr, srv))
}
