package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/reallyasi9/fantasy-luck/internal/config"
	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/reallyasi9/fantasy-luck/internal/store"
	"github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "", "League YAML `file` (optional)")
var inFile = flag.String("in", "", "Season CSV `file` to read directly instead of the store")
var dataDir = flag.String("dir", "", "Local `directory` holding season CSV files instead of the bucket")
var bucket = flag.String("bucket", "", "Cloud Storage `bucket` holding season CSV files")
var year = flag.Int("year", 0, "Season `year` to analyze (default: latest stored)")
var nMC = flag.Int("n", 0, "`number` of Monte Carlo seasons to simulate for each team")
var seed = flag.Int64("seed", 0, "Random `seed` (default: clock)")
var exact = flag.Bool("exact", false, "Also enumerate every opponent ordering where feasible")
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
		log.Debugf("read league config %s", *configFile)
	}
	if *bucket != "" {
		league.Bucket = *bucket
	}
	if *nMC > 0 {
		league.Trials = *nMC
	}

	results := readResults(ctx, league)
	played, issues := ff.CheckPlayed(results)
	ff.LogIssues(log, issues)
	log.Infof("read %d results, %d played", len(results), len(played))

	standings := ff.Aggregate(results)
	fmt.Println("Standings")
	fmt.Println(standings)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	log.Debugf("seed %d", *seed)

	scores, bonus := ff.SeasonInputs(results)
	sim, err := ff.Simulate(ctx, scores, bonus, ff.Options{
		Trials: league.Trials,
		Source: rand.NewSource(*seed),
		Roster: league.Roster,
		Log:    log,
	})
	if errors.Is(err, ff.ErrPrecondition) {
		log.WithError(err).Warn("some teams could not be simulated")
	} else {
		check(err)
	}

	fmt.Println("Win probabilities")
	fmt.Println(sim)
	fmt.Println("Schedule luck")
	fmt.Println(luckTable(ff.LuckTable(standings, sim)))

	fmt.Println("Margins")
	fmt.Println(marginTable(ff.Margins(results)))

	if *exact {
		exactSim := make(ff.Simulation)
		for _, team := range standings.Teams() {
			d, err := ff.ExactDistribution(team, scores, bonus, league.Roster)
			if errors.Is(err, ff.ErrTooLarge) || errors.Is(err, ff.ErrPrecondition) {
				log.WithField("team", team).WithError(err).Warn("skipping exact distribution")
				continue
			}
			check(err)
			exactSim[team] = d
		}
		fmt.Println("Exact win probabilities")
		fmt.Println(exactSim)
	}
}

func readResults(ctx context.Context, league *config.League) []ff.WeeklyResult {
	if *inFile != "" {
		f, err := os.Open(*inFile)
		check(err)
		defer f.Close()
		results, err := ff.ReadCSV(f)
		check(err)
		log.Debugf("read season file %s", *inFile)
		return results
	}

	s, closeStore, err := store.Open(ctx, *dataDir, league.Bucket, league.ClientOptions()...)
	check(err)
	defer closeStore()

	y := *year
	if y == 0 {
		years, err := store.ListSeasons(ctx, s)
		check(err)
		if len(years) == 0 {
			log.Fatalln("no seasons stored")
		}
		y = years[len(years)-1]
	}
	results, err := store.LoadSeason(ctx, s, y)
	check(err)
	log.Debugf("read season %d", y)
	return results
}

func luckTable(reports []ff.LuckReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(" %-24s %6s %6s %8s %6s %6s  %s\n", "Team", "Actual", "Median", "Expected", "Pct", "Z", "Verdict"))
	for _, r := range reports {
		name := ff.Truncate(r.Team, 24)
		b.WriteString(fmt.Sprintf(" %-24s %6d %6d %8.2f %6.3f %6.2f  %s\n",
			name, r.Actual, r.Median, r.Expected, r.Percentile, r.ZScore, r.Verdict))
	}
	return b.String()
}

func marginTable(margins []ff.Margin) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(" %-24s %8s %8s %6s\n", "Team", "AvgWin", "AvgLoss", "H2H"))
	for _, m := range margins {
		name := ff.Truncate(m.Team, 24)
		b.WriteString(fmt.Sprintf(" %-24s %8.2f %8.2f %3d-%-2d\n",
			name, m.AvgMarginWin, m.AvgMarginLoss, m.HeadToHeadWins, m.HeadToHeadLosses))
	}
	return b.String()
}
