// Package publish stores season standings and luck reports in Firestore.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

// ErrNoSeasons is returned by Latest when nothing has been published.
var ErrNoSeasons = errors.New("no seasons published")

// SeasonDoc is the top-level document of a published season.
type SeasonDoc struct {
	Year      int       `firestore:"year"`
	Weeks     int       `firestore:"weeks"`
	Teams     int       `firestore:"teams"`
	Trials    int       `firestore:"trials"`
	Leader    string    `firestore:"leader"`
	Timestamp time.Time `firestore:"timestamp,serverTimestamp"`
}

// Season is everything written for one year.
// Standings and Luck are keyed by document ID.
type Season struct {
	Doc       SeasonDoc
	Standings map[string]ff.StandingsRow
	Luck      map[string]ff.LuckReport
}

// DocID turns a team name into a usable document ID.
func DocID(team string) string {
	id := strings.ReplaceAll(strings.TrimSpace(team), "/", "_")
	if id == "" || id == "." || id == ".." || strings.HasPrefix(id, "__") {
		id = "team_" + id
	}
	return id
}

// Build assembles the documents for a season.
// Weeks counts only weeks that have been played.
func Build(year, trials int, results []ff.WeeklyResult, s ff.Standings, luck []ff.LuckReport) (Season, error) {
	played, _ := ff.CheckPlayed(results)
	out := Season{
		Doc: SeasonDoc{
			Year:   year,
			Weeks:  ff.MaxWeek(played),
			Teams:  len(s),
			Trials: trials,
		},
		Standings: make(map[string]ff.StandingsRow, len(s)),
		Luck:      make(map[string]ff.LuckReport, len(luck)),
	}
	if len(s) > 0 {
		out.Doc.Leader = s[0].Team
	}
	for _, row := range s {
		id := DocID(row.Team)
		if _, exists := out.Standings[id]; exists {
			return Season{}, fmt.Errorf("Build: team \"%s\" collides with another team's document ID \"%s\"", row.Team, id)
		}
		out.Standings[id] = row
	}
	for _, r := range luck {
		out.Luck[DocID(r.Team)] = r
	}
	return out, nil
}

// Publisher writes seasons under one collection.
type Publisher struct {
	fs         *firestore.Client
	collection string
	log        logrus.FieldLogger
}

// New creates a Publisher.
func New(fs *firestore.Client, collection string, log logrus.FieldLogger) *Publisher {
	return &Publisher{fs: fs, collection: collection, log: log}
}

func (p *Publisher) seasonRef(year int) *firestore.DocumentRef {
	return p.fs.Collection(p.collection).Doc(strconv.Itoa(year))
}

// Publish writes a season in one transaction, replacing what was there.
// Standings and luck documents for teams no longer in the season are deleted.
func (p *Publisher) Publish(ctx context.Context, season Season) error {
	seasonRef := p.seasonRef(season.Doc.Year)
	standingsRef := seasonRef.Collection("standings")
	luckRef := seasonRef.Collection("luck")

	var dropped int
	err := p.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Reads must come before any write in a transaction.
		oldStandings, err := docIDs(tx.DocumentRefs(standingsRef))
		if err != nil {
			return err
		}
		oldLuck, err := docIDs(tx.DocumentRefs(luckRef))
		if err != nil {
			return err
		}
		staleStandings := staleIDs(oldStandings, season.Standings)
		staleLuck := staleIDs(oldLuck, season.Luck)
		dropped = len(staleStandings) + len(staleLuck)

		for _, id := range staleStandings {
			if err := tx.Delete(standingsRef.Doc(id)); err != nil {
				return err
			}
		}
		for _, id := range staleLuck {
			if err := tx.Delete(luckRef.Doc(id)); err != nil {
				return err
			}
		}

		if err := tx.Set(seasonRef, &season.Doc); err != nil {
			return err
		}
		for id, row := range season.Standings {
			row := row
			if err := tx.Set(standingsRef.Doc(id), &row); err != nil {
				return err
			}
		}
		for id, r := range season.Luck {
			r := r
			if err := tx.Set(luckRef.Doc(id), &r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Publish: %d: %w", season.Doc.Year, err)
	}

	p.log.WithFields(logrus.Fields{
		"year":      season.Doc.Year,
		"standings": len(season.Standings),
		"luck":      len(season.Luck),
		"dropped":   dropped,
	}).Info("published season")
	return nil
}

func docIDs(iter *firestore.DocumentRefIterator) ([]string, error) {
	ids := make([]string, 0)
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// staleIDs returns the sorted IDs in existing that are not keys of keep.
func staleIDs[T any](existing []string, keep map[string]T) []string {
	out := make([]string, 0)
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Latest returns the most recent season on record.
func (p *Publisher) Latest(ctx context.Context) (*SeasonDoc, error) {
	iter := p.fs.Collection(p.collection).OrderBy("year", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNoSeasons
	}
	if err != nil {
		return nil, err
	}
	var s SeasonDoc
	if err := doc.DataTo(&s); err != nil {
		return nil, err
	}
	p.log.Debugf("most recent season on record: \"%s\"", doc.Ref.ID)
	return &s, nil
}

// Standings reads back a published season's standings in rank order.
func (p *Publisher) Standings(ctx context.Context, year int) (ff.Standings, error) {
	iter := p.seasonRef(year).Collection("standings").OrderBy("rank", firestore.Asc).Documents(ctx)
	defer iter.Stop()
	out := make(ff.Standings, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var row ff.StandingsRow
		if err := doc.DataTo(&row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
