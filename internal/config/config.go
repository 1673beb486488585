// Package config reads league settings shared by the commands.
package config

import (
	"fmt"
	"os"

	"github.com/reallyasi9/fantasy-luck/internal/boxscore"
	"github.com/reallyasi9/fantasy-luck/internal/ff"
	"google.golang.org/api/option"
	yaml "gopkg.in/yaml.v2"
)

// DefaultCollection is the Firestore collection seasons are published under.
const DefaultCollection = "fantasy-seasons"

// League holds one league's settings.
type League struct {
	LeagueID int    `yaml:"league_id"`
	Name     string `yaml:"name"`

	// Project is the GCP project. Falls back to $GCP_PROJECT.
	Project string `yaml:"project"`
	// Bucket holds the season CSV objects. Falls back to $FF_BUCKET.
	Bucket string `yaml:"bucket"`
	// Credentials is an optional service account key file. Application default credentials are used otherwise.
	Credentials string `yaml:"credentials"`
	Collection  string `yaml:"collection"`

	Years  []int    `yaml:"years"`
	Trials int      `yaml:"trials"`
	TopN   int      `yaml:"top_n"`
	Roster []string `yaml:"roster"`
}

// Default returns the settings used when no file is given.
func Default() *League {
	l := &League{}
	l.fill(os.LookupEnv)
	return l
}

// fill sets defaults and environment fallbacks for fields the file left empty.
func (l *League) fill(lookup func(string) (string, bool)) {
	if l.Project == "" {
		if v, ok := lookup("GCP_PROJECT"); ok {
			l.Project = v
		}
	}
	if l.Bucket == "" {
		if v, ok := lookup("FF_BUCKET"); ok {
			l.Bucket = v
		}
	}
	if l.Collection == "" {
		l.Collection = DefaultCollection
	}
	if l.Trials == 0 {
		l.Trials = ff.DefaultTrials
	}
	if l.TopN == 0 {
		l.TopN = boxscore.DefaultTopN
	}
}

// Validate reports the first setting that cannot be used.
func (l *League) Validate() error {
	if l.Trials < 0 {
		return fmt.Errorf("trials must be positive, got %d", l.Trials)
	}
	if l.TopN < 0 {
		return fmt.Errorf("top_n must be positive, got %d", l.TopN)
	}
	for _, y := range l.Years {
		if y <= 0 {
			return fmt.Errorf("invalid year %d", y)
		}
	}
	seen := make(map[string]bool)
	for _, team := range l.Roster {
		if seen[team] {
			return fmt.Errorf("team \"%s\" listed twice in roster", team)
		}
		seen[team] = true
	}
	return nil
}

// ClientOptions returns the Google Cloud client options for these settings.
func (l *League) ClientOptions() []option.ClientOption {
	if l.Credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(l.Credentials)}
}

func parse(data []byte, lookup func(string) (string, bool)) (*League, error) {
	l := &League{}
	if err := yaml.UnmarshalStrict(data, l); err != nil {
		return nil, err
	}
	l.fill(lookup)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Parse reads league settings from YAML, filling unset fields from defaults and the environment.
func Parse(data []byte) (*League, error) {
	return parse(data, os.LookupEnv)
}

// Load parses a league settings YAML file.
func Load(fileName string) (*League, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", fileName, err)
	}
	return l, nil
}
