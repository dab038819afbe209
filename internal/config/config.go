// Package config provides configuration for dupfinder.
//
// Configuration is loaded from a YAML file, then overridden by DUPFINDER_*
// environment variables. Every section carries defaults so an empty config is
// usable against a local report dump.
package config

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/dupfinder/internal/logging"
)

// ErrInvalidConfig is the sentinel wrapped by all validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the complete dupfinder configuration.
type Config struct {
	Store       StoreConfig       `koanf:"store"`
	GroundTruth GroundTruthConfig `koanf:"ground_truth"`
	Neighbors   NeighborsConfig   `koanf:"neighbors"`
	LSI         LSIConfig         `koanf:"lsi"`
	WordMover   WordMoverConfig   `koanf:"word_mover"`
	Doc2Vec     Doc2VecConfig     `koanf:"doc2vec"`
	Logging     logging.Config    `koanf:"logging"`
}

// StoreConfig locates the historical report dump.
type StoreConfig struct {
	// Path is a JSON-lines file of report records.
	Path string `koanf:"path"`
}

// GroundTruthConfig controls duplicate ground-truth eligibility.
type GroundTruthConfig struct {
	// IgnoredReporters are creator identities excluded from ground truth,
	// typically automated filers.
	IgnoredReporters []string `koanf:"ignored_reporters"`
	// TriageKeyword excludes reports still awaiting duplicate triage.
	TriageKeyword string `koanf:"triage_keyword"`
}

// IgnoredSet returns the ignored reporters as a set.
func (c GroundTruthConfig) IgnoredSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.IgnoredReporters))
	for _, r := range c.IgnoredReporters {
		set[r] = struct{}{}
	}
	return set
}

// NeighborsConfig configures the TF-IDF nearest-neighbor backend.
type NeighborsConfig struct {
	K int `koanf:"k"`
}

// LSIConfig configures the latent-semantic backend.
type LSIConfig struct {
	Topics int `koanf:"topics"`
	K      int `koanf:"k"`
}

// WordMoverConfig configures the word-embedding-distance backend.
type WordMoverConfig struct {
	Dim      int   `koanf:"dim"`
	MinCount int   `koanf:"min_count"`
	Window   int   `koanf:"window"`
	Epochs   int   `koanf:"epochs"`
	Seed     int64 `koanf:"seed"`
}

// Doc2VecConfig configures the paragraph-embedding backend.
type Doc2VecConfig struct {
	Dim      int   `koanf:"dim"`
	MinCount int   `koanf:"min_count"`
	Epochs   int   `koanf:"epochs"`
	Seed     int64 `koanf:"seed"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.GroundTruth.TriageKeyword == "" {
		c.GroundTruth.TriageKeyword = "dupeme"
	}
	if c.Neighbors.K == 0 {
		c.Neighbors.K = 10
	}
	if c.LSI.Topics == 0 {
		c.LSI.Topics = 300
	}
	if c.LSI.K == 0 {
		c.LSI.K = 10
	}
	if c.WordMover.Dim == 0 {
		c.WordMover.Dim = 100
	}
	if c.WordMover.MinCount == 0 {
		c.WordMover.MinCount = 5
	}
	if c.WordMover.Window == 0 {
		c.WordMover.Window = 5
	}
	if c.WordMover.Epochs == 0 {
		c.WordMover.Epochs = 5
	}
	if c.WordMover.Seed == 0 {
		c.WordMover.Seed = 42
	}
	if c.Doc2Vec.Dim == 0 {
		c.Doc2Vec.Dim = 300
	}
	if c.Doc2Vec.MinCount == 0 {
		c.Doc2Vec.MinCount = 2
	}
	if c.Doc2Vec.Epochs == 0 {
		c.Doc2Vec.Epochs = 50
	}
	if c.Doc2Vec.Seed == 0 {
		c.Doc2Vec.Seed = 42
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Neighbors.K < 1 {
		return fmt.Errorf("%w: neighbors.k must be positive, got %d", ErrInvalidConfig, c.Neighbors.K)
	}
	if c.LSI.Topics < 1 {
		return fmt.Errorf("%w: lsi.topics must be positive, got %d", ErrInvalidConfig, c.LSI.Topics)
	}
	if c.LSI.K < 1 {
		return fmt.Errorf("%w: lsi.k must be positive, got %d", ErrInvalidConfig, c.LSI.K)
	}
	if c.WordMover.Dim < 1 {
		return fmt.Errorf("%w: word_mover.dim must be positive, got %d", ErrInvalidConfig, c.WordMover.Dim)
	}
	if c.WordMover.MinCount < 1 {
		return fmt.Errorf("%w: word_mover.min_count must be positive, got %d", ErrInvalidConfig, c.WordMover.MinCount)
	}
	if c.Doc2Vec.Dim < 1 {
		return fmt.Errorf("%w: doc2vec.dim must be positive, got %d", ErrInvalidConfig, c.Doc2Vec.Dim)
	}
	if c.Doc2Vec.Epochs < 1 {
		return fmt.Errorf("%w: doc2vec.epochs must be positive, got %d", ErrInvalidConfig, c.Doc2Vec.Epochs)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}
