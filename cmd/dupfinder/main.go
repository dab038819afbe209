// Package main implements the dupfinder CLI: duplicate-report similarity
// ranking and backend evaluation over a historical report dump.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/dupfinder/internal/config"
	"github.com/fyrsmithlabs/dupfinder/internal/corpus"
	"github.com/fyrsmithlabs/dupfinder/internal/embedding"
	"github.com/fyrsmithlabs/dupfinder/internal/groundtruth"
	"github.com/fyrsmithlabs/dupfinder/internal/logging"
	"github.com/fyrsmithlabs/dupfinder/internal/report"
	"github.com/fyrsmithlabs/dupfinder/internal/similarity"
	"github.com/fyrsmithlabs/dupfinder/internal/textnorm"
)

var (
	configPath  string
	storePath   string
	backendName string
	queryID     int

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dupfinder",
	Short: "Find and evaluate duplicate issue-report rankings",
	Long: `dupfinder ranks historical issue reports by similarity to a query report
and measures each ranking backend against known duplicate relationships.

Backends: neighbors (TF-IDF nearest neighbors), lsi (latent semantic
indexing), wordmover (word-embedding transport distance), doc2vec
(paragraph embeddings).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "path to JSON-lines report dump (overrides config)")
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)

	evaluateCmd.Flags().StringVar(&backendName, "backend", "neighbors", "ranking backend to evaluate")
	queryCmd.Flags().StringVar(&backendName, "backend", "neighbors", "ranking backend to query")
	queryCmd.Flags().IntVar(&queryID, "id", 0, "report id to query")
	_ = queryCmd.MarkFlagRequired("id")
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a backend's recall and precision against ground truth",
	Long: `Build the corpus and duplicate ground truth from the report dump, construct
the chosen backend, query every report with known duplicates, and print
aggregate recall and precision.

Examples:
  dupfinder evaluate --store reports.jsonl --backend wordmover
  dupfinder evaluate --config dupfinder.yaml --backend lsi`,
	RunE: runEvaluate,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print ranked duplicate candidates for one report",
	Long: `Construct the chosen backend and print the ranked candidate ids for the
given report id.

Examples:
  dupfinder query --store reports.jsonl --backend neighbors --id 1417019`,
	RunE: runQuery,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus and ground-truth summary counts",
	RunE:  runStats,
}

// env bundles everything a command needs from the shared setup path.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	reports []report.Report
	corpus  corpus.Corpus
	truth   groundtruth.Index
	norm    *textnorm.Normalizer
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("no report dump configured: set store.path or pass --store")
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	store := report.NewFileStore(cfg.Store.Path, logger)
	reports, err := store.Reports(ctx)
	if err != nil {
		return nil, err
	}

	norm := textnorm.New()
	c := corpus.Build(reports, norm.Normalize)
	truth := groundtruth.Build(reports, groundtruth.Options{
		IgnoredReporters: cfg.GroundTruth.IgnoredSet(),
		TriageKeyword:    cfg.GroundTruth.TriageKeyword,
	})

	logger.Info("corpus ready",
		zap.Int("reports", len(reports)),
		zap.Int("with_known_duplicates", len(truth)),
	)
	return &env{cfg: cfg, logger: logger, reports: reports, corpus: c, truth: truth, norm: norm}, nil
}

func (e *env) buildBackend(ctx context.Context, name string) (similarity.Backend, error) {
	switch name {
	case "neighbors":
		return similarity.NewNeighborsBackend(ctx, e.corpus, e.norm, similarity.NeighborsOptions{
			K: e.cfg.Neighbors.K,
		}, e.logger)
	case "lsi":
		return similarity.NewLSIBackend(e.corpus, e.norm, similarity.LSIOptions{
			Topics: e.cfg.LSI.Topics,
			K:      e.cfg.LSI.K,
		}, e.logger)
	case "wordmover":
		return similarity.NewWordMoverBackend(e.corpus, e.norm, similarity.WordMoverOptions{
			Word2Vec: embedding.Word2VecConfig{
				Dim:      e.cfg.WordMover.Dim,
				MinCount: e.cfg.WordMover.MinCount,
				Window:   e.cfg.WordMover.Window,
				Epochs:   e.cfg.WordMover.Epochs,
			},
			Seed: e.cfg.WordMover.Seed,
		}, e.logger)
	case "doc2vec":
		return similarity.NewDoc2VecBackend(e.corpus, e.norm, similarity.Doc2VecOptions{
			Model: embedding.Doc2VecConfig{
				Dim:      e.cfg.Doc2Vec.Dim,
				MinCount: e.cfg.Doc2Vec.MinCount,
				Epochs:   e.cfg.Doc2Vec.Epochs,
				Seed:     e.cfg.Doc2Vec.Seed,
			},
		}, e.logger)
	default:
		return nil, fmt.Errorf("unknown backend %q (want neighbors, lsi, wordmover, or doc2vec)", name)
	}
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}

	backend, err := e.buildBackend(ctx, backendName)
	if err != nil {
		return err
	}

	metrics, err := similarity.Evaluate(ctx, backend, e.reports, e.truth, e.logger)
	if err != nil {
		return err
	}
	fmt.Println(metrics)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}

	var query *report.Report
	for i := range e.reports {
		if e.reports[i].ID == queryID {
			query = &e.reports[i]
			break
		}
	}
	if query == nil {
		return fmt.Errorf("report %d not found in dump", queryID)
	}

	backend, err := e.buildBackend(ctx, backendName)
	if err != nil {
		return err
	}
	candidates, err := backend.SimilarBugs(ctx, *query)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		fmt.Println("no candidates")
		return nil
	}
	for rank, id := range candidates {
		marker := ""
		if e.truth.AreDuplicates(queryID, id) {
			marker = "  (known duplicate)"
		}
		fmt.Printf("%2d. %d%s\n", rank+1, id, marker)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}

	pairs := 0
	for _, dupes := range e.truth {
		pairs += len(dupes)
	}
	tokens := 0
	empty := 0
	for i := range e.corpus {
		n := len(e.corpus[i].Tokens)
		tokens += n
		if n == 0 {
			empty++
		}
	}

	fmt.Printf("reports:                 %d\n", len(e.reports))
	fmt.Printf("reports with duplicates: %d\n", len(e.truth))
	fmt.Printf("duplicate links:         %d\n", pairs/2)
	fmt.Printf("total tokens:            %d\n", tokens)
	fmt.Printf("empty documents:         %d\n", empty)
	return nil
}
