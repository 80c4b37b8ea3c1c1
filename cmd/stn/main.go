// Command stn consolidates the trajectories of many iterated-racing
// tuning runs into a single search trajectory network and writes it as
// a tab-separated table, optionally recording it in a sqlite store.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Imperialdramon/irace-stn/internal/db"
	"github.com/Imperialdramon/irace-stn/internal/export"
	"github.com/Imperialdramon/irace-stn/internal/params"
	"github.com/Imperialdramon/irace-stn/internal/source"
	"github.com/Imperialdramon/irace-stn/internal/stn"
)

// Config holds the invocation's flag values.
type Config struct {
	RunsDir    string
	ParamsFile string
	OutDir     string
	OutName    string

	Criterion     string
	Significance  int
	TypeOrder     string
	OriginalElite bool
	OriginalType  bool

	DBPath string
}

var cfg Config

var rootCmd = &cobra.Command{
	Use:   "stn",
	Short: "Build a search trajectory network from iterated-racing runs",
	Long: `stn reads a directory of iterated-racing run archives and a parameter
definition table, discretizes every sampled configuration into a
fixed-width location code, and consolidates all runs into a single
directed network of locations. The result is written as a tab-separated
edge table; with --db the network is also recorded in a sqlite store.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfg.RunsDir, "runs", "", "directory of run archives (*.json)")
	rootCmd.Flags().StringVar(&cfg.ParamsFile, "params", "", "parameter definition table")
	rootCmd.Flags().StringVar(&cfg.OutDir, "out", "", "output directory")
	rootCmd.Flags().StringVar(&cfg.OutName, "name", "", "output file name (default <runs-dir>-stn.tsv)")
	rootCmd.Flags().StringVar(&cfg.Criterion, "criterion", "min", "location quality criterion: min, max, mean, median or mode")
	rootCmd.Flags().IntVar(&cfg.Significance, "significance", 2, "decimal digits for reported fitness")
	rootCmd.Flags().StringVar(&cfg.TypeOrder, "type-order", stn.DefaultTypeOrder.String(), "type priority, lowest first, e.g. standard<start<end")
	rootCmd.Flags().BoolVar(&cfg.OriginalElite, "original-elite", false, "report each configuration's own elite status instead of the aggregated one")
	rootCmd.Flags().BoolVar(&cfg.OriginalType, "original-type", false, "report each configuration's own type instead of the aggregated one")
	rootCmd.Flags().StringVar(&cfg.DBPath, "db", "", "also record the network in this sqlite database")

	for _, name := range []string{"runs", "params", "out"} {
		if err := rootCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func run(ctx context.Context, cfg Config) error {
	criterion, err := stn.ParseCriterion(cfg.Criterion)
	if err != nil {
		return err
	}
	order, err := stn.ParseTypeOrder(cfg.TypeOrder)
	if err != nil {
		return err
	}
	if cfg.Significance < 0 {
		return fmt.Errorf("significance must be non-negative, got %d", cfg.Significance)
	}

	catalog, err := params.Load(cfg.ParamsFile)
	if err != nil {
		return err
	}
	log.Printf("loaded %d parameters (code width %d) from %s",
		catalog.Len(), catalog.CodeWidth(), cfg.ParamsFile)

	runs, err := source.LoadDir(cfg.RunsDir, catalog)
	if err != nil {
		return err
	}
	log.Printf("loaded %d runs from %s", len(runs), cfg.RunsDir)

	opts := stn.Options{
		Criterion:     criterion,
		Significance:  cfg.Significance,
		TypeOrder:     order,
		OriginalElite: cfg.OriginalElite,
		OriginalType:  cfg.OriginalType,
	}
	result, err := stn.Build(ctx, runs, catalog, opts)
	if err != nil {
		return err
	}
	log.Printf("consolidated %d locations and %d edges", len(result.Locations), len(result.Edges))

	name := cfg.OutName
	if name == "" {
		name = filepath.Base(filepath.Clean(cfg.RunsDir)) + "-stn.tsv"
	}
	outPath := filepath.Join(cfg.OutDir, name)

	// The batch is recorded before the TSV is renamed into place and
	// discarded if publishing fails, so neither artifact can outlive a
	// failed invocation.
	var store *db.DB
	var batchID string
	if cfg.DBPath != "" {
		store, err = db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		batchID, err = store.RecordNetwork(name, len(runs), result)
		if err != nil {
			return err
		}
	}

	if err := export.Write(outPath, result); err != nil {
		if store != nil {
			if delErr := store.DeleteBatch(batchID); delErr != nil {
				return fmt.Errorf("%w (and could not discard batch %s: %v)", err, batchID, delErr)
			}
		}
		return err
	}
	log.Printf("wrote %s", outPath)
	if store != nil {
		log.Printf("recorded batch %s in %s", batchID, cfg.DBPath)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
