package cmd

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/alphapulse/config"
	"github.com/rustyeddy/alphapulse/dataset"
	"github.com/rustyeddy/alphapulse/env"
	"github.com/rustyeddy/alphapulse/journal"
	"github.com/rustyeddy/alphapulse/metrics"
	"github.com/rustyeddy/alphapulse/policy"
	"github.com/rustyeddy/alphapulse/store"
	"github.com/rustyeddy/alphapulse/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the softmax policy on the stored price history",
	Long: `Train loads the stored candle series, enriches it with the SMA and
RSI observation features, and runs the configured number of training
episodes. The learned policy weights are written to train.policy_file.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger("train")

	st, err := store.Open(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	bars, err := dataset.Load(cmd.Context(), st, cfg.Data.Instrument)
	if err != nil {
		return err
	}
	log.Info("dataset loaded", "bars", len(bars))

	seed := cfg.Train.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	e, err := env.New(bars, cfg.Env, rng, newLogger("env"))
	if err != nil {
		return err
	}

	jnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer jnl.Close()

	if cfg.Train.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Info("metrics listening", "addr", cfg.Train.MetricsAddr)
			if err := http.ListenAndServe(cfg.Train.MetricsAddr, mux); err != nil {
				log.Error("metrics server", "err", err)
			}
		}()
	}

	p := policy.NewSoftmax(cfg.Train.LearningRate, rng)
	trainer := &train.Trainer{
		Env:           e,
		Policy:        p,
		Journal:       jnl,
		Log:           log,
		Gamma:         cfg.Train.Gamma,
		SnapshotEvery: cfg.Train.SnapshotEvery,
	}

	fmt.Printf("Training for %d episodes over %d bars (seed %d)\n", cfg.Train.Episodes, len(bars), seed)
	if err := trainer.Run(cmd.Context(), cfg.Train.Episodes); err != nil {
		return err
	}

	if err := p.SaveFile(cfg.Train.PolicyFile); err != nil {
		return err
	}
	fmt.Printf("Training complete. Policy saved to %s\n", cfg.Train.PolicyFile)
	return nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.EpisodesFile, cfg.Journal.EquityFile)
	default:
		return journal.Nop{}, nil
	}
}
