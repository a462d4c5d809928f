package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/alphapulse/dataset"
	"github.com/rustyeddy/alphapulse/env"
	"github.com/rustyeddy/alphapulse/policy"
	"github.com/rustyeddy/alphapulse/store"
	"github.com/rustyeddy/alphapulse/train"
)

var (
	evalPolicy   string
	evalModel    string
	evalEpisodes int
	evalONNXLib  string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a policy over repeated episodes",
	Long: `Eval runs a policy through the environment without learning and
prints per-episode and aggregate statistics.

Policies:
  random   uniform action baseline
  softmax  weights trained by 'alphapulse train' (--model policy.json)
  onnx     an actor network exported to ONNX (--model actor.onnx)`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalPolicy, "policy", "p", "random", "policy to evaluate (random, softmax, onnx)")
	evalCmd.Flags().StringVarP(&evalModel, "model", "m", "", "path to policy weights (softmax) or model (onnx)")
	evalCmd.Flags().IntVarP(&evalEpisodes, "episodes", "n", 10, "number of evaluation episodes")
	evalCmd.Flags().StringVar(&evalONNXLib, "onnx-lib", "", "path to the onnxruntime shared library")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger("eval")

	st, err := store.Open(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	bars, err := dataset.Load(cmd.Context(), st, cfg.Data.Instrument)
	if err != nil {
		return err
	}

	seed := cfg.Train.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	e, err := env.New(bars, cfg.Env, rng, newLogger("env"))
	if err != nil {
		return err
	}

	var pol policy.Policy
	switch evalPolicy {
	case "random":
		pol = policy.NewRandom(rng)

	case "softmax":
		if evalModel == "" {
			evalModel = cfg.Train.PolicyFile
		}
		pol, err = policy.LoadSoftmax(evalModel, rng)
		if err != nil {
			return err
		}

	case "onnx":
		if evalModel == "" {
			return fmt.Errorf("--model is required for the onnx policy")
		}
		if err := policy.InitializeRuntime(evalONNXLib); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
		p, err := policy.NewONNX(evalModel)
		if err != nil {
			return err
		}
		defer p.Close()
		pol = p

	default:
		return fmt.Errorf("unknown policy %q (supported: random, softmax, onnx)", evalPolicy)
	}

	fmt.Printf("Evaluating %s policy for %d episodes over %d bars\n\n", evalPolicy, evalEpisodes, len(bars))

	summary, err := train.Evaluate(cmd.Context(), e, pol, evalEpisodes, log)
	if err != nil {
		return err
	}

	fmt.Printf("%-8s %12s %8s %12s %12s  %s\n", "episode", "reward", "steps", "peak profit", "max dd", "reason")
	for _, s := range summary.Episodes {
		fmt.Printf("%-8d %12.2f %8d %11.2f%% %11.2f%%  %s\n",
			s.Episode, s.Reward, s.Steps, s.PeakProfit*100, s.MaxDrawdown*100, s.Reason)
	}

	fmt.Printf("\nSummary over %d episodes:\n", len(summary.Episodes))
	fmt.Printf("  Average Reward:       %.2f\n", summary.AvgReward)
	fmt.Printf("  Average Length:       %.2f\n", summary.AvgSteps)
	fmt.Printf("  Average Peak Profit:  %.2f%%\n", summary.AvgPeakProfit*100)
	fmt.Printf("  Average Max Drawdown: %.2f%%\n", summary.AvgMaxDrawdown*100)
	return nil
}
