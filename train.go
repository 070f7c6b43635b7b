package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/reachavoid/analysis"
	"github.com/samuelfneumann/reachavoid/experiment"
	"github.com/samuelfneumann/reachavoid/experiment/trackers"
)

// loadConfig loads the experiment configuration given on the command
// line, or the default configuration if none was given
func loadConfig() (experiment.Config, error) {
	if configFile == "" {
		return experiment.DefaultConfig(), nil
	}
	return experiment.Load(configFile)
}

// Train trains an agent and evaluates the learned value function
func Train() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrap(err, "train: could not create output directory")
	}
	if c.SaveDir != "" && !filepath.IsAbs(c.SaveDir) {
		c.SaveDir = filepath.Join(outDir, c.SaveDir)
	}

	cost := trackers.NewCost(filepath.Join(outDir, "cost.bin"))
	length := trackers.NewEpisodeLength(filepath.Join(outDir, "length.bin"))

	trainer, err := experiment.NewTrainer(c, cost, length)
	if err != nil {
		return err
	}
	defer trainer.Close()

	records, err := trainer.Run()
	if err != nil {
		return err
	}
	if err := saveRecords(filepath.Join(outDir, "records.json"),
		records); err != nil {
		return err
	}

	return evaluate(trainer)
}

// evaluate renders the learned value function with greedy rollouts and
// compares the sign of the predicted value of each rollout's starting
// state with the rollout's result
func evaluate(trainer *experiment.Trainer) error {
	a := trainer.Agent()
	env := trainer.Env()

	values, err := analysis.ValueMap(a, env.Bounds(), resolution, resolution)
	if err != nil {
		return err
	}

	a.Eval()
	trajectories, err := analysis.Rollouts(env, a, nil, 100, 200)
	if err != nil {
		return err
	}

	labels := make([]float64, len(trajectories))
	predictions := make([]float64, len(trajectories))
	for i, traj := range trajectories {
		labels[i] = 1
		if traj.Result == analysis.Success {
			labels[i] = -1
		}
		if predictions[i], err = a.Value(traj.States[0]); err != nil {
			return err
		}
	}
	confusion, err := analysis.ConfusionMatrix(labels, predictions)
	if err != nil {
		return err
	}
	rates := analysis.RolloutRates(trajectories)

	log.WithFields(log.Fields{
		"accuracy":   confusion.Accuracy(),
		"fp_rate":    confusion.FPRate(),
		"fn_rate":    confusion.FNRate(),
		"success":    rates.Success,
		"failure":    rates.Failure,
		"unfinished": rates.Unfinished,
	}).Info("evaluation")

	filename := filepath.Join(outDir, "value.png")
	if len(trajectories) > 10 {
		trajectories = trajectories[:10]
	}
	if err := analysis.RenderHeatmap(values, env.Bounds(), trajectories,
		filename, analysis.DefaultHeatmapConfig()); err != nil {
		return err
	}
	log.WithField("file", filename).Info("rendered value function")
	return nil
}

func saveRecords(filename string, records []experiment.Record) error {
	data, err := json.MarshalIndent(records, "", "\t")
	if err != nil {
		return errors.Wrap(err, "saveRecords: could not encode records")
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "saveRecords: could not write records")
	}
	return nil
}

func TrainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train an agent and render its value function",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Train(); err != nil {
				return fmt.Errorf("train: %v", err)
			}
			return nil
		},
	}
}
