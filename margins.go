package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/reachavoid/analysis"
	"github.com/samuelfneumann/reachavoid/environment/probmap"
)

// Margins renders the safety margin and the terminal value
// max(l(x), g(x)) of the configured environment
func Margins() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	env, err := probmap.New(c.Env, uint64(c.Seed))
	if err != nil {
		return err
	}

	safety, err := analysis.SafetyMap(env, resolution, resolution)
	if err != nil {
		return err
	}
	terminal, err := analysis.TerminalMap(env, resolution, resolution)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrap(err, "margins: could not create output directory")
	}

	maps := []struct {
		name string
		grid *mat.Dense
	}{
		{"safety.png", safety},
		{"terminal.png", terminal},
	}
	for _, m := range maps {
		filename := filepath.Join(outDir, m.name)
		if err := analysis.RenderHeatmap(m.grid, env.Bounds(), nil, filename,
			analysis.DefaultHeatmapConfig()); err != nil {
			return err
		}
		log.WithField("file", filename).Info("rendered margins")
	}
	return nil
}

func MarginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "margins",
		Short: "Render the safety and terminal margins of the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Margins(); err != nil {
				return fmt.Errorf("margins: %v", err)
			}
			return nil
		},
	}
}
