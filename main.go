package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	outDir     string
	logLevel   string
	resolution int
)

func main() {
	root := &cobra.Command{
		Use:           "reachavoid",
		Short:         "Learn reach-avoid value functions with Double DQN",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"experiment configuration file, defaults are used if empty")
	root.PersistentFlags().StringVarP(&outDir, "out", "o", ".",
		"output directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"logging level")
	root.PersistentFlags().IntVarP(&resolution, "resolution", "r", 101,
		"number of grid points along each axis of rendered maps")

	root.AddCommand(TrainCommand())
	root.AddCommand(MarginsCommand())
	root.AddCommand(DefaultConfigCommand())

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("failed")
		os.Exit(1)
	}
}
