package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/reachavoid/experiment"
)

var configOut string

// DefaultConfig writes the default experiment configuration as JSON to
// a file, or to stdout if no file is given
func DefaultConfig() error {
	c := experiment.DefaultConfig()
	if configOut != "" {
		return c.Save(configOut)
	}

	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func DefaultConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default-config",
		Short: "Print the default experiment configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DefaultConfig(); err != nil {
				return fmt.Errorf("default-config: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configOut, "file", "f", "",
		"write the configuration to this file instead of stdout")
	return cmd
}
