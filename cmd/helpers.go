package cmd

import (
	"github.com/spf13/cobra"

	"github.com/maxkimambo/assetflow/internal/config"
)

// loadConfig reads the configuration of the project selected by --dir and
// applies the flags that override it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("dir")
	file, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(dir, file)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("parallel") {
		cfg.MaxParallel, _ = cmd.Flags().GetInt("parallel")
	}
	return cfg, nil
}
