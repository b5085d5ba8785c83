package main

import (
	"fmt"
	"os"

	"github.com/ebolton/keygate/internal/config"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.keygate/config.yaml)")
}

// loadConfig reads the config from --config or the default path,
// creating the state directory on the way.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if dir := config.Dir(); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}
	}
	return config.Load(path)
}
