package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ebolton/keygate/internal/layout"
)

var checkCmd = &cobra.Command{
	Use:   "check [layout-file]",
	Short: "Validate a layout file",
	Long:  "Parse and validate a layout without loading it into the daemon. Defaults to the configured layout.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.Layout
		if len(args) == 1 {
			path = args[0]
		}

		l, err := layout.Load(path)
		if err != nil {
			return err
		}

		// secret:N bindings must have a configured name behind them.
		var dangling []int
		for _, i := range l.SecretIndexes() {
			if i >= len(cfg.Secrets.Order) {
				dangling = append(dangling, i)
			}
		}

		fmt.Printf("%s: ok (%d layers, base %q)\n", path, len(l.Layers()), l.Base())
		if len(dangling) > 0 {
			fmt.Printf("warning: secret indexes %v have no entry in secrets.order; those keys will do nothing\n", dangling)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
