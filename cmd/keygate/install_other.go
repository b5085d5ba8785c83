//go:build !linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install keygate as a systemd user service (Linux only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("systemd installation is only available on Linux")
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the keygate systemd user service (Linux only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("systemd installation is only available on Linux")
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}
