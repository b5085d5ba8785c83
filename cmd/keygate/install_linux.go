//go:build linux

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

const systemdUnit = "keygate.service"

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install keygate as a systemd user service (starts on login)",
	RunE: func(cmd *cobra.Command, args []string) error {
		binary, err := os.Executable()
		if err != nil {
			return fmt.Errorf("finding binary path: %w", err)
		}
		binary, err = filepath.EvalSymlinks(binary)
		if err != nil {
			return fmt.Errorf("resolving binary path: %w", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home dir: %w", err)
		}

		unitDir := filepath.Join(home, ".config", "systemd", "user")
		unitPath := filepath.Join(unitDir, systemdUnit)
		if err := os.MkdirAll(unitDir, 0o755); err != nil {
			return fmt.Errorf("creating unit dir: %w", err)
		}

		unit := fmt.Sprintf(`[Unit]
Description=keygate keyboard daemon

[Service]
ExecStart=%s daemon
Restart=always
RestartSec=2

[Install]
WantedBy=default.target
`, binary)

		if err := os.WriteFile(unitPath, []byte(unit), 0o644); err != nil {
			return fmt.Errorf("writing unit: %w", err)
		}

		for _, step := range [][]string{
			{"systemctl", "--user", "daemon-reload"},
			{"systemctl", "--user", "enable", "--now", systemdUnit},
		} {
			if err := exec.Command(step[0], step[1:]...).Run(); err != nil {
				return fmt.Errorf("%s: %w", step[0], err)
			}
		}

		fmt.Printf("Installed systemd user unit: %s\n", unitPath)
		fmt.Println("keygate daemon will start now and on every login.")
		fmt.Println("Note: the user needs read access to /dev/input and write access to /dev/uinput.")
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the keygate systemd user service",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home dir: %w", err)
		}
		unitPath := filepath.Join(home, ".config", "systemd", "user", systemdUnit)

		exec.Command("systemctl", "--user", "disable", "--now", systemdUnit).Run()

		if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing unit: %w", err)
		}
		exec.Command("systemctl", "--user", "daemon-reload").Run()

		fmt.Println("keygate systemd unit removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}
