package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the gate unlock PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the unlock PIN",
	Long:  "Prompt twice for a new PIN and store it. The daemon picks it up on restart.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("pin set requires a terminal")
		}

		fmt.Print("New PIN: ")
		first, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading PIN: %w", err)
		}
		fmt.Print("Repeat PIN: ")
		second, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading PIN: %w", err)
		}

		pin := string(first)
		if pin != string(second) {
			return fmt.Errorf("PINs do not match")
		}
		if len(pin) == 0 {
			return fmt.Errorf("PIN must not be empty")
		}
		if len(pin) > cfg.Secrets.MaxPINLength {
			return fmt.Errorf("PIN longer than max_pin_length (%d)", cfg.Secrets.MaxPINLength)
		}
		for _, r := range pin {
			if r < '0' || r > '9' {
				return fmt.Errorf("PIN must be digits only; it is typed on the number keys")
			}
		}

		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Set(cfg.Secrets.PINKey, pin); err != nil {
			return err
		}
		fmt.Println("PIN updated; restart the daemon to apply")
		return nil
	},
}

func init() {
	pinCmd.AddCommand(pinSetCmd)
	rootCmd.AddCommand(pinCmd)
}
