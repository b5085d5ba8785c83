package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ebolton/keygate/internal/audit"
	"github.com/ebolton/keygate/internal/config"
	"github.com/ebolton/keygate/internal/secrets"
)

// openStore opens the audited system store the daemon reads from. Every
// CLI access lands in the same audit log the gate writes.
func openStore() (secrets.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit log: %w", err)
	}
	store := secrets.NewAuditedStore(secrets.NewSystemStore(config.Dir()), auditLog, "cli")
	return store, func() { auditLog.Close() }, nil
}

// readSecretValue takes the value from args, a terminal prompt, or
// piped stdin, in that order.
func readSecretValue(args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Enter secret value: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading value: %w", err)
		}
		fmt.Println()
		return string(b), nil
	}
	b, err := os.ReadFile("/dev/stdin")
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage stored secrets",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <name> [value]",
	Short: "Store a secret",
	Long:  "Store a secret. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		value, err := readSecretValue(args)
		if err != nil {
			return err
		}
		if err := store.Set(args[0], value); err != nil {
			return err
		}
		fmt.Printf("Secret %q stored\n", args[0])
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a secret value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		val, err := store.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

var secretListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List secret names and their gate indexes",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No secrets stored")
			return nil
		}

		// Dense indexes come from config, not from store order.
		index := map[string]int{}
		for i, n := range cfg.Secrets.Order {
			index[n] = i
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tINDEX")
		for _, n := range names {
			idx := "-"
			if i, ok := index[n]; ok {
				idx = fmt.Sprintf("%d", i)
			}
			fmt.Fprintf(w, "%s\t%s\n", n, idx)
		}
		w.Flush()
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Remove a secret",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Secret %q deleted\n", args[0])
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretListCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}
