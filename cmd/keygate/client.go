package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebolton/keygate/internal/config"
	"github.com/ebolton/keygate/internal/engine"
	"github.com/ebolton/keygate/internal/indicator"
	"github.com/ebolton/keygate/internal/trace"
)

func socketPath() string {
	cfg, err := loadConfig()
	if err != nil || cfg.Socket == "" {
		return filepath.Join(config.Dir(), "keygate.sock")
	}
	return cfg.Socket
}

func apiClient() *http.Client {
	sock := socketPath()
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", sock)
			},
		},
	}
}

func apiGet(path string, v any) error {
	resp, err := apiClient().Get("http://keygate" + path)
	if err != nil {
		return fmt.Errorf("connecting to daemon: %w (is keygate daemon running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func apiPost(path string) (map[string]any, error) {
	resp, err := apiClient().Post("http://keygate"+path, "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w (is keygate daemon running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return result, nil
}

func fetchStatus() (engine.Status, error) {
	var st engine.Status
	err := apiGet("/v1/status", &st)
	return st, err
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			return runWatch()
		}

		st, err := fetchStatus()
		if err != nil {
			return err
		}
		fmt.Println(indicator.Render(statusToState(st)))
		return nil
	},
}

func statusToState(st engine.Status) indicator.State {
	return indicator.State{
		Gate:         string(st.Gate),
		Layer:        st.Layer,
		Desktop:      st.Desktop,
		SentenceCase: st.SentenceCase,
		Device:       st.Device,
		LayoutHash:   st.LayoutHash,
		Uptime:       time.Since(st.StartedAt),
	}
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the secrets gate now",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := apiPost("/v1/lock"); err != nil {
			return err
		}
		fmt.Println("Gate locked")
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the layout file",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := apiPost("/v1/reload")
		if err != nil {
			return err
		}
		if hash, ok := result["layout_hash"].(string); ok && len(hash) > 12 {
			hash = hash[:12]
			fmt.Printf("Layout reloaded (%s)\n", hash)
		} else {
			fmt.Println("Layout reloaded")
		}
		return nil
	},
}

var desktopCmd = &cobra.Command{
	Use:   "desktop <n>",
	Short: "Reset the virtual desktop tracker",
	Long:  "Tell the daemon which desktop is actually active, for when it was changed with the mouse.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("desktop must be a number, got %q", args[0])
		}
		if _, err := apiPost("/v1/desktop/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("Desktop tracker set to %s\n", args[0])
		return nil
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Show recent dispatch decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("lines")
		var records []trace.Record
		if err := apiGet("/v1/trace?n="+strconv.Itoa(n), &records); err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No events recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tKEY\tEDGE\tLAYER\tACTION")
		for _, r := range records {
			keyName := r.Key
			if r.Redacted {
				keyName = "<redacted>"
			}
			edge := "up"
			if r.Pressed {
				edge = "down"
			}
			action := r.Action
			if action == "" {
				action = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.Time.Format("15:04:05.000"), keyName, edge, r.Layer, action)
		}
		w.Flush()
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "live status view")
	traceCmd.Flags().IntP("lines", "n", 50, "number of events to show")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(desktopCmd)
	rootCmd.AddCommand(traceCmd)
}
