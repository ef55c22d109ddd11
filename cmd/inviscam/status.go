package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/phinze/inviscam/internal/config"
	"github.com/phinze/inviscam/internal/coordinator"
	"github.com/phinze/inviscam/internal/device"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config, secrets, devices and the running service",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== InvisCam Status ===")
	fmt.Println()

	allOK := true

	fmt.Printf("Config file: %s\n", configPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("  Status: found")
	} else {
		fmt.Println("  Status: not found, using defaults")
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		return nil
	}
	fmt.Printf("  Media: %s\n", cfg.MediaDir)
	fmt.Printf("  Profiles: %s\n", cfg.ProfilesFile)
	fmt.Println()

	fmt.Println("Analytics:")
	if cfg.Analytics.Endpoint != "" {
		fmt.Printf("  Endpoint: %s\n", cfg.Analytics.Endpoint)
		if _, err := config.GetKeychainSecret(config.KeyAnalyticsToken); err == nil {
			fmt.Println("  Token (Keychain): set")
		} else if cfg.Analytics.Token != "" {
			fmt.Println("  Token (env): set")
		} else {
			fmt.Println("  Token: NOT SET")
			allOK = false
		}
	} else {
		fmt.Println("  Endpoint: not set, events are only logged")
	}
	fmt.Println()

	fmt.Println("Stream Deck:")
	if cfg.Remote.Enabled {
		if dev, err := device.Open(2 * time.Second); err == nil {
			fmt.Printf("  Device: CONNECTED (%s)\n", dev.ModelName())
			dev.Close()
		} else {
			fmt.Println("  Device: not detected")
		}
	} else {
		fmt.Println("  Remote: disabled")
	}
	fmt.Println()

	fmt.Println("Service:")
	if cfg.Status.Addr == "" {
		fmt.Println("  Status server: disabled")
	} else {
		st, err := fetchStatus(cmd.Context(), cfg.Status.Addr)
		switch {
		case err != nil:
			fmt.Printf("  Status server: unreachable (%v)\n", err)
			allOK = false
		case st.Running:
			fmt.Printf("  Session: %s, profile %s, phase %s\n", st.Session, st.Profile, st.Phase)
			if st.Recording {
				fmt.Printf("  Recording: %s\n", st.RecordedDuration().Truncate(time.Second))
			}
			if st.Sleeping {
				fmt.Println("  Sleeping")
			}
		default:
			fmt.Println("  Session: stopped")
		}
	}
	fmt.Println()

	if allOK {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some checks failed. Run 'inviscam setup' to configure.")
	}
	return nil
}

func fetchStatus(ctx context.Context, addr string) (coordinator.Status, error) {
	var st coordinator.Status

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decoding status: %w", err)
	}
	return st, nil
}
