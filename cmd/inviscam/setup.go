package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/phinze/inviscam/internal/config"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: write config and store secrets in Keychain",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== InvisCam Setup ===")
	fmt.Println()

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		cfg = config.Default()
	}

	fmt.Println("-- Media --")
	cfg.MediaDir = prompt(reader, "Save photos and videos to", cfg.MediaDir)
	cfg.ProfilesFile = prompt(reader, "Profiles file", cfg.ProfilesFile)
	cfg.Camera.FFmpeg = prompt(reader, "ffmpeg binary", cfg.Camera.FFmpeg)
	cfg.Camera.Audio = promptBool(reader, "Record audio", cfg.Camera.Audio)
	fmt.Println()

	fmt.Println("-- Status server --")
	cfg.Status.Addr = prompt(reader, "Listen address (empty to disable)", cfg.Status.Addr)
	fmt.Println()

	fmt.Println("-- Stream Deck remote --")
	cfg.Remote.Enabled = promptBool(reader, "Enable remote", cfg.Remote.Enabled)
	if cfg.Remote.Enabled {
		b := prompt(reader, "Brightness (1-100)", strconv.Itoa(int(cfg.Remote.Brightness)))
		if n, err := strconv.Atoi(b); err == nil && n > 0 && n <= 100 {
			cfg.Remote.Brightness = byte(n)
		}
	}
	fmt.Println()

	fmt.Println("-- Analytics --")
	cfg.Analytics.Endpoint = prompt(reader, "Collector endpoint (empty to only log)", cfg.Analytics.Endpoint)
	if cfg.Analytics.Endpoint != "" {
		token := promptSecret(reader, "Collector token", cfg.Analytics.Token != "")
		if token != "" {
			if err := config.SetKeychainSecret(config.KeyAnalyticsToken, token); err != nil {
				return fmt.Errorf("storing token in Keychain: %w", err)
			}
			fmt.Println("  -> Stored in Keychain")
		} else {
			fmt.Println("  -> Kept existing")
		}
	}
	fmt.Println()

	if err := config.WriteConfigFileTo(configPath, cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("Setup complete!")
	return nil
}

// prompt asks for a value with an optional default.
func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// promptBool asks a yes/no question.
func promptBool(reader *bufio.Reader, label string, defaultVal bool) bool {
	def := "n"
	if defaultVal {
		def = "y"
	}
	answer := prompt(reader, label+" (y/n)", def)
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// promptSecret asks for a secret value. If one already exists, allows keeping it.
func promptSecret(reader *bufio.Reader, label string, hasExisting bool) string {
	if hasExisting {
		fmt.Printf("  %s [press Enter to keep existing]: ", label)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
