package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# log level: debug, info, warn or error
log_level: "info"

# Local playback
playback:
  # audio engine: auto, oto or mock (auto uses mock in CI)
  engine: "auto"
  # output device format
  sample_rate: 48000
  channels: 2
  # volume (0.0 to 1.0]
  volume: 1.0
  # how long to wait for the relay to answer a request
  request_timeout: "15s"
  # how long the error state is shown before returning to idle
  error_revert_delay: "3s"

# Relay connection used by speak
client:
  endpoint: "ws://127.0.0.1:8765/ws"

# Relay server (speakeasy serve)
relay:
  addr: "127.0.0.1:8765"
  # provider: hume or tone (tone needs no credentials)
  provider: "hume"
  # Hume voice name or voice id
  # voice: "Ava Song"
  # api_key is usually set with HUME_API_KEY or SPEAKEASY_RELAY_API_KEY
  # base_url: "https://api.hume.ai/v0/tts"
  # per-connection requests per second and burst
  rate_limit: 2
  burst: 5
  timeout: "30s"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speakeasy config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speakeasy config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speakeasy config\nspeakeasy config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// The file may not be valid yet; skip loading it.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Speakeasy", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if configFile == "" {
		return errors.New("could not determine a configuration file location")
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
