// Package main provides the entry point for the speakeasy CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/speakeasy/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	verbose           bool
	cfg               config.Config

	rootCmd = &cobra.Command{
		Use:   "speakeasy",
		Short: "Speak text and play audio cues from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nTurn text into %s through a synthesis relay, or play prerecorded cues.", keyword("speech")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
	}
)

// loadConfig resolves cfg from the config file, .env and the environment,
// then applies logging settings.
func loadConfig() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = c

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	if verbose {
		log.SetLevel(log.DebugLevel)
		log.SetOutput(io.MultiWriter(logOutput, os.Stderr))
	}

	log.Debug("Configuration loaded", "file", viper.ConfigFileUsed(), "engine", cfg.Playback.Engine)
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().String("engine", "", "audio engine: auto, oto or mock")
	rootCmd.PersistentFlags().String("endpoint", "", "relay websocket URL")

	// Config bindings
	_ = viper.BindPFlag("playback.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("client.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(speakCmd, playCmd, serveCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "speakeasy")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speakeasy")}, dirs...)
	}

	if c := os.Getenv("SPEAKEASY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speakeasy")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}
	defaultConfigFile = filepath.Join(dirs[0], "speakeasy.yml")
	log.Debug("No config file used", "default", defaultConfigFile)
}
