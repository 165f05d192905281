package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spatialhue/lightcontrol/internal/config"
)

var (
	// Global flags
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "lightcontrol",
	Short: "Gesture driven control of spatially anchored lights",
	Long: `lightcontrol - place markers bound to lights and drive them with gestures.

Records bind an anchor in the room to a light or a light group on the bridge.
Recorded sessions (JSON lines of hand samples, device poses and inputs) can be
replayed against the whole control core.

Configuration is read from ` + config.FileName + ` in the config directory.
Missing files fall back to the defaults.

Examples:
  # Pair with the bridge, then list what it controls
  lightcontrol register --bridge 192.168.1.2 --save
  lightcontrol lights

  # Manage records
  lightcontrol place light "Desk lamp" --pos 0.5,1.2,-1
  lightcontrol records
  lightcontrol remove 6ba7b810

  # Replay a recorded session without touching the bridge
  lightcontrol replay session.jsonl --dry-run`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configDir, "config-dir", ".", "directory containing "+config.FileName)
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("logs-dir", "", "directory for log files")
	pf.String("storage", "", "storage backend (json, sqlite, badger, postgres, memory)")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	pf := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("logLevel", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logsDir", pf.Lookup("logs-dir"))
	_ = viper.BindPFlag("storage.type", pf.Lookup("storage"))

	configLoadErr = config.Load(configDir)
}

// requireConfig reports a config file that exists but could not be read.
// A missing file leaves the defaults in place.
func requireConfig() error {
	if configLoadErr == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(configLoadErr, &notFound) {
		return nil
	}
	return fmt.Errorf("config not available: %w", configLoadErr)
}
