package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mgaq/internal/config"
	"mgaq/internal/errors"
	"mgaq/internal/slogutil"
	"mgaq/internal/version"
)

var (
	configPath string
	verbosity  int
	quiet      bool

	// Populated by the root pre-run hook for every subcommand.
	cfg    *config.Config
	logger *slog.Logger

	logFile *os.File
	// exitStatus lets a successful command request a non-zero exit.
	exitStatus int
)

var rootCmd = &cobra.Command{
	Use:   "mgaq",
	Short: "mgaq - Microsoft Graph Advanced Query advisor",
	Long: `mgaq inspects PowerShell command lines, scripts and Microsoft Graph error
responses and reports the Graph commands that need the -CountVariable and
-ConsistencyLevel Eventual advanced query parameters.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate("mgaq version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: .mgaq/config.json in the working directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress all log output")
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	exitStatus = 0

	loaded, err := loadConfig()
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to load configuration", err)
	}
	cfg = loaded

	// Flags only adjust the console; the log file follows logging.level.
	fileLevel := slogutil.LevelFromString(cfg.Logging.Level)
	level := fileLevel
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}

	handler := slogutil.NewHandler(cmd.ErrOrStderr(), cfg.Logging.Format, level)
	if cfg.Logging.File != "" {
		fileHandler, f, err := slogutil.NewFileHandler(cfg.Logging.File, cfg.Logging.Format, fileLevel)
		if err != nil {
			return errors.New(errors.ConfigInvalid, "failed to open log file "+cfg.Logging.File, err)
		}
		closeLogFile()
		logFile = f
		handler = slogutil.NewTeeHandler(handler, fileHandler)
	}
	logger = slog.New(handler)
	logger.Debug("Configuration loaded", "config", configPath, "level", level.String())
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFile(configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(wd)
}

func closeLogFile() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
