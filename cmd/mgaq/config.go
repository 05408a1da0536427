package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"mgaq/internal/config"
	"mgaq/internal/errors"
)

var (
	configFormat    string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mgaq configuration",
	Long:  "View and manage mgaq configuration stored in .mgaq/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after defaults, the config file and
MGAQ_* environment overrides are applied.

Examples:
  mgaq config show
  mgaq config show --format json
  mgaq config show --format toml > mgaq.toml
  MGAQ_SCAN_CONCURRENCY=8 mgaq config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long:  "Write the default configuration to .mgaq/config.json in the working directory",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (json, toml, human)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch OutputFormat(configFormat) {
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case FormatHuman:
		outputConfigHuman(out, cfg)
		return nil
	default:
		return errors.Errorf(errors.InvalidInput, "unsupported format: %s", configFormat)
	}
}

func outputConfigHuman(w io.Writer, c *config.Config) {
	defaults := config.DefaultConfig()

	fmt.Fprintln(w, "mgaq Configuration")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	if configPath != "" {
		fmt.Fprintf(w, "Source: %s\n", configPath)
	}
	fmt.Fprintln(w)

	printConfigSection(w, "version", c.Version, defaults.Version)

	fmt.Fprintln(w, "\nlogging:")
	printConfigSection(w, "  format", c.Logging.Format, defaults.Logging.Format)
	printConfigSection(w, "  level", c.Logging.Level, defaults.Logging.Level)
	printConfigSection(w, "  file", valueOrDefault(c.Logging.File, "(none)"), "(none)")

	fmt.Fprintln(w, "\noutput:")
	printConfigSection(w, "  format", c.Output.Format, defaults.Output.Format)

	fmt.Fprintln(w, "\nscan:")
	printConfigSection(w, "  extensions", strings.Join(c.Scan.Extensions, ","), strings.Join(defaults.Scan.Extensions, ","))
	printConfigSection(w, "  ignore", strings.Join(c.Scan.Ignore, ","), strings.Join(defaults.Scan.Ignore, ","))
	printConfigSection(w, "  concurrency", c.Scan.Concurrency, defaults.Scan.Concurrency)
	printConfigSection(w, "  maxFileSizeBytes", c.Scan.MaxFileSizeBytes, defaults.Scan.MaxFileSizeBytes)
}

func printConfigSection(w io.Writer, name string, value, defaultValue interface{}) {
	modified := ""
	if fmt.Sprint(value) != fmt.Sprint(defaultValue) {
		modified = fmt.Sprintf(" (default: %v)", defaultValue)
	}
	fmt.Fprintf(w, "%s: %v%s\n", name, value, modified)
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	path := config.Path(wd)
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.Errorf(errors.InvalidInput, "%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(wd); err != nil {
		return errors.New(errors.ConfigInvalid, "failed to write configuration", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
