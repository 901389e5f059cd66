package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"yandl/pkg/config"
	"yandl/pkg/ui"
)

const exampleConfig = `# yandl configuration file
#
# Environment variables prefixed with YANDL_ override these values,
# for example YANDL_OUTPUT_DIR or YANDL_PARALLEL_DOWNLOADS.
# Command line flags override both.

board:
  base_url: "https://yande.re"
  # Defaults to a desktop browser user agent
  # user_agent: "Mozilla/5.0 ..."
  request_timeout: 30s

crawl:
  # Listing pages fetched at once. Keep this low to be polite.
  parallel_pages: 1
  # Look up the PNG version of every post (one extra request per post)
  prefer_quality: false

download:
  concurrent_downloads: 4
  download_timeout: 5m

output:
  base_directory: "./output"
  # Download files even if they already exist
  overwrite_existing: false

rate_limit:
  # 0 disables request pacing
  requests_per_minute: 0
  burst_size: 1

retry:
  # 0 reports failures without retrying them
  max_attempts: 0
  base_delay: 1s
  max_delay: 30s

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file, written in JSON
  file: ""

ui:
  color_enabled: true
  progress_enabled: true
  # Print a detailed report after every run
  report: false
`

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage yandl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (YANDL_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.yandl.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging the configuration file,
environment variables and defaults.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".yandl.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			os.Exit(1)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file")
	fmt.Println("2. Run 'yandl config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'yandl --tags <tags>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (YANDL_*)")
	if path := resolveConfigPath(); path != "" {
		fmt.Printf("3. Configuration file: %s\n", path)
	} else {
		fmt.Println("3. Configuration file: (none found)")
	}
	fmt.Println("4. Default values")
}

// resolveConfigPath returns --config or the first existing search path
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	for _, path := range config.SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := resolveConfigPath()
	if path == "" {
		ui.PrintError("No configuration file found", "Specify a file with --config flag")
		os.Exit(1)
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	problems := []string{}

	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if cfg.Crawl.ParallelPages > 3 {
		warnings = append(warnings, "parallel_pages above 3 may get you throttled by the board")
	}
	if cfg.Crawl.PreferQuality && cfg.RateLimit.RequestsPerMinute == 0 {
		warnings = append(warnings, "prefer_quality doubles page requests; consider rate_limit.requests_per_minute")
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Parallel pages: %d\n", cfg.Crawl.ParallelPages)
	fmt.Printf("  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
