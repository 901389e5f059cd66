package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"yandl/pkg/config"
	"yandl/pkg/logger"
	"yandl/pkg/scraper"
	"yandl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool

	// Download flags
	tags              string
	outputDir         string
	startPage         int
	endPage           int
	preferPNG         bool
	parallelDownloads int
	parallelPages     int
	report            bool
	force             bool
)

// rootCmd crawls a tag search and downloads its images
var rootCmd = &cobra.Command{
	Use:   "yandl --tags <tags>",
	Short: "Download images from a yande.re tag search",
	Long: `yandl crawls the search results for a set of tags on yande.re and
downloads every image to a local directory.

Files that already exist are skipped unless --force is given. With
--prefer-png the PNG version of a post is downloaded instead of the JPG
when one is available, and a JPG made redundant by its PNG is removed.`,
	Example: `  yandl -t "landscape sky" -o ./sky
  yandl -t landscape -s 2 -e 5 --prefer-png -p 8
  yandl -t landscape --report --force`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logs would tear the progress bar apart, so they are limited to
		// errors unless verbose output or a level was asked for.
		if !verbose && !cmd.Flags().Changed("log-level") {
			logLevel = "error"
		}

		if noColor {
			ui.SetColor(false)
		}
		if quiet {
			ui.SetOutput(io.Discard)
		}

		if cmd == cmd.Root() && verbose {
			ui.PrintLogo()
		}
	},
	Run: runDownload,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.yandl.yaml or ~/.config/yandl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show logs instead of progress bars")

	// Download flags
	rootCmd.Flags().StringVarP(&tags, "tags", "t", "", "tags to search for (required)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "output directory")
	rootCmd.Flags().IntVarP(&startPage, "start-page", "s", 1, "first listing page to crawl")
	rootCmd.Flags().IntVarP(&endPage, "end-page", "e", 0, "last listing page to crawl (0 = last page of the search)")
	rootCmd.Flags().BoolVar(&preferPNG, "prefer-png", false, "download the PNG version of a post when available")
	rootCmd.Flags().IntVarP(&parallelDownloads, "parallel-downloads", "p", 4, "number of parallel downloads")
	rootCmd.Flags().IntVar(&parallelPages, "parallel-pages", 1, "number of listing pages fetched in parallel")
	rootCmd.Flags().BoolVarP(&report, "report", "r", false, "print a detailed report when done")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "download files even if they already exist")
	rootCmd.MarkFlagRequired("tags")

	// Version template
	rootCmd.SetVersionTemplate(`yandl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// commandLineFlags collects the flags the user actually set, so config file
// and environment values are not overridden by flag defaults.
func commandLineFlags(cmd *cobra.Command) map[string]interface{} {
	flags := map[string]interface{}{
		"log-level": logLevel,
	}
	if noColor {
		flags["no-color"] = true
	}

	set := cmd.Flags().Changed
	if set("output") {
		flags["output"] = outputDir
	}
	if set("parallel-downloads") {
		flags["parallel-downloads"] = parallelDownloads
	}
	if set("parallel-pages") {
		flags["parallel-pages"] = parallelPages
	}
	if set("prefer-png") {
		flags["prefer-png"] = preferPNG
	}
	if set("report") {
		flags["report"] = report
	}
	if set("force") {
		flags["force"] = force
	}
	return flags
}

func runDownload(cmd *cobra.Command, args []string) {
	if startPage < 1 {
		ui.PrintError("Invalid start page", startPage)
		os.Exit(1)
	}
	if endPage < 0 {
		ui.PrintError("Invalid end page", endPage)
		os.Exit(1)
	}

	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if !cfg.UI.ColorEnabled {
		ui.SetColor(false)
	}
	if verbose || quiet {
		cfg.UI.ProgressEnabled = false
	}

	if err := logger.InitializeWithOptions(&cfg.Logging, logger.Options{NoColor: !cfg.UI.ColorEnabled}); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("yandl starting")

	ui.PrintInfo("Tags", tags)
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize downloader", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := s.Run(ctx, scraper.Options{
		Tags:          tags,
		StartPage:     startPage,
		EndPage:       endPage,
		Directory:     cfg.Output.BaseDirectory,
		PreferQuality: cfg.Crawl.PreferQuality,
		Force:         cfg.Output.OverwriteExisting,
	})
	if err != nil {
		logger.WithError(err).WithField("tags", tags).Error("Download failed")
		ui.PrintError("Download failed", err.Error())
		stop()
		os.Exit(1)
	}

	if cfg.UI.Report {
		fmt.Fprintln(ui.Output())
		result.Print(ui.Output(), true)
	} else if failed := result.Failed(); failed > 0 {
		ui.PrintWarning(fmt.Sprintf("%d pages or files failed. Run with --report for details.", failed))
	}
}
