package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"yandl/internal/downloader"
	"yandl/pkg/board"
	"yandl/pkg/config"
	"yandl/pkg/crawler"
	"yandl/pkg/logger"
	"yandl/pkg/parser"
	"yandl/pkg/planner"
	"yandl/pkg/progress"
	"yandl/pkg/ratelimit"
	"yandl/pkg/storage"
	"yandl/pkg/ui"
)

// ErrNoTags is returned when Run is called without a search
var ErrNoTags = errors.New("tags are required")

// Options describes one run. Zero values fall back to the configuration.
type Options struct {
	Tags      string
	StartPage int
	// EndPage 0 reads the last page from the listing
	EndPage           int
	Directory         string
	PreferQuality     bool
	Force             bool
	ParallelPages     int
	ParallelDownloads int
}

// Scraper orchestrates crawling, planning and downloading
type Scraper struct {
	client   BoardClient
	config   *config.Config
	reporter progress.Reporter
	logger   logger.Logger
}

// New creates a Scraper talking to the board configured in cfg
func New(cfg *config.Config) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.GetLogger()
	client := board.NewClientFromConfig(cfg, log)
	reporter := ui.NewReporter(os.Stdout, cfg.UI.ProgressEnabled)

	return NewWithClient(cfg, client, reporter, log), nil
}

// NewWithClient creates a Scraper with explicit collaborators
func NewWithClient(cfg *config.Config, client BoardClient, reporter progress.Reporter, log logger.Logger) *Scraper {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:   client,
		config:   cfg,
		reporter: reporter,
		logger:   log,
	}
}

func (s *Scraper) withDefaults(opts Options) Options {
	if opts.StartPage == 0 {
		opts.StartPage = 1
	}
	if opts.Directory == "" {
		opts.Directory = s.config.Output.BaseDirectory
	}
	if opts.ParallelPages == 0 {
		opts.ParallelPages = s.config.Crawl.ParallelPages
	}
	if opts.ParallelDownloads == 0 {
		opts.ParallelDownloads = s.config.Download.ConcurrentDownloads
	}
	return opts
}

// Run executes the pipeline. Per-page and per-file failures are collected in
// the Report; an error is returned only when the run cannot proceed.
func (s *Scraper) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Tags == "" {
		return nil, ErrNoTags
	}
	opts = s.withDefaults(opts)

	started := time.Now()
	listing := board.ListingURL(s.client.BaseURL(), opts.Tags)
	report := &Report{
		Tags:       opts.Tags,
		ListingURL: listing,
		Directory:  opts.Directory,
		StartPage:  opts.StartPage,
	}
	defer func() { report.Duration = time.Since(started) }()

	s.logger.InfoWithFields("Starting run", map[string]interface{}{
		"tags":           opts.Tags,
		"start_page":     opts.StartPage,
		"end_page":       opts.EndPage,
		"output":         opts.Directory,
		"prefer_quality": opts.PreferQuality,
		"force":          opts.Force,
	})

	ui.PrintMessage("Parsing pages...")
	if opts.PreferQuality {
		ui.PrintWarning("Prefer PNG images over JPG. This will increase the parsing time.")
	}

	fetcher := parser.NewPageFetcher(s.client, s.client.BaseURL(), opts.PreferQuality, s.logger)
	coord := crawler.NewCoordinator(fetcher, opts.ParallelPages, s.reporter, s.logger)
	crawl, err := coord.Crawl(ctx, listing, opts.StartPage, opts.EndPage)
	report.addCrawl(crawl)
	if err != nil {
		return report, fmt.Errorf("crawl %s: %w", listing, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Parsed %d images", len(crawl.Records)))

	store, err := storage.NewManager(opts.Directory)
	if err != nil {
		return report, err
	}

	plan, err := planner.Plan(crawl.Records, planner.Options{
		Directory:     opts.Directory,
		Force:         opts.Force,
		PreferQuality: opts.PreferQuality,
	}, store)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to remove redundant standard images")
	}
	report.addPlan(plan)

	for _, w := range plan.Warnings {
		ui.PrintWarning(w.String())
		s.logger.WarnWithFields("Existing images found", map[string]interface{}{
			"kind":      w.Kind,
			"existing":  w.Existing,
			"total":     w.Total,
			"overwrite": w.Overwrite,
		})
	}

	standard := plan.Standard
	if opts.PreferQuality {
		if len(plan.Quality) > 0 {
			ui.PrintMessage("Downloading PNG images...")
			report.Quality = s.download(ctx, opts, store, plan.Quality)
			ui.PrintSuccess("PNG images downloaded.")

			for _, f := range report.Quality.Failures {
				if fb, ok := plan.Fallback[f.Task.Filename]; ok {
					standard = append(standard, fb)
					report.Fallbacks++
				}
			}
		} else {
			ui.PrintMessage("No PNG images to download")
		}
	} else {
		ui.PrintMessage("The --prefer-png flag was not supplied. All images will be downloaded as JPG.")
	}

	if ctx.Err() == nil && len(standard) > 0 {
		ui.PrintMessage("Downloading JPG images...")
		report.Standard = s.download(ctx, opts, store, standard)
		ui.PrintSuccess("JPG images downloaded.")
	} else if len(standard) == 0 {
		ui.PrintMessage("No JPG images to download")
	}

	report.Files = store.SavedCount()
	report.Bytes = store.SavedBytes()

	ui.PrintSuccess(report.Summary())
	s.logger.InfoWithFields("Run finished", map[string]interface{}{
		"quality_downloaded":  report.Quality.Succeeded,
		"standard_downloaded": report.Standard.Succeeded,
		"failed":              report.Quality.Failed + report.Standard.Failed,
		"removed":             report.Removed + report.Quality.Removed,
		"files":               report.Files,
		"bytes":               report.Bytes,
	})

	return report, ctx.Err()
}

func (s *Scraper) download(ctx context.Context, opts Options, store *storage.Manager, tasks []planner.Task) downloader.Summary {
	pool := downloader.NewWorkerPool(opts.ParallelDownloads, s.client, store, ratelimit.Unlimited{}, s.logger)
	summary := pool.Run(ctx, tasks, s.reporter)

	for _, f := range summary.Failures {
		s.logger.WarnWithFields("Download failed", map[string]interface{}{
			"url":      f.Task.URL,
			"filename": f.Task.Filename,
			"error":    f.Err.Error(),
		})
	}
	return summary
}
