package scraper

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"yandl/internal/downloader"
	"yandl/pkg/crawler"
	"yandl/pkg/planner"
	"yandl/pkg/ui"
)

// Report summarises one run
type Report struct {
	Tags       string
	ListingURL string
	Directory  string
	StartPage  int
	EndPage    int

	PagesCrawled int
	PageFailures []crawler.PageFailure
	Images       int
	WithQuality  int

	Warnings     []planner.Warning
	Skipped      int
	Deduplicated int
	// Removed counts standard files deleted while planning
	Removed int
	// Fallbacks counts standard downloads queued after a quality failure
	Fallbacks int

	Quality  downloader.Summary
	Standard downloader.Summary
	// Files and Bytes are what the run left in Directory
	Files    int
	Bytes    int64
	Duration time.Duration
}

func (r *Report) addCrawl(res crawler.Result) {
	r.EndPage = res.EndPage
	r.PagesCrawled = res.Crawled
	r.PageFailures = res.Failures
	r.Images = len(res.Records)
	for _, rec := range res.Records {
		if rec.HasQuality() {
			r.WithQuality++
		}
	}
}

func (r *Report) addPlan(plan planner.Result) {
	r.Warnings = plan.Warnings
	r.Skipped = plan.Skipped
	r.Deduplicated = plan.Deduplicated
	r.Removed = plan.Removed
}

// Failed returns the number of failed pages and downloads
func (r *Report) Failed() int {
	return len(r.PageFailures) + r.Quality.Failed + r.Standard.Failed
}

// Summary is the one-line outcome printed after every run
func (r *Report) Summary() string {
	return fmt.Sprintf("Download complete. %d PNG images and %d JPG images have been downloaded.",
		r.Quality.Succeeded, r.Standard.Succeeded)
}

// Print writes the report to w. Detailed adds per-stage counts and every
// failure.
func (r *Report) Print(w io.Writer, detailed bool) {
	fmt.Fprintln(w, ui.Green(r.Summary()))
	if failed := r.Failed(); failed > 0 {
		fmt.Fprintln(w, ui.Yellow(fmt.Sprintf("%d pages or files failed.", failed)))
	}
	if !detailed {
		return
	}

	row := func(label string, value string) {
		fmt.Fprintf(w, "  %-24s %s\n", ui.Cyan(label), value)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.Magenta("Report"))
	row("Tags", r.Tags)
	row("Output", r.Directory)
	row("Pages", fmt.Sprintf("%d-%d", r.StartPage, r.EndPage))
	row("Pages crawled", strconv.Itoa(r.PagesCrawled))
	row("Pages failed", strconv.Itoa(len(r.PageFailures)))
	row("Images found", strconv.Itoa(r.Images))
	row("With PNG variant", strconv.Itoa(r.WithQuality))
	row("Skipped (existing)", strconv.Itoa(r.Skipped))
	row("JPG replaced by PNG", strconv.Itoa(r.Deduplicated))
	row("Redundant JPG removed", strconv.Itoa(r.Removed+r.Quality.Removed))
	row("PNG downloaded", fmt.Sprintf("%d/%d", r.Quality.Succeeded, r.Quality.Total))
	row("JPG downloaded", fmt.Sprintf("%d/%d", r.Standard.Succeeded, r.Standard.Total))
	if r.Fallbacks > 0 {
		row("JPG fallbacks", strconv.Itoa(r.Fallbacks))
	}
	row("Files written", strconv.Itoa(r.Files))
	row("Bytes", strconv.FormatInt(r.Bytes, 10))
	row("Duration", r.Duration.Round(time.Millisecond).String())

	if r.Failed() == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.Red("Failures"))
	for _, f := range r.PageFailures {
		fmt.Fprintf(w, "  %s\n", f.Error())
	}
	for _, batch := range [][]downloader.Failure{r.Quality.Failures, r.Standard.Failures} {
		for _, f := range batch {
			fmt.Fprintf(w, "  %s (%s): %v\n", f.Task.Filename, f.Task.URL, f.Err)
		}
	}
}
