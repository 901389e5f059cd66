// Package crawler walks a range of listing pages concurrently and collects
// the image records found on them.
package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"yandl/pkg/board"
	"yandl/pkg/logger"
	"yandl/pkg/parser"
	"yandl/pkg/progress"
	"yandl/pkg/records"
)

// CounterLabel is the label of the crawl progress counter
const CounterLabel = "Parsing pages"

// PageSource fetches listing pages and their page count
type PageSource interface {
	Fetch(ctx context.Context, pageURL string) ([]parser.RawPost, error)
	ResolveLastPage(ctx context.Context, listingURL string) (int, error)
}

// PageFailure records a page that could not be fetched or parsed
type PageFailure struct {
	Page int
	URL  string
	Err  error
}

func (f PageFailure) Error() string {
	return fmt.Sprintf("page %d (%s): %v", f.Page, f.URL, f.Err)
}

// Result is the outcome of a crawl. Records are in page completion order.
type Result struct {
	StartPage int
	EndPage   int
	Crawled   int
	Records   []records.ImageRecord
	Failures  []PageFailure
}

// Coordinator crawls pages with bounded parallelism
type Coordinator struct {
	source   PageSource
	parallel int
	reporter progress.Reporter
	logger   logger.Logger
}

// NewCoordinator creates a Coordinator running at most parallel page
// fetches at once.
func NewCoordinator(source PageSource, parallel int, reporter progress.Reporter, log logger.Logger) *Coordinator {
	if parallel < 1 {
		parallel = 1
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Coordinator{
		source:   source,
		parallel: parallel,
		reporter: reporter,
		logger:   log.WithField("component", "crawler"),
	}
}

type pageOutcome struct {
	page  int
	url   string
	posts []parser.RawPost
	err   error
}

// Crawl fetches pages start..end of listingURL. An end of 0 means the last
// page is read from the listing's pagination; failing to read it is fatal.
// A failing page is recorded in Result.Failures and does not stop the
// others.
func (c *Coordinator) Crawl(ctx context.Context, listingURL string, start, end int) (Result, error) {
	if start < 1 {
		return Result{}, fmt.Errorf("start page must be at least 1, got %d", start)
	}
	if end < 0 {
		return Result{}, fmt.Errorf("end page must not be negative, got %d", end)
	}

	if end == 0 {
		last, err := c.source.ResolveLastPage(ctx, listingURL)
		if err != nil {
			return Result{}, fmt.Errorf("resolve last page: %w", err)
		}
		end = last
	}

	res := Result{StartPage: start, EndPage: end}
	if end < start {
		c.logger.WarnWithFields("end page is before start page, nothing to crawl", map[string]interface{}{
			"start_page": start,
			"end_page":   end,
		})
		return res, nil
	}

	counter := progress.NewCounter(CounterLabel, end-start+1)
	c.reporter.Start(*counter)
	logger.LogComponentStart(c.logger, "crawler", map[string]interface{}{
		"listing":  listingURL,
		"pages":    counter.Total,
		"parallel": c.parallel,
	})

	outcomes := make(chan pageOutcome, c.parallel)
	go func() {
		var g errgroup.Group
		g.SetLimit(c.parallel)
		for page := start; page <= end; page++ {
			url := board.PageURL(listingURL, page)
			g.Go(func() error {
				posts, err := c.source.Fetch(ctx, url)
				outcomes <- pageOutcome{page: page, url: url, posts: posts, err: err}
				return nil
			})
		}
		g.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		if o.err != nil {
			c.logger.WarnWithFields("page failed", map[string]interface{}{
				"page":  o.page,
				"url":   o.url,
				"error": o.err.Error(),
			})
			res.Failures = append(res.Failures, PageFailure{Page: o.page, URL: o.url, Err: o.err})
		} else {
			res.Crawled++
			res.Records = append(res.Records, records.BuildAll(o.posts)...)
			c.logger.DebugWithFields("page parsed", map[string]interface{}{
				"page":  o.page,
				"posts": len(o.posts),
			})
		}

		counter.Advance()
		c.reporter.Update(*counter)
	}
	c.reporter.Finish(*counter)

	c.logger.InfoWithFields("crawl finished", map[string]interface{}{
		"pages":   res.Crawled,
		"failed":  len(res.Failures),
		"records": len(res.Records),
	})

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
