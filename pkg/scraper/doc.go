// Package scraper runs the full download pipeline for one tag search.
//
// The Scraper wires the stages together:
//   - crawl the listing pages (pkg/crawler) and build image records
//   - plan which files to fetch against the output directory (pkg/planner)
//   - download the quality batch, then the standard batch
//     (internal/downloader)
//
// Quality downloads run first so that a standard file made redundant by a
// quality download is removed as soon as the quality file is saved. A quality
// download that fails falls back to the standard variant in the second batch.
//
// Usage:
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := s.Run(ctx, scraper.Options{Tags: "landscape", StartPage: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.Print(os.Stdout, true)
package scraper
