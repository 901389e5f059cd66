package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"yandl/pkg/board"
	errs "yandl/pkg/errors"
	"yandl/pkg/logger"
)

const (
	postListSelector   = "ul#post-list-posts"
	directLinkSelector = "a.directlink"
	thumbSelector      = "a.thumb"
	qualitySelector    = "a#png"
)

// RawPost is one listing entry as found on the page
type RawPost struct {
	DirectURL string
	ThumbURL  string
	// QualityURL is empty when the post has no quality variant
	QualityURL string
}

// HasQuality reports whether a quality link was found
func (p RawPost) HasQuality() bool {
	return p.QualityURL != ""
}

// PageFetcher retrieves listing pages and extracts their posts
type PageFetcher struct {
	fetcher       board.Fetcher
	baseURL       string
	preferQuality bool
	logger        logger.Logger
}

// NewPageFetcher creates a PageFetcher. Relative links are resolved against
// baseURL.
func NewPageFetcher(fetcher board.Fetcher, baseURL string, preferQuality bool, log logger.Logger) *PageFetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PageFetcher{
		fetcher:       fetcher,
		baseURL:       baseURL,
		preferQuality: preferQuality,
		logger:        log.WithField("component", "parser"),
	}
}

// Fetch downloads pageURL and returns its posts in page order. A page
// without a post list yields an empty slice.
func (pf *PageFetcher) Fetch(ctx context.Context, pageURL string) ([]RawPost, error) {
	doc, err := pf.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	list := doc.Find(postListSelector).First()
	if list.Length() == 0 {
		pf.logger.DebugWithFields("no post list on page", map[string]interface{}{"url": pageURL})
		return []RawPost{}, nil
	}

	posts := make([]RawPost, 0, list.Find("li").Length())
	list.Find("li").Each(func(i int, li *goquery.Selection) {
		href, ok := li.Find(directLinkSelector).First().Attr("href")
		if !ok || href == "" {
			pf.logger.WarnWithFields("post without direct link skipped", map[string]interface{}{
				"url":   pageURL,
				"index": i,
			})
			return
		}

		direct, err := board.ResolveURL(pf.baseURL, href)
		if err != nil {
			pf.logger.WarnWithFields("post with invalid direct link skipped", map[string]interface{}{
				"url":   pageURL,
				"href":  href,
				"error": err.Error(),
			})
			return
		}

		post := RawPost{DirectURL: direct}
		if thumb, ok := li.Find(thumbSelector).First().Attr("href"); ok && thumb != "" {
			if resolved, err := board.ResolveURL(pf.baseURL, thumb); err == nil {
				post.ThumbURL = resolved
			}
		}

		if pf.preferQuality && post.ThumbURL != "" {
			post.QualityURL = pf.qualityLink(ctx, post.ThumbURL)
		}
		posts = append(posts, post)
	})

	return posts, nil
}

// qualityLink looks up the a#png link on a detail page. Any failure means
// the post has no quality variant.
func (pf *PageFetcher) qualityLink(ctx context.Context, detailURL string) string {
	doc, err := pf.document(ctx, detailURL)
	if err != nil {
		pf.logger.WarnWithFields("detail page lookup failed", map[string]interface{}{
			"url":   detailURL,
			"error": err.Error(),
		})
		return ""
	}

	href, ok := doc.Find(qualitySelector).First().Attr("href")
	if !ok || href == "" {
		return ""
	}

	resolved, err := board.ResolveURL(pf.baseURL, href)
	if err != nil {
		pf.logger.WarnWithFields("invalid quality link", map[string]interface{}{
			"url":   detailURL,
			"href":  href,
			"error": err.Error(),
		})
		return ""
	}
	return resolved
}

func (pf *PageFetcher) document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := pf.fetcher.FetchPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse HTML: %v", err),
			URL:     url,
			Err:     err,
		}
	}
	return doc, nil
}
