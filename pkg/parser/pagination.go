package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrMalformedPagination is returned when the pagination control exists but
// its page count cannot be read.
var ErrMalformedPagination = errors.New("malformed pagination")

// LastPage reads the last page number from a listing document. The control
// ends with a "next" link, so the page count is the second-to-last anchor.
// A listing without pagination has a single page.
func LastPage(doc *goquery.Document) (int, error) {
	pagination := doc.Find("div.pagination").First()
	if pagination.Length() == 0 {
		return 1, nil
	}

	anchors := pagination.Find("a")
	switch n := anchors.Length(); {
	case n == 0:
		return 1, nil
	case n < 2:
		return 0, fmt.Errorf("%w: only %d link", ErrMalformedPagination, n)
	}

	text := strings.TrimSpace(anchors.Eq(anchors.Length() - 2).Text())
	page, err := strconv.Atoi(text)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: page link %q", ErrMalformedPagination, text)
	}
	return page, nil
}

// ResolveLastPage fetches the first listing page and reads its page count
func (pf *PageFetcher) ResolveLastPage(ctx context.Context, listingURL string) (int, error) {
	doc, err := pf.document(ctx, listingURL)
	if err != nil {
		return 0, err
	}

	last, err := LastPage(doc)
	if err != nil {
		return 0, err
	}

	pf.logger.DebugWithFields("resolved last page", map[string]interface{}{
		"url":       listingURL,
		"last_page": last,
	})
	return last, nil
}
