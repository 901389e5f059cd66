package board

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the default board origin
	BaseURL = "https://yande.re"

	// ListingEndpoint is the search results path
	ListingEndpoint = "/post"
)

// ListingURL builds the search listing URL for the given tags
func ListingURL(base, tags string) string {
	base = strings.TrimRight(base, "/")
	params := url.Values{}
	params.Set("tags", tags)
	return fmt.Sprintf("%s%s?%s", base, ListingEndpoint, params.Encode())
}

// PageURL appends the page parameter to a listing URL, using "&" when the
// listing already carries a query string.
func PageURL(listing string, page int) string {
	sep := "?"
	if strings.Contains(listing, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", listing, sep, page)
}

// ResolveURL resolves href against base. Absolute hrefs are returned
// untouched so their percent-encoding survives.
func ResolveURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if ref.IsAbs() {
		return href, nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}
