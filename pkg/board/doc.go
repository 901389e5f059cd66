// Package board talks to the image board over HTTP.
//
// Client fetches listing and detail pages as HTML and streams image payloads.
// Every request carries the configured User-Agent, is paced by an optional
// rate limiter and may be retried by a retry.Policy. Non-2xx responses become
// typed errors from pkg/errors so callers can tell a missing page from a
// server failure.
//
// The endpoints file builds the listing, page and detail URLs.
package board
