// Package ratelimit paces outgoing requests to the image board.
//
// Limiters are built from RateLimitConfig: a positive requests-per-minute
// value yields a token bucket (golang.org/x/time/rate) with the configured
// burst, zero yields Unlimited. Pacing is opt-in; the crawl already keeps its
// own concurrency low.
package ratelimit
