// Package retry decides whether a failed board request is attempted again.
//
// The default policy performs no retries: failures are reported to the
// caller and counted in the final summary. Raising retry.max_attempts in the
// configuration enables capped exponential backoff for network errors, 429s
// and 5xx responses.
package retry
