package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
	errs "yandl/pkg/errors"
	"yandl/pkg/config"
)

// Operation is one attempt of a request
type Operation func(ctx context.Context) error

// Policy holds retry configuration
type Policy struct {
	// MaxAttempts is the number of retries after the first attempt
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RetryIf reports whether an error is worth another attempt
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error)
}

// NoRetry returns a policy that runs the operation exactly once
func NoRetry() Policy {
	return Policy{}
}

// FromConfig builds a Policy from RetryConfig
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
		RetryIf:     errs.Retryable,
	}
}

// Do runs op, retrying per the policy. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, op Operation) error {
	if p.MaxAttempts <= 0 {
		return op(ctx)
	}

	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = errs.Retryable
	}

	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	backoff := goretry.NewExponential(base)
	if p.MaxDelay > 0 {
		backoff = goretry.WithCappedDuration(p.MaxDelay, backoff)
	}
	backoff = goretry.WithMaxRetries(uint64(p.MaxAttempts), backoff)

	attempt := 0
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryIf(err) {
			return err
		}
		if p.OnRetry != nil && attempt <= p.MaxAttempts {
			p.OnRetry(attempt, err)
		}
		return goretry.RetryableError(err)
	})
}
