package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	errs "yandl/pkg/errors"
	"yandl/pkg/config"
)

func TestNoRetryRunsOnce(t *testing.T) {
	calls := 0
	err := NoRetry().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.Network("u", errors.New("reset"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetriesRetryableErrors(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	calls := 0
	var retried []int
	p.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errs.FromStatus(503, "u")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.FromStatus(500, "u")
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
}

func TestDoesNotRetryPermanentErrors(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errs.FromStatus(404, "u")
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, errs.ErrorTypeNotFound, errs.TypeOf(err))
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.DefaultConfig().Retry)
	assert.Equal(t, 0, p.MaxAttempts)
	assert.NotNil(t, p.RetryIf)
}
