package util

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetryUntilSuccessStopsOnSuccess(t *testing.T) {
	attempts := 0
	failures := 0
	RetryUntilSuccess(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	}, func(err error) {
		failures++
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, failures)
}

func TestRetryUntilSuccessStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	RetryUntilSuccess(ctx, func() error {
		called = true
		return errors.New("never succeeds")
	}, func(err error) {})

	assert.False(t, called)
}
