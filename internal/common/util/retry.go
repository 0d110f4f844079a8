package util

import "context"

// RetryUntilSuccess keeps calling performAction until it succeeds or the
// context is cancelled, reporting each failure to onError.
func RetryUntilSuccess(ctx context.Context, performAction func() error, onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := performAction()
			if err == nil {
				return
			}
			onError(err)
		}
	}
}
