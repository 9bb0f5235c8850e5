package apply

import (
	"context"
	"errors"
	"fmt"
	"time"

	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
)

// retryTransient runs op up to maxAttempts times with exponential backoff,
// retrying only errors.ErrUnavailable. Permanent failures such as
// ErrNotFound or ErrIntegrity return immediately, as does context
// cancellation between attempts.
func retryTransient(ctx context.Context, maxAttempts int, baseBackoff time.Duration, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ferrors.ErrUnavailable) {
			return lastErr
		}
	}
	return lastErr
}
