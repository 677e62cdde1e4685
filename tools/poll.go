package tools

import (
	"context"
	"fmt"
	"time"
)

// CheckFunc reports whether the awaited condition holds. A non-nil error stops
// polling immediately.
type CheckFunc = func(ctx context.Context) (bool, error)

// Poll runs check every interval until it reports done, fails, `attempts` runs
// are exhausted or ctx is cancelled. It is used for confirmation polling, not to
// retry failed calls.
func Poll(ctx context.Context, interval time.Duration, attempts int, check CheckFunc) error {
	if attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", attempts)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return fmt.Errorf("condition not met after %d attempts", attempts)
}
