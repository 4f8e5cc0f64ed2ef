// Package retry runs fallible remote calls a fixed number of times with a
// fixed pause between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/fl-bidder/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 5 * time.Second
)

var sleep = utils.WaitFor

// Policy configures how many times an operation is attempted and how long to
// wait between attempts.
type Policy struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

// DefaultPolicy returns three attempts five seconds apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// ExhaustedError is returned once every attempt of an operation failed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed executing %q after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do executes fn up to p.Attempts times. Failed attempts are logged with their
// index and followed by a pause of p.Delay while attempts remain.
func Do[T any](ctx context.Context, logger *zap.Logger, op string, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		logger.Warn("operation attempt failed",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		if attempt == attempts {
			break
		}

		logger.Debug("waiting before retry", zap.String("operation", op), zap.Duration("delay", p.Delay))
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, fmt.Errorf("waiting to retry %s: %w", op, err)
		}
	}

	return zero, &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}
