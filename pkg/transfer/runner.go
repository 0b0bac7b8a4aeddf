package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"redirsync/pkg/config"
	errs "redirsync/pkg/errors"
	"redirsync/pkg/logger"
	"redirsync/pkg/retry"
	"redirsync/pkg/ui"
)

// Run executes a whole operation under the bounded restart budget.
// Each pass re-enters op from its entry point, which re-reads the
// checkpoint, so a restart is indistinguishable from a freshly resumed
// run. Non-retryable errors and interrupts return immediately;
// exhausting the budget returns the last error.
func Run(ctx context.Context, cfg *config.RetryConfig, op func(context.Context) error) error {
	log := logger.GetLogger()
	backoff := &retry.ExponentialBackoff{
		BaseDelay:    cfg.BaseDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRestarts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrInterrupted) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		classified := errs.Classify(err)
		if !errs.IsRetryable(classified.Type) {
			return err
		}
		if attempt == cfg.MaxRestarts {
			break
		}

		delay := backoff.NextDelay(attempt + 1)
		if classified.Type == errs.ErrorTypeRateLimit && classified.RetryAfter > 0 {
			delay = classified.RetryAfter
		}

		log.WarnWithFields("operation failed, restarting", map[string]interface{}{
			"attempt":  attempt + 1,
			"restarts": cfg.MaxRestarts,
			"error":    err.Error(),
			"delay":    delay,
		})
		ui.PrintWarning(fmt.Sprintf("retrying in %s (press Ctrl+C to abort)", delay.Round(time.Millisecond)))

		if err := retry.Wait(ctx, delay); err != nil {
			return ErrInterrupted
		}
	}

	return fmt.Errorf("restart budget (%d) exhausted: %w", cfg.MaxRestarts, lastErr)
}
