package transfer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"redirsync/pkg/config"
	errs "redirsync/pkg/errors"
)

func runnerConfig() *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		MaxRestarts: 2,
	}
}

func TestRunSucceedsAfterRestarts(t *testing.T) {
	calls := 0
	err := Run(context.Background(), runnerConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, "flaky")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 invocations, got %d", calls)
	}
}

func TestRunStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Run(context.Background(), runnerConfig(), func(ctx context.Context) error {
		calls++
		return errs.New(errs.ErrorTypeValidation, "bad input")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("validation failure must not be restarted, got %d calls", calls)
	}
}

func TestRunStopsOnInterrupt(t *testing.T) {
	calls := 0
	err := Run(context.Background(), runnerConfig(), func(ctx context.Context) error {
		calls++
		return ErrInterrupted
	})

	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if calls != 1 {
		t.Errorf("interrupt must not be restarted, got %d calls", calls)
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	calls := 0
	err := Run(context.Background(), runnerConfig(), func(ctx context.Context) error {
		calls++
		return errs.New(errs.ErrorTypeServer, "still down")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected initial run plus 2 restarts, got %d calls", calls)
	}
	if !strings.Contains(err.Error(), "restart budget (2) exhausted") {
		t.Errorf("unexpected message: %v", err)
	}
	// The last underlying failure stays inspectable.
	if errs.Classify(err).Type != errs.ErrorTypeServer {
		t.Errorf("expected server_error through wrapper, got %v", err)
	}
}

func TestRunHonorsRateLimitDelay(t *testing.T) {
	cfg := runnerConfig()
	cfg.BaseDelay = time.Hour // would hang if the schedule were used

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), cfg, func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429, RetryAfter: 10 * time.Millisecond}
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("rate-limit delay was not taken verbatim")
	}
}

func TestRunCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := runnerConfig()
	cfg.BaseDelay = time.Minute
	cfg.MaxDelay = time.Minute

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Run(ctx, cfg, func(ctx context.Context) error {
		return errs.New(errs.ErrorTypeNetwork, "down")
	})

	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation should cut the backoff wait short")
	}
}
