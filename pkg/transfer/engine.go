package transfer

import (
	"context"
	"errors"
	"os"
	"time"

	"redirsync/pkg/checkpoint"
	"redirsync/pkg/config"
	"redirsync/pkg/logger"
	"redirsync/pkg/retry"
)

// ErrInterrupted marks a run stopped by an interrupt signal after its
// checkpoint was persisted.
var ErrInterrupted = errors.New("operation interrupted")

// Engine drives the export, import and delete workflows: batching,
// pagination, the concurrency window, checkpoint save points and
// interrupt handling.
type Engine struct {
	client  RemoteClient
	store   *checkpoint.Store
	cfg     *config.Config
	confirm ConfirmResume
	logger  logger.Logger
}

// New creates a transfer engine. A nil confirm defaults to resuming
// without asking.
func New(client RemoteClient, store *checkpoint.Store, cfg *config.Config, confirm ConfirmResume) *Engine {
	if confirm == nil {
		confirm = AlwaysResume
	}
	return &Engine{
		client:  client,
		store:   store,
		cfg:     cfg,
		confirm: confirm,
		logger:  logger.GetLogger(),
	}
}

// fingerprint identifies one logical run for checkpoint lookup. The
// file content participates for import/delete so an edited file starts
// fresh instead of resuming against stale batch boundaries; export
// fingerprints on the path alone since the file is the output.
func (e *Engine) fingerprint(path string, content []byte) string {
	return checkpoint.Fingerprint(e.cfg.API.Account, e.cfg.API.Workspace, path, content)
}

// retryConfig builds the per-call retry policy from configuration
func (e *Engine) retryConfig(ctx context.Context) *retry.Config {
	return &retry.Config{
		MaxAttempts: e.cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    e.cfg.Retry.BaseDelay,
			MaxDelay:     e.cfg.Retry.MaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  e.logger,
	}
}

// interrupted reports whether the context was cancelled by the
// interrupt signal (as opposed to a fetch deadline)
func interrupted(ctx context.Context) bool {
	return ctx.Err() == context.Canceled
}

// readFingerprintContent loads the input file bytes for fingerprinting.
// Missing files surface as filesystem errors at read time instead.
func readFingerprintContent(path string) []byte {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return content
}

// waitPoll is the drain-completion poll interval
const waitPoll = 25 * time.Millisecond
