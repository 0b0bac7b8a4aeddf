// Package retry wraps single network calls with bounded retries and
// configurable backoff. Retryability is decided by the error taxonomy
// in pkg/errors; rate-limited calls wait the server-dictated delay
// while other retryable failures follow an exponential schedule with
// jitter. Waits are context-aware so an interrupt cancels a pending
// backoff sleep immediately.
package retry
