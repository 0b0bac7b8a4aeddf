package errors

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// fsErrnoMessages is a best-effort errno -> operator message lookup for
// filesystem failures. Anything not listed still classifies as a
// filesystem error, just with the raw message.
var fsErrnoMessages = map[syscall.Errno]string{
	syscall.ENOSPC: "no space left on device",
	syscall.EACCES: "permission denied",
	syscall.EPERM:  "operation not permitted",
	syscall.EMFILE: "too many open files",
	syscall.ENFILE: "file table overflow",
	syscall.ENOENT: "no such file or directory",
	syscall.EROFS:  "read-only file system",
	syscall.EISDIR: "target is a directory",
	syscall.EDQUOT: "disk quota exceeded",
	syscall.EFBIG:  "file too large",
}

// Classify maps an arbitrary error onto the taxonomy. Errors that are
// already classified pass through untouched so classification survives
// wrapping through the retry layers.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	// Network first: connection errnos like ECONNRESET would otherwise
	// match the generic errno lookup below.
	if netErr := classifyNetwork(err); netErr != nil {
		return netErr
	}

	if fsErr := classifyFilesystem(err); fsErr != nil {
		return fsErr
	}

	return &Error{Type: ErrorTypeUnknown, Message: err.Error(), Err: err}
}

// FromStatusCode classifies an HTTP response status. The header set is
// consulted for Retry-After on 429 responses.
func FromStatusCode(code int, header http.Header, body string) *Error {
	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch {
	case code == http.StatusTooManyRequests:
		return &Error{
			Type:       ErrorTypeRateLimit,
			Message:    msg,
			Code:       code,
			RetryAfter: ParseRetryAfter(header.Get("Retry-After")),
		}
	case code >= 500:
		return &Error{Type: ErrorTypeServer, Message: msg, Code: code}
	case code >= 400:
		return &Error{Type: ErrorTypeClient, Message: msg, Code: code}
	default:
		return &Error{Type: ErrorTypeUnknown, Message: msg, Code: code}
	}
}

// ParseRetryAfter converts a Retry-After header value to a duration.
// Both forms are accepted: delay in whole seconds, and an HTTP-date.
// Unparseable values yield zero, letting the caller fall back to
// exponential backoff.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}

	return 0
}

func classifyFilesystem(err error) *Error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		msg, ok := fsErrnoMessages[errno]
		if !ok {
			msg = errno.Error()
		}
		return &Error{Type: ErrorTypeFilesystem, Message: msg, Err: err}
	}

	// Path errors that carry no errno (rare, but fs.ErrNotExist style
	// sentinels can surface without one).
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &Error{Type: ErrorTypeFilesystem, Message: pathErr.Error(), Err: err}
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrClosed) {
		return &Error{Type: ErrorTypeFilesystem, Message: err.Error(), Err: err}
	}

	return nil
}

func classifyNetwork(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		msg := "network error: " + netErr.Error()
		if netErr.Timeout() {
			msg = "network timeout: " + netErr.Error()
		}
		return &Error{Type: ErrorTypeNetwork, Message: msg, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Type: ErrorTypeNetwork, Message: "dns failure: " + dnsErr.Error(), Err: err}
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrorTypeNetwork, Message: "connection error: " + err.Error(), Err: err}
	}

	return nil
}
