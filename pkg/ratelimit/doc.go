// Package ratelimit paces outbound API requests client-side so the
// sync stays under the remote's request budget instead of discovering
// it through 429 responses.
package ratelimit
