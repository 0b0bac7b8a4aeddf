package redirect

import (
	"hash/fnv"
	"net/url"
	"sort"
	"strings"
)

// Type is the redirect kind
type Type string

const (
	TypePermanent Type = "PERMANENT"
	TypeTemporary Type = "TEMPORARY"
)

// Record is one URL-redirect rule. From and To are required; Type
// defaults to PERMANENT when absent.
type Record struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Type    Type   `json:"type"`
	EndDate string `json:"endDate,omitempty"`
	Binding string `json:"binding,omitempty"`
}

// Key returns the record's identity key, the normalized From path
func (r Record) Key() string {
	return Normalize(r.From)
}

// Normalize canonicalizes a redirect source path: lowercased,
// URI-decoded, trailing slashes stripped.
func Normalize(from string) string {
	s := strings.ToLower(strings.TrimSpace(from))
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	for strings.HasSuffix(s, "/") && len(s) > 1 {
		s = strings.TrimSuffix(s, "/")
	}
	return s
}

// KeyHash hashes a normalized key for canonical ordering. FNV-1a keeps
// the order stable across runs and platforms.
func KeyHash(normalized string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(normalized))
	return h.Sum64()
}

// SortRecords orders records by ascending hash of their normalized
// source. This is the canonical order: re-sorting the same file always
// reproduces the same batch boundaries, which is what keeps checkpoint
// batch indices meaningful across restarts. Hash collisions fall back
// to the key itself so the sort stays total.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := records[i].Key(), records[j].Key()
		hi, hj := KeyHash(ki), KeyHash(kj)
		if hi != hj {
			return hi < hj
		}
		return ki < kj
	})
}

// Keys returns the ordered identity keys of a record slice
func Keys(records []Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key()
	}
	return keys
}
