package redirect

import (
	"os"
	"strings"
)

// Delimiter separates fields on the CSV wire format
const Delimiter = ';'

// Header is the fixed column order of a full redirect CSV
var Header = []string{"from", "to", "type", "endDate", "binding"}

// encodedDelimiter is the percent-encoding of the delimiter character
const encodedDelimiter = "%3B"

// EscapeDelimiter percent-encodes delimiter characters occurring
// inside a path value before it is written. Values read back keep the
// encoding; there is no implicit decode on the way in.
func EscapeDelimiter(value string) string {
	return strings.ReplaceAll(value, string(Delimiter), encodedDelimiter)
}

// EncodeField wraps a field in double quotes, doubling internal quotes
func EncodeField(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// EncodeRow renders one record as a CSV line (without trailing newline).
// Every field is quote-wrapped; the path fields additionally have the
// delimiter escaped so a path can never split a row.
func EncodeRow(r Record) string {
	typ := r.Type
	if typ == "" {
		typ = TypePermanent
	}
	fields := []string{
		EncodeField(EscapeDelimiter(r.From)),
		EncodeField(EscapeDelimiter(r.To)),
		EncodeField(string(typ)),
		EncodeField(r.EndDate),
		EncodeField(r.Binding),
	}
	return strings.Join(fields, string(Delimiter))
}

// EncodeHeader renders the fixed header line (without trailing newline)
func EncodeHeader() string {
	fields := make([]string, len(Header))
	for i, name := range Header {
		fields[i] = EncodeField(name)
	}
	return strings.Join(fields, string(Delimiter))
}

// WriteKeysFile writes a delete-input CSV carrying only the from
// column, one key per row.
func WriteKeysFile(path string, keys []string) error {
	var b strings.Builder
	b.WriteString(EncodeField("from"))
	b.WriteByte('\n')
	for _, key := range keys {
		b.WriteString(EncodeField(EscapeDelimiter(key)))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
