package redirect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeRow(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name:   "full record",
			record: Record{From: "/old", To: "/new", Type: TypeTemporary, EndDate: "2026-12-31", Binding: "site-a"},
			want:   `"/old";"/new";"TEMPORARY";"2026-12-31";"site-a"`,
		},
		{
			name:   "type defaults to permanent",
			record: Record{From: "/old", To: "/new"},
			want:   `"/old";"/new";"PERMANENT";"";""`,
		},
		{
			name:   "delimiter in path is percent-encoded",
			record: Record{From: "/a;b", To: "/c;d", Type: TypePermanent},
			want:   `"/a%3Bb";"/c%3Bd";"PERMANENT";"";""`,
		},
		{
			name:   "quotes are doubled",
			record: Record{From: `/say-"hi"`, To: "/greeting", Type: TypePermanent},
			want:   `"/say-""hi""";"/greeting";"PERMANENT";"";""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeRow(tt.record); got != tt.want {
				t.Errorf("EncodeRow() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	want := `"from";"to";"type";"endDate";"binding"`
	if got := EncodeHeader(); got != want {
		t.Errorf("EncodeHeader() = %s, want %s", got, want)
	}
}

func TestEscapeDelimiter(t *testing.T) {
	if got := EscapeDelimiter("/a;b;c"); got != "/a%3Bb%3Bc" {
		t.Errorf("expected /a%%3Bb%%3Bc, got %s", got)
	}
	if got := EscapeDelimiter("/plain"); got != "/plain" {
		t.Errorf("expected /plain unchanged, got %s", got)
	}
}

func TestEncodeRowRoundTrip(t *testing.T) {
	records := []Record{
		{From: "/a;b", To: `/with "quote"`, Type: TypeTemporary, EndDate: "2026-01-01", Binding: "x"},
		{From: "/plain", To: "/target"},
	}

	var b strings.Builder
	b.WriteString(EncodeHeader())
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString(EncodeRow(r))
		b.WriteByte('\n')
	}

	parsed, err := parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 records, got %d", len(parsed))
	}
	// The delimiter stays percent-encoded on read; no implicit decode.
	if parsed[0].From != "/a%3Bb" {
		t.Errorf("expected encoded delimiter preserved, got %q", parsed[0].From)
	}
	if parsed[0].To != `/with "quote"` {
		t.Errorf("doubled quotes must round-trip, got %q", parsed[0].To)
	}
	if parsed[1].Type != "" {
		t.Errorf("absent type reads back empty, got %q", parsed[1].Type)
	}
}

func TestWriteKeysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.csv")
	if err := WriteKeysFile(path, []string{"/a", "/b;c"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "\"from\"\n\"/a\"\n\"/b%3Bc\"\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, string(data))
	}

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if r.To != "" {
			t.Errorf("keys file records must only carry a source, got to=%q", r.To)
		}
	}
}
