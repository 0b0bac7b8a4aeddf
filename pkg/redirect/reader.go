package redirect

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	errs "redirsync/pkg/errors"
	"redirsync/pkg/logger"
)

// ReadRecords streams the CSV at path and returns its records in
// canonical order (ascending hash of the normalized source). The order
// is deterministic for an unmodified file, so checkpoint batch indices
// line up across runs. A delete-input CSV carrying only a "from"
// column is accepted.
func ReadRecords(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, fmt.Sprintf("cannot open %s", path))
	}
	defer file.Close()

	records, err := parse(file)
	if err != nil {
		logger.GetLogger().ErrorWithFields("failed to parse input file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, errs.Wrap(errs.ErrorTypeValidation, err, fmt.Sprintf("malformed CSV in %s", path))
	}

	SortRecords(records)
	return records, nil
}

func parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := columns["from"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "from")
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		records = append(records, Record{
			From:    field(row, columns, "from"),
			To:      field(row, columns, "to"),
			Type:    Type(strings.ToUpper(field(row, columns, "type"))),
			EndDate: field(row, columns, "enddate"),
			Binding: field(row, columns, "binding"),
		})
	}

	return records, nil
}

func field(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
