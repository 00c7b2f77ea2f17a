package contacts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadSource parses an ordered bulk-load source: CSV rows of
// first_name, last_name, phone. A leading header row is skipped.
func ReadSource(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read contact record: %w", err)
		}
		if len(records) == 0 && isHeader(row) {
			continue
		}
		records = append(records, Record{
			FirstName: strings.TrimSpace(row[0]),
			LastName:  strings.TrimSpace(row[1]),
			Phone:     strings.TrimSpace(row[2]),
		})
	}
	return records, nil
}

func isHeader(row []string) bool {
	return strings.EqualFold(strings.TrimSpace(row[0]), "first_name") &&
		strings.EqualFold(strings.TrimSpace(row[1]), "last_name")
}
