package signal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV reads raw records from a CSV export. The first row is the header and
// rows are numbered from 1 in file order.
func ReadCSV(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []RawRecord
	row := 0
	for {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row+1, err)
		}
		row++
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(values) {
				fields[name] = values[i]
			}
		}
		records = append(records, RawRecord{Row: row, Fields: fields})
	}
	return records, nil
}

// ReadCSVFile reads raw records from a CSV file on disk
func ReadCSVFile(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
