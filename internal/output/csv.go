package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// CSVFormatter renders the sales_monthly fact table
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(ds *domain.Dataset) ([]byte, error) {
	return encodeCSV(SalesMonthlyTable(ds))
}

// WriteTables writes org_hierarchy.csv, accounts_dim.csv and sales_monthly.csv into dir
func WriteTables(dir string, ds *domain.Dataset) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	var files []string
	for _, t := range Tables(ds) {
		data, err := encodeCSV(t)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", t.Name, err)
		}
		filename := filepath.Join(dir, t.Name+".csv")
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", filename, err)
		}
		files = append(files, filename)
	}
	return files, nil
}

func encodeCSV(t Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
