package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// Formatter renders a generated dataset
type Formatter interface {
	Name() string
	Format(ds *domain.Dataset) ([]byte, error)
}

// FormatNames lists the formatters GetFormatterByName knows
var FormatNames = []string{"console", "csv", "json", "xlsx"}

// GetFormatterByName returns the formatter registered under name
func GetFormatterByName(name string) (Formatter, error) {
	switch name {
	case "console":
		return ConsoleFormatter{}, nil
	case "csv":
		return CSVFormatter{}, nil
	case "json":
		return JSONFormatter{Pretty: true}, nil
	case "xlsx":
		return XLSXFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", name)
	}
}

// Extension returns the file extension used when writing a formatter's output
func Extension(f Formatter) string {
	if f.Name() == "console" {
		return "txt"
	}
	return f.Name()
}

// WriteFormatted renders ds with f and writes it into dir. The file name depends only on the
// dataset's year and seed so reruns overwrite the same file.
func WriteFormatted(dir string, f Formatter, ds *domain.Dataset) (string, error) {
	data, err := f.Format(ds)
	if err != nil {
		return "", fmt.Errorf("failed to format %s output: %w", f.Name(), err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	filename := filepath.Join(dir, fmt.Sprintf("sales_kpi_%d_%d.%s", ds.Year, ds.Seed, Extension(f)))
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}
