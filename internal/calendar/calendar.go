package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// ForYear builds the 12 monthly periods of year
func ForYear(year int) []domain.Period {
	periods := make([]domain.Period, 0, domain.PeriodsPerYear)
	for m := time.January; m <= time.December; m++ {
		periods = append(periods, domain.NewPeriod(year, m))
	}
	return periods
}

// Validate checks that periods form one full, ordered year
func Validate(periods []domain.Period) error {
	return domain.ValidatePeriods(periods)
}

// LoadCSV reads a date dimension file and returns the periods of year.
// The file needs a "date" column (YYYY-MM-DD); year, month and quarter columns are optional
// and are cross-checked against the date when present.
func LoadCSV(filename string, year int) ([]domain.Period, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open date dimension %s: %w", filename, err)
	}
	defer file.Close()

	return Parse(file, year)
}

// Parse reads a date dimension from r and returns the periods of year
func Parse(r io.Reader, year int) ([]domain.Period, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read date dimension CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("date dimension CSV must have header and at least one data row")
	}

	columns := make(map[string]int)
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, ok := columns["date"]
	if !ok {
		return nil, fmt.Errorf("date dimension CSV header must contain a date column, got %v", records[0])
	}

	seen := make(map[time.Month]bool)
	var periods []domain.Period
	for i, record := range records[1:] {
		row := i + 2
		if dateCol >= len(record) {
			return nil, fmt.Errorf("date dimension CSV row %d: missing date", row)
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("date dimension CSV row %d: invalid date: %w", row, err)
		}
		if date.Year() != year {
			continue
		}
		p := domain.NewPeriod(year, date.Month())
		if err := checkColumns(columns, record, p); err != nil {
			return nil, fmt.Errorf("date dimension CSV row %d: %w", row, err)
		}
		if seen[p.Month] {
			return nil, fmt.Errorf("date dimension CSV row %d: duplicate month %s", row, p)
		}
		seen[p.Month] = true
		periods = append(periods, p)
	}

	sort.Slice(periods, func(i, j int) bool { return periods[i].Date.Before(periods[j].Date) })
	if err := Validate(periods); err != nil {
		return nil, fmt.Errorf("date dimension for %d: %w", year, err)
	}
	return periods, nil
}

func checkColumns(columns map[string]int, record []string, p domain.Period) error {
	if idx, ok := columns["month"]; ok && idx < len(record) {
		m, err := strconv.Atoi(strings.TrimSpace(record[idx]))
		if err != nil {
			return fmt.Errorf("invalid month: %w", err)
		}
		if time.Month(m) != p.Month {
			return fmt.Errorf("month column %d does not match date %s", m, p)
		}
	}
	if idx, ok := columns["quarter"]; ok && idx < len(record) {
		q := normalizeQuarter(record[idx])
		if q != p.Quarter {
			return fmt.Errorf("%w: %s tagged %s", domain.ErrQuarterTag, p, record[idx])
		}
	}
	return nil
}

// normalizeQuarter accepts "Q2", "q2" or "2"
func normalizeQuarter(s string) domain.Quarter {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "Q") {
		s = "Q" + s
	}
	return domain.Quarter(s)
}
