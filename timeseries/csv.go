package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when a CSV input holds no usable observation.
var ErrNoData = errors.New("timeseries: no valid data found in CSV")

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string   // Column name for dates (optional)
	ValueColumn string   // Column name for values (default: "y")
	Regressors  []string // Columns of regression variables (optional)
	IDColumn    string   // Column name for series ID (optional, for filtering)
	IDFilter    string   // Value to filter by ID column
	DateFormat  string   // Date format (default: "2006-01-02")
	Delimiter   rune     // Field delimiter (default: ',')
	SkipRows    int      // Number of rows to skip before the header
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		Delimiter:   ',',
	}
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2006-01",
	"2006",
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := ReadCSV(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// columns holds the indices of the columns of interest in a CSV header.
type columns struct {
	value, date, id int
	regressors      []int
}

func locate(header []string, opts *CSVOptions) (columns, error) {
	c := columns{value: -1, date: -1, id: -1}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.Trim(h, "\""))] = i
	}
	find := func(names ...string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}

	if opts.ValueColumn != "" {
		c.value = find(opts.ValueColumn)
	} else {
		c.value = find("y", "value", "Value")
	}
	if c.value < 0 {
		return c, fmt.Errorf("timeseries: value column %q not found", opts.ValueColumn)
	}
	if opts.DateColumn != "" {
		c.date = find(opts.DateColumn)
	} else {
		c.date = find("ds", "date", "Date", "Month", "Year")
	}
	if opts.IDColumn != "" {
		c.id = find(opts.IDColumn)
	} else {
		c.id = find("unique_id", "id", "ID")
	}
	for _, r := range opts.Regressors {
		i := find(r)
		if i < 0 {
			return c, fmt.Errorf("timeseries: regressor column %q not found", r)
		}
		c.regressors = append(c.regressors, i)
	}
	return c, nil
}

// parseValue parses a numeric field; missing values yield ok == false.
func parseValue(field string) (float64, bool) {
	v := strings.TrimSpace(strings.Trim(field, "\""))
	switch v {
	case "", "NA", "NaN", "null":
		return 0, false
	}
	x, err := strconv.ParseFloat(v, 64)
	return x, err == nil
}

func parseDate(field, layout string) (time.Time, bool) {
	v := strings.TrimSpace(strings.Trim(field, "\""))
	for _, f := range append([]string{layout}, dateFormats...) {
		if ts, err := time.Parse(f, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ReadCSV reads a time series with a header row from r. Rows with a missing
// value, in the response or in a regressor, are skipped. Timestamps are
// kept only when every retained row has a parsable date.
func ReadCSV(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols, err := locate(header, opts)
	if err != nil {
		return nil, err
	}

	s := &Series{Name: strings.TrimSpace(header[cols.value]), RegressorNames: opts.Regressors}
	s.Regressors = make([][]float64, len(cols.regressors))
	datesOK := cols.date >= 0

rows:
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return record[i]
		}

		if opts.IDFilter != "" && cols.id >= 0 &&
			strings.TrimSpace(strings.Trim(field(cols.id), "\"")) != opts.IDFilter {
			continue
		}
		y, ok := parseValue(field(cols.value))
		if !ok {
			continue
		}
		row := make([]float64, len(cols.regressors))
		for j, i := range cols.regressors {
			if row[j], ok = parseValue(field(i)); !ok {
				continue rows
			}
		}

		s.Values = append(s.Values, y)
		for j := range row {
			s.Regressors[j] = append(s.Regressors[j], row[j])
		}
		if datesOK {
			ts, ok := parseDate(field(cols.date), opts.DateFormat)
			datesOK = ok
			s.Timestamps = append(s.Timestamps, ts)
		}
	}

	if len(s.Values) == 0 {
		return nil, ErrNoData
	}
	if !datesOK {
		s.Timestamps = nil
	}
	if len(s.Regressors) == 0 {
		s.Regressors = nil
	}
	return s, nil
}

// WriteCSV writes the series, with its dates (or a 1-based index) and its
// regressors, to w.
func WriteCSV(w io.Writer, s *Series) error {
	cw := csv.NewWriter(w)
	dated := len(s.Timestamps) == len(s.Values)

	header := []string{"index", "y"}
	if dated {
		header[0] = "ds"
	}
	header = append(header, s.RegressorNames...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, v := range s.Values {
		if dated {
			record[0] = s.Timestamps[i].Format("2006-01-02")
		} else {
			record[0] = strconv.Itoa(i + 1)
		}
		record[1] = strconv.FormatFloat(v, 'g', -1, 64)
		for j, x := range s.Regressors {
			record[2+j] = strconv.FormatFloat(x[i], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
