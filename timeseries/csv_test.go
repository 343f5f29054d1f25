package timeseries

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-02-01,101
2020-03-01,102
2020-04-01,103
2020-05-01,104`

	series, err := ReadCSV(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	assert.Equal(t, []float64{100, 101, 102, 103, 104}, series.Values)
	assert.Len(t, series.Timestamps, 5)
	assert.Equal(t, 12, series.Frequency())
	assert.Equal(t, "y", series.Name)
}

func TestReadCSVWithFilter(t *testing.T) {
	csvData := `unique_id,ds,y
A,2020-01-01,100
B,2020-01-01,200
A,2020-01-02,101
B,2020-01-02,201
A,2020-01-03,102`

	opts := DefaultCSVOptions()
	opts.IDColumn = "unique_id"
	opts.IDFilter = "A"
	series, err := ReadCSV(strings.NewReader(csvData), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102}, series.Values)
}

func TestReadCSVMissingValues(t *testing.T) {
	csvData := `ds,y,x
2020-01-01,100,1
2020-01-02,NA,2
2020-01-03,102,
2020-01-04,103,4
2020-01-05,,5`

	opts := DefaultCSVOptions()
	opts.Regressors = []string{"x"}
	series, err := ReadCSV(strings.NewReader(csvData), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 103}, series.Values)
	assert.Equal(t, [][]float64{{1, 4}}, series.Regressors)
	assert.Equal(t, []string{"x"}, series.RegressorNames)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("ds,y\n2020-01-01,NA\n"), nil)
	assert.ErrorIs(t, err, ErrNoData)

	opts := DefaultCSVOptions()
	opts.ValueColumn = "sales"
	_, err = ReadCSV(strings.NewReader("ds,y\n2020-01-01,1\n"), opts)
	assert.Error(t, err)

	opts = DefaultCSVOptions()
	opts.Regressors = []string{"missing"}
	_, err = ReadCSV(strings.NewReader("ds,y\n2020-01-01,1\n"), opts)
	assert.Error(t, err)
}

func TestReadCSVDelimiterAndDates(t *testing.T) {
	csvData := `# exported
date;value
"2020/01/01";1.5
"2020/04/01";2.5
"2020/07/01";3.5`

	opts := DefaultCSVOptions()
	opts.ValueColumn = "value"
	opts.Delimiter = ';'
	opts.SkipRows = 1
	series, err := ReadCSV(strings.NewReader(csvData), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, series.Values)
	require.Len(t, series.Timestamps, 3)
	assert.Equal(t, 4, series.Frequency())
}

func TestReadCSVUnparsableDates(t *testing.T) {
	csvData := `ds,y
2020-01-01,1
someday,2`
	series, err := ReadCSV(strings.NewReader(csvData), nil)
	require.NoError(t, err)
	assert.Nil(t, series.Timestamps)
	assert.Equal(t, 2, series.Len())
}

func TestWriteCSV(t *testing.T) {
	s := New([]float64{1.5, 2})
	require.NoError(t, s.AddRegressor("x", []float64{3, 4}))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))
	assert.Equal(t, "index,y,x\n1,1.5,3\n2,2,4\n", buf.String())

	back, err := ReadCSV(&buf, &CSVOptions{ValueColumn: "y", Regressors: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, s.Values, back.Values)
	assert.Equal(t, s.Regressors, back.Regressors)
}
