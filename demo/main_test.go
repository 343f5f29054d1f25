package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"1,1,1", []int{1, 1, 1}, false},
		{" 2, 0 ,1", []int{2, 0, 1}, false},
		{"1,1", nil, true},
		{"1,-1,0", nil, true},
		{"a,b,c", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOrder(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "y", cfg.Data.ValueColumn)
	assert.Equal(t, "aicc", cfg.Selection.Criterion)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  value: sales
  regressors: [price, promo]
estimation:
  order: [1, 1, 0]
  method: bfgs
selection:
  maxP: 3
  criterion: bic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sales", cfg.Data.ValueColumn)
	assert.Equal(t, []string{"price", "promo"}, cfg.Data.Regressors)
	assert.Equal(t, []int{1, 1, 0}, cfg.Estimation.Order)
	assert.Equal(t, []int{0, 1, 1}, cfg.Estimation.Seasonal)
	assert.Equal(t, "bfgs", cfg.Estimation.Method)
	assert.Equal(t, 3, cfg.Selection.MaxP)
	assert.Equal(t, 5, cfg.Selection.MaxQ, "defaults kept")
	assert.Equal(t, "bic", cfg.Selection.Criterion)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMinimizer(t *testing.T) {
	for _, m := range []string{"", "lm"} {
		f, err := minimizer(m)
		require.NoError(t, err)
		assert.Nil(t, f)
	}
	for _, m := range []string{"bfgs", "neldermead"} {
		f, err := minimizer(m)
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.NotNil(t, f())
	}
	_, err := minimizer("newton")
	assert.Error(t, err)
}

func TestDiagnose(t *testing.T) {
	x := make([]float64, 96)
	for i := range x {
		x[i] = 100 + float64(i%12) + float64(i%5-2)/5
	}
	d := diagnose(x, 12)
	assert.Equal(t, 96, d.N)
	assert.Len(t, d.ACF, 25)
	assert.Len(t, d.PACF, 25)
	assert.Equal(t, 1, d.NSDiffs)
	assert.Greater(t, d.Seasonal, 0.64)

	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, d))
	assert.Contains(t, buf.String(), "n_obs: 96")
}
