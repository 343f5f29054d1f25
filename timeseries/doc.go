// Package timeseries provides time series data structures and utilities.
//
// A Series holds the observations of the response, optional timestamps,
// and the regression variables observed at the same dates.
//
// # Creating a Series
//
//	series := timeseries.New([]float64{100, 102, 105, 103, 108, 110})
//	if err := series.AddRegressor("promo", promo); err != nil {
//	    log.Fatal(err)
//	}
//
// # Loading from CSV
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "sales"
//	opts.Regressors = []string{"promo", "price"}
//	series, err := timeseries.LoadCSV("data.csv", opts)
//
// Rows with missing values are skipped. The frequency of the series is
// inferred from its timestamps:
//
//	period := series.Frequency() // 12 for monthly data
//
// # Transformations
//
//	logs, err := series.Log()
//	d := series.Difference(1, 1, 12) // (1-B)(1-B^12)
//	x := series.Design()             // regressors as a *mat.Dense
package timeseries
