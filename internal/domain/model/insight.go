package model

import "time"

// DailyValue is one day's value within an insight time series.
type DailyValue struct {
	Date  time.Time
	Value int64
}

// InsightSeries is a per-location performance metric as an ordered sequence
// of daily values.
type InsightSeries struct {
	LocationName string
	Metric       string
	Points       []DailyValue
}
