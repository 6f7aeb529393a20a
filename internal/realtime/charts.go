package realtime

import (
	"math"
	"math/rand/v2"
	"time"
)

// ChartKind enumerates the supported chart streams.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"
)

// ChartKinds lists every supported kind in presentation order.
var ChartKinds = []ChartKind{ChartLine, ChartPie, ChartBar}

// ValidChartKind reports whether s names a supported chart stream.
func ValidChartKind(s string) bool {
	switch ChartKind(s) {
	case ChartLine, ChartPie, ChartBar:
		return true
	}
	return false
}

var (
	pieLabels = []string{"Technology", "Healthcare", "Finance", "Energy", "Consumer"}
	barLabels = []string{"Q1", "Q2", "Q3", "Q4", "Q5"}

	chartColors = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}
)

// LineChartPoint is one sample of the simulated line series.
type LineChartPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Index     int       `json:"index"`
}

// PieChartSlice is one sector of a pie frame.
type PieChartSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// PieChartData is one full pie frame. Slice values sum to 100.
type PieChartData struct {
	Timestamp time.Time       `json:"timestamp"`
	Slices    []PieChartSlice `json:"slices"`
}

// BarChartBar is one bar of a bar frame.
type BarChartBar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// BarChartData is one full bar frame.
type BarChartData struct {
	Timestamp time.Time     `json:"timestamp"`
	Bars      []BarChartBar `json:"bars"`
}

// lineSeries carries the per-connection state of the line stream: the index
// is derived from elapsed wall time over the current interval so the series
// stays smooth across interval changes.
type lineSeries struct {
	start time.Time
}

func newLineSeries(now time.Time) *lineSeries {
	return &lineSeries{start: now}
}

// Next produces the sample for the current instant. The value rides a slow
// sine trend around 50 with uniform noise, clamped to [5, 95].
func (s *lineSeries) Next(now time.Time, intervalMS int) LineChartPoint {
	if intervalMS <= 0 {
		intervalMS = defaultIntervalMS
	}
	elapsedMS := now.Sub(s.start).Milliseconds()
	index := int(elapsedMS / int64(intervalMS))

	trend := 50 + math.Sin(float64(index)*0.1*0.05)*20
	value := trend + uniform(-15, 15)
	value = math.Max(5, math.Min(95, value))

	return LineChartPoint{
		Timestamp: now,
		Value:     round2(value),
		Index:     index,
	}
}

// newPieChartData generates a random pie frame whose slices always sum to
// 100, with every slice getting at least 5.
func newPieChartData(now time.Time) PieChartData {
	slices := make([]PieChartSlice, 0, len(pieLabels))
	remaining := 100.0

	for i, label := range pieLabels[:len(pieLabels)-1] {
		left := len(pieLabels) - i - 1
		maxValue := math.Min(remaining-float64(left)*5, remaining*0.6)
		value := uniform(5, maxValue)
		remaining -= value

		slices = append(slices, PieChartSlice{
			Label: label,
			Value: round2(value),
			Color: chartColors[i],
		})
	}
	slices = append(slices, PieChartSlice{
		Label: pieLabels[len(pieLabels)-1],
		Value: round2(remaining),
		Color: chartColors[len(chartColors)-1],
	})

	return PieChartData{Timestamp: now, Slices: slices}
}

// newBarChartData generates a random bar frame with values in [20, 80].
func newBarChartData(now time.Time) BarChartData {
	bars := make([]BarChartBar, 0, len(barLabels))
	for i, label := range barLabels {
		bars = append(bars, BarChartBar{
			Label: label,
			Value: round2(uniform(20, 80)),
			Color: chartColors[i],
		})
	}
	return BarChartData{Timestamp: now, Bars: bars}
}

func uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rand.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
