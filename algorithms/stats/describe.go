package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// QuartileInfo contains quartile-specific information
type QuartileInfo struct {
	Q1  float64 `json:"q1"`  // First quartile (25th percentile)
	Q2  float64 `json:"q2"`  // Second quartile (50th percentile, median)
	Q3  float64 `json:"q3"`  // Third quartile (75th percentile)
	IQR float64 `json:"iqr"` // Interquartile range (Q3 - Q1)
}

// SummaryStats contains descriptive statistics of a series
type SummaryStats struct {
	Count     int          `json:"count"`
	Mean      float64      `json:"mean"`
	StdDev    float64      `json:"std_dev"`
	Min       float64      `json:"min"`
	Max       float64      `json:"max"`
	Median    float64      `json:"median"`
	P90Abs    float64      `json:"p90_abs"` // 90th percentile of absolute values
	Quartiles QuartileInfo `json:"quartiles"`
}

// Describe summarizes data. NaN values are ignored.
func Describe(data []float64) (SummaryStats, error) {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return SummaryStats{}, fmt.Errorf("no values to describe")
	}

	s := SummaryStats{
		Count:  len(clean),
		Mean:   common.Mean(clean),
		StdDev: common.StandardDeviation(clean),
		Min:    floats.Min(clean),
		Max:    floats.Max(clean),
	}

	s.Quartiles.Q1 = common.Percentile(clean, 0.25)
	s.Quartiles.Q2 = common.Percentile(clean, 0.5)
	s.Quartiles.Q3 = common.Percentile(clean, 0.75)
	s.Quartiles.IQR = s.Quartiles.Q3 - s.Quartiles.Q1
	s.Median = s.Quartiles.Q2

	abs := make([]float64, len(clean))
	for i, v := range clean {
		abs[i] = math.Abs(v)
	}
	s.P90Abs = common.Percentile(abs, 0.9)

	return s, nil
}
