// Package model defines the data types shared by the loader, the view
// updaters and the terminal host: metrics, raw table rows, joined records
// and the dashboard parameter state.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned for names that are not one of AllMetrics.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names one of the five source tables.
type Metric string

const (
	MetricPopulation     Metric = "population"
	MetricGDP            Metric = "gdp"
	MetricChildMortality Metric = "child-mortality"
	MetricLifeExpectancy Metric = "life-expectancy"
	MetricFertilityRate  Metric = "fertility-rate"
)

// AllMetrics lists every metric in selector order. Population comes first
// because it drives the join.
var AllMetrics = []Metric{
	MetricPopulation,
	MetricGDP,
	MetricChildMortality,
	MetricLifeExpectancy,
	MetricFertilityRate,
}

// IsValid reports whether m is one of the known metrics.
func (m Metric) IsValid() bool {
	for _, known := range AllMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// Label returns a human-readable axis label.
func (m Metric) Label() string {
	switch m {
	case MetricPopulation:
		return "Population"
	case MetricGDP:
		return "GDP per capita"
	case MetricChildMortality:
		return "Child mortality (per 1000)"
	case MetricLifeExpectancy:
		return "Life expectancy (years)"
	case MetricFertilityRate:
		return "Fertility rate (births per woman)"
	default:
		return string(m)
	}
}

// Next returns the metric after m in selector order, wrapping around.
func (m Metric) Next() Metric {
	for i, known := range AllMetrics {
		if m == known {
			return AllMetrics[(i+1)%len(AllMetrics)]
		}
	}
	return AllMetrics[0]
}

// ParseMetric validates a metric name. Matching is case-insensitive and
// accepts underscores in place of dashes.
func ParseMetric(s string) (Metric, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")
	m := Metric(norm)
	if !m.IsValid() {
		return "", fmt.Errorf("%w %q", ErrUnknownMetric, s)
	}
	return m, nil
}
