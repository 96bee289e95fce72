package models

import (
	"errors"
	"fmt"
)

// ErrInvalidMetric is returned when a metric name is outside the closed vocabulary.
var ErrInvalidMetric = errors.New("invalid metric")

// Metric identifies one plottable column of a DailyRecord.
type Metric string

const (
	MetricNewCases          Metric = "new_cases"
	MetricTotalCases        Metric = "total_cases"
	MetricNewDeaths         Metric = "new_deaths"
	MetricTotalDeaths       Metric = "total_deaths"
	MetricNewTests          Metric = "new_tests"
	MetricTotalTests        Metric = "total_tests"
	MetricNewVaccinations   Metric = "new_vaccinations"
	MetricTotalVaccinations Metric = "total_vaccinations"
	MetricReproductionRate  Metric = "reproduction_rate"
	MetricPositiveRate      Metric = "positive_rate"
)

var metricLabels = map[Metric]string{
	MetricNewCases:          "New Cases",
	MetricTotalCases:        "Total Cases",
	MetricNewDeaths:         "New Deaths",
	MetricTotalDeaths:       "Total Deaths",
	MetricNewTests:          "New Tests",
	MetricTotalTests:        "Total Tests",
	MetricNewVaccinations:   "New Vaccinations",
	MetricTotalVaccinations: "Total Vaccinations",
	MetricReproductionRate:  "Reproduction Rate",
	MetricPositiveRate:      "Positive Rate",
}

// Metrics returns the recognized metrics in presentation order.
func Metrics() []Metric {
	return []Metric{
		MetricNewCases,
		MetricTotalCases,
		MetricNewDeaths,
		MetricTotalDeaths,
		MetricNewTests,
		MetricTotalTests,
		MetricNewVaccinations,
		MetricTotalVaccinations,
		MetricReproductionRate,
		MetricPositiveRate,
	}
}

// ParseMetric validates name against the closed vocabulary.
func ParseMetric(name string) (Metric, error) {
	m := Metric(name)
	if _, ok := metricLabels[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, name)
	}
	return m, nil
}

// Label returns the human-readable name of the metric.
func (m Metric) Label() string {
	return metricLabels[m]
}
