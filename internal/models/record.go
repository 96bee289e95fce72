package models

import (
	"errors"
	"time"
)

// DateLayout is the ISO calendar form used wherever a record date is rendered
// or persisted.
const DateLayout = "2006-01-02"

// DailyRecord is one row of the dataset for a (country, date) pair.
//
// Cumulative counters satisfy total_X[day] = total_X[day-1] + new_X[day] for
// consecutive days of the same country. PositiveRate is a plain ratio of the
// row's own deltas and is not clamped to [0, 1].
type DailyRecord struct {
	Date        time.Time `json:"date"` // UTC midnight
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code"`
	Continent   string    `json:"continent"`
	Population  int64     `json:"population"`

	TotalCases            int64 `json:"total_cases"`
	TotalDeaths           int64 `json:"total_deaths"`
	TotalTests            int64 `json:"total_tests"`
	TotalVaccinations     int64 `json:"total_vaccinations"`
	PeopleVaccinated      int64 `json:"people_vaccinated"`
	PeopleFullyVaccinated int64 `json:"people_fully_vaccinated"`

	NewCases        int64 `json:"new_cases"`
	NewDeaths       int64 `json:"new_deaths"`
	NewTests        int64 `json:"new_tests"`
	NewVaccinations int64 `json:"new_vaccinations"`

	PositiveRate     float64 `json:"positive_rate"`
	ReproductionRate float64 `json:"reproduction_rate"`

	ICUPatients  int64 `json:"icu_patients"`
	HospPatients int64 `json:"hosp_patients"`
}

// DateString returns the record date in DateLayout form.
func (r *DailyRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// Value returns the record's value for metric m. Unknown metrics read as 0;
// callers are expected to have parsed m with ParseMetric.
func (r *DailyRecord) Value(m Metric) float64 {
	switch m {
	case MetricTotalCases:
		return float64(r.TotalCases)
	case MetricNewCases:
		return float64(r.NewCases)
	case MetricTotalDeaths:
		return float64(r.TotalDeaths)
	case MetricNewDeaths:
		return float64(r.NewDeaths)
	case MetricTotalTests:
		return float64(r.TotalTests)
	case MetricNewTests:
		return float64(r.NewTests)
	case MetricTotalVaccinations:
		return float64(r.TotalVaccinations)
	case MetricNewVaccinations:
		return float64(r.NewVaccinations)
	case MetricReproductionRate:
		return r.ReproductionRate
	case MetricPositiveRate:
		return r.PositiveRate
	}
	return 0
}

// Validate checks that all record fields are valid
func (r *DailyRecord) Validate() error {
	if r.Date.IsZero() {
		return errors.New("date must be set")
	}
	if r.Country == "" {
		return errors.New("country must not be empty")
	}
	if r.Population <= 0 {
		return errors.New("population must be positive")
	}
	if r.NewCases < 0 || r.NewDeaths < 0 || r.NewTests < 0 || r.NewVaccinations < 0 {
		return errors.New("daily deltas must not be negative")
	}
	if r.TotalCases < 0 || r.TotalDeaths < 0 || r.TotalTests < 0 || r.TotalVaccinations < 0 {
		return errors.New("cumulative counters must not be negative")
	}
	if r.ICUPatients < 0 || r.HospPatients < 0 {
		return errors.New("patient counts must not be negative")
	}
	if r.PositiveRate < 0 {
		return errors.New("positive rate must not be negative")
	}
	if r.PeopleVaccinated > r.Population || r.PeopleFullyVaccinated > r.Population {
		return errors.New("vaccinated people must not exceed population")
	}
	if r.PeopleFullyVaccinated > r.PeopleVaccinated {
		return errors.New("fully vaccinated must be <= vaccinated")
	}
	if r.PeopleVaccinated > r.TotalVaccinations {
		return errors.New("vaccinated must be <= total vaccinations")
	}
	return nil
}
