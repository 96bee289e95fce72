package models

import "time"

// SeriesPoint is one (date, country, value) sample of a metric time series.
type SeriesPoint struct {
	Date    time.Time `json:"date"`
	Country string    `json:"country"`
	Value   float64   `json:"value"`
}

// CountrySummary holds the per-country maxima of the cumulative columns over
// the whole stored history. Cumulative counters are non-decreasing, so each
// maximum is also the country's final value.
type CountrySummary struct {
	Country               string `json:"country"`
	TotalCases            int64  `json:"total_cases"`
	TotalDeaths           int64  `json:"total_deaths"`
	TotalVaccinations     int64  `json:"total_vaccinations"`
	PeopleFullyVaccinated int64  `json:"people_fully_vaccinated"`
	Population            int64  `json:"population"`
}

// VaccinationRate returns the fully vaccinated share of the population in percent.
func (s *CountrySummary) VaccinationRate() float64 {
	if s.Population <= 0 {
		return 0
	}
	return float64(s.PeopleFullyVaccinated) / float64(s.Population) * 100
}
