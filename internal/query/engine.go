// Package query filters stored records and computes the summaries served to
// the presentation layer.
//
// Selections are explicit: an empty country set yields an empty result, never
// "all countries". Only FilterCountries treats an empty continent set as "no
// restriction". Metric names are checked against the closed vocabulary in
// package models before any store access.
package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/rewired-gh/covidsynth/internal/models"
	"github.com/rewired-gh/covidsynth/internal/storage"
)

// Engine answers dataset queries against a store
type Engine struct {
	store storage.Store
}

// New creates an Engine reading from store
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// Overview sums the per-country summaries of a selection.
type Overview struct {
	Countries             int   `json:"countries"`
	TotalCases            int64 `json:"total_cases"`
	TotalDeaths           int64 `json:"total_deaths"`
	TotalVaccinations     int64 `json:"total_vaccinations"`
	PeopleFullyVaccinated int64 `json:"people_fully_vaccinated"`
	Population            int64 `json:"population"`
}

// VaccinationRate is the fully vaccinated share of one country's population.
type VaccinationRate struct {
	Country               string  `json:"country"`
	PeopleFullyVaccinated int64   `json:"people_fully_vaccinated"`
	Population            int64   `json:"population"`
	Percent               float64 `json:"percent"`
}

// Continents returns the distinct continents present in the store
func (e *Engine) Continents() ([]string, error) {
	continents, err := e.store.Continents()
	if err != nil {
		return nil, fmt.Errorf("failed to list continents: %w", err)
	}
	return continents, nil
}

// FilterCountries returns the sorted countries on any of continents, or all
// countries when continents is empty.
func (e *Engine) FilterCountries(continents []string) ([]string, error) {
	countries, err := e.store.Countries(continents)
	if err != nil {
		return nil, fmt.Errorf("failed to filter countries: %w", err)
	}
	return countries, nil
}

// DateBounds returns the first and last stored dates
func (e *Engine) DateBounds() (time.Time, time.Time, error) {
	lo, hi, err := e.store.DateBounds()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read date bounds: %w", err)
	}
	return lo, hi, nil
}

// FetchSeries returns metric values for countries between start and end
// (inclusive), ordered by date ascending and then by country.
func (e *Engine) FetchSeries(metric string, countries []string, start, end time.Time) ([]models.SeriesPoint, error) {
	m, err := models.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	if len(countries) == 0 || start.After(end) {
		return []models.SeriesPoint{}, nil
	}

	records, err := e.store.Query(storage.Filter{Countries: countries, Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s series: %w", m, err)
	}

	points := make([]models.SeriesPoint, 0, len(records))
	for i := range records {
		points = append(points, models.SeriesPoint{
			Date:    records[i].Date,
			Country: records[i].Country,
			Value:   records[i].Value(m),
		})
	}
	return points, nil
}

// Latest returns, per country, the metric value on that country's latest
// date within [start, end]. Countries without data in range are omitted.
func (e *Engine) Latest(metric string, countries []string, start, end time.Time) ([]models.SeriesPoint, error) {
	points, err := e.FetchSeries(metric, countries, start, end)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]models.SeriesPoint)
	for _, p := range points {
		if cur, ok := latest[p.Country]; !ok || p.Date.After(cur.Date) {
			latest[p.Country] = p
		}
	}

	out := make([]models.SeriesPoint, 0, len(latest))
	for _, p := range latest {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Country < out[j].Country
	})
	return out, nil
}

// Summarize returns the per-country maxima across the entire stored history
func (e *Engine) Summarize() (map[string]models.CountrySummary, error) {
	rows, err := e.store.AggregateMax()
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}
	out := make(map[string]models.CountrySummary, len(rows))
	for _, row := range rows {
		out[row.Country] = row
	}
	return out, nil
}

// SummarizeCountries returns the summaries of the selected countries ordered by country
func (e *Engine) SummarizeCountries(countries []string) ([]models.CountrySummary, error) {
	if len(countries) == 0 {
		return []models.CountrySummary{}, nil
	}
	rows, err := e.store.AggregateMax()
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	selected := make(map[string]bool, len(countries))
	for _, c := range countries {
		selected[c] = true
	}

	out := make([]models.CountrySummary, 0, len(countries))
	for _, row := range rows {
		if selected[row.Country] {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Country < out[j].Country
	})
	return out, nil
}

// Overview sums the summaries of the selected countries
func (e *Engine) Overview(countries []string) (Overview, error) {
	summaries, err := e.SummarizeCountries(countries)
	if err != nil {
		return Overview{}, err
	}
	var o Overview
	for _, s := range summaries {
		o.Countries++
		o.TotalCases += s.TotalCases
		o.TotalDeaths += s.TotalDeaths
		o.TotalVaccinations += s.TotalVaccinations
		o.PeopleFullyVaccinated += s.PeopleFullyVaccinated
		o.Population += s.Population
	}
	return o, nil
}

// VaccinationRates returns the fully vaccinated percentage per selected country
func (e *Engine) VaccinationRates(countries []string) ([]VaccinationRate, error) {
	summaries, err := e.SummarizeCountries(countries)
	if err != nil {
		return nil, err
	}
	rates := make([]VaccinationRate, 0, len(summaries))
	for i := range summaries {
		rates = append(rates, VaccinationRate{
			Country:               summaries[i].Country,
			PeopleFullyVaccinated: summaries[i].PeopleFullyVaccinated,
			Population:            summaries[i].Population,
			Percent:               summaries[i].VaccinationRate(),
		})
	}
	return rates, nil
}
