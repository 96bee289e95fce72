// Package synth fabricates plausible daily COVID-19 time series per country.
//
// A Generator turns a country profile and a calendar axis into daily records
// whose cumulative counters are running sums of non-negative daily deltas.
// Case counts follow the Wave multiplier, onset is staggered by a random
// number of skipped days, and vaccinations ramp down linearly over a year.
// All randomness is drawn from a single Rand so a seed reproduces a dataset.
package synth

import (
	"math"
	"time"

	"github.com/rewired-gh/covidsynth/internal/models"
)

const (
	maxOffsetDays = 30
	// campaignDays is the day index at which the daily vaccination volume reaches zero.
	campaignDays = 365
	// fullyVaccinatedShare converts total doses into fully vaccinated people.
	fullyVaccinatedShare = 0.8
)

// Params are the per-country values drawn once before emission.
type Params struct {
	OffsetDays int     // leading dates of the axis that are not emitted
	Severity   float64 // scales daily case volume
	Cases      int64   // cumulative counters before the first emitted day
	Deaths     int64
	Tests      int64
	Vaccinated int64
}

// Generator produces daily records for one country at a time.
type Generator struct {
	rng *Rand
}

// NewGenerator creates a Generator drawing from rng.
func NewGenerator(rng *Rand) *Generator {
	return &Generator{rng: rng}
}

// DrawParams samples onset offset, severity and starting totals for profile.
func (g *Generator) DrawParams(profile models.CountryProfile) Params {
	p := Params{}
	p.OffsetDays = int(g.rng.IntRange(0, maxOffsetDays))
	p.Severity = g.rng.Uniform(0.5, 2.0)
	p.Cases = g.rng.IntRange(100, 10000)
	p.Deaths = g.rng.IntRange(0, int64(float64(p.Cases)*0.05))
	p.Tests = g.rng.IntRange(p.Cases*5, p.Cases*20)
	p.Vaccinated = g.rng.IntRange(0, int64(float64(profile.Population)*0.3))
	return p
}

// Generate draws fresh parameters for profile and emits its records over dates.
func (g *Generator) Generate(profile models.CountryProfile, dates []time.Time) []models.DailyRecord {
	return g.GenerateWith(profile, dates, g.DrawParams(profile))
}

// GenerateWith emits one record per date in dates, skipping the first
// params.OffsetDays dates entirely. The day index used for the wave and the
// vaccination ramp is the position in dates, skipped dates included.
func (g *Generator) GenerateWith(profile models.CountryProfile, dates []time.Time, params Params) []models.DailyRecord {
	emitted := len(dates) - params.OffsetDays
	if emitted <= 0 {
		return []models.DailyRecord{}
	}
	records := make([]models.DailyRecord, 0, emitted)

	cases, deaths, tests, vaccinated := params.Cases, params.Deaths, params.Tests, params.Vaccinated

	for i, d := range dates {
		if i < params.OffsetDays {
			continue
		}

		wave := Wave(i)

		newCases := roundNonNeg(float64(g.rng.IntRange(50, 500)) * params.Severity * wave)
		newDeaths := roundNonNeg(float64(newCases) * g.rng.Uniform(0.01, 0.05))
		newTests := roundNonNeg(float64(newCases) * float64(g.rng.IntRange(5, 15)))
		newVaccinations := roundNonNeg(float64(g.rng.IntRange(1000, 10000)) * (1 - float64(i)/campaignDays))

		cases += newCases
		deaths += newDeaths
		tests += newTests
		vaccinated += newVaccinations

		reproductionRate := g.rng.Uniform(0.8, 1.5) * wave

		icu := roundNonNeg(float64(newCases) * g.rng.Uniform(0.01, 0.05))
		hosp := roundNonNeg(float64(newCases) * g.rng.Uniform(0.05, 0.15))

		positiveRate := 0.0
		if newTests > 0 {
			positiveRate = float64(newCases) / float64(newTests)
		}

		records = append(records, models.DailyRecord{
			Date:                  dateOnly(d),
			Country:               profile.Name,
			CountryCode:           profile.Code,
			Continent:             profile.Continent,
			Population:            profile.Population,
			TotalCases:            cases,
			NewCases:              newCases,
			TotalDeaths:           deaths,
			NewDeaths:             newDeaths,
			TotalTests:            tests,
			NewTests:              newTests,
			PositiveRate:          positiveRate,
			ReproductionRate:      reproductionRate,
			ICUPatients:           icu,
			HospPatients:          hosp,
			NewVaccinations:       newVaccinations,
			TotalVaccinations:     vaccinated,
			PeopleVaccinated:      min(vaccinated, profile.Population),
			PeopleFullyVaccinated: min(int64(math.Round(float64(vaccinated)*fullyVaccinatedShare)), profile.Population),
		})
	}

	return records
}

// DateAxis returns days consecutive UTC dates ending at end's calendar date, inclusive.
func DateAxis(end time.Time, days int) []time.Time {
	if days <= 0 {
		return []time.Time{}
	}
	last := dateOnly(end)
	dates := make([]time.Time, days)
	for k := 0; k < days; k++ {
		dates[k] = last.AddDate(0, 0, k-(days-1))
	}
	return dates
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func roundNonNeg(v float64) int64 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	return int64(r)
}
