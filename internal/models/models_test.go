package models

import (
	"errors"
	"testing"
	"time"
)

func validRecord() DailyRecord {
	return DailyRecord{
		Date:                  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Country:               "USA",
		CountryCode:           "US",
		Continent:             "North America",
		Population:            331000000,
		TotalCases:            1200,
		NewCases:              200,
		TotalDeaths:           30,
		NewDeaths:             4,
		TotalTests:            12000,
		NewTests:              2000,
		TotalVaccinations:     5000,
		NewVaccinations:       900,
		PeopleVaccinated:      5000,
		PeopleFullyVaccinated: 4000,
		PositiveRate:          0.1,
		ReproductionRate:      1.1,
		ICUPatients:           4,
		HospPatients:          20,
	}
}

func TestCountryProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile CountryProfile
		wantErr bool
	}{
		{
			name:    "valid profile",
			profile: CountryProfile{Name: "Japan", Code: "JP", Continent: "Asia", Population: 126000000},
			wantErr: false,
		},
		{
			name:    "empty name",
			profile: CountryProfile{Code: "JP", Continent: "Asia", Population: 126000000},
			wantErr: true,
		},
		{
			name:    "empty continent",
			profile: CountryProfile{Name: "Japan", Code: "JP", Population: 126000000},
			wantErr: true,
		},
		{
			name:    "zero population",
			profile: CountryProfile{Name: "Japan", Code: "JP", Continent: "Asia"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("CountryProfile.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDailyRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *DailyRecord)
		wantErr bool
	}{
		{name: "valid record", mutate: func(r *DailyRecord) {}, wantErr: false},
		{name: "missing date", mutate: func(r *DailyRecord) { r.Date = time.Time{} }, wantErr: true},
		{name: "missing country", mutate: func(r *DailyRecord) { r.Country = "" }, wantErr: true},
		{name: "negative new cases", mutate: func(r *DailyRecord) { r.NewCases = -1 }, wantErr: true},
		{name: "negative icu", mutate: func(r *DailyRecord) { r.ICUPatients = -3 }, wantErr: true},
		{
			name:    "vaccinated above population",
			mutate:  func(r *DailyRecord) { r.Population = 1000; r.PeopleVaccinated = 1001 },
			wantErr: true,
		},
		{
			name:    "fully vaccinated above vaccinated",
			mutate:  func(r *DailyRecord) { r.PeopleFullyVaccinated = r.PeopleVaccinated + 1 },
			wantErr: true,
		},
		{
			name:    "positive rate above one is tolerated",
			mutate:  func(r *DailyRecord) { r.PositiveRate = 1.4 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("DailyRecord.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics() {
		got, err := ParseMetric(string(m))
		if err != nil {
			t.Errorf("ParseMetric(%q) unexpected error: %v", m, err)
		}
		if got != m {
			t.Errorf("ParseMetric(%q) = %q", m, got)
		}
		if m.Label() == "" {
			t.Errorf("metric %q has no label", m)
		}
	}

	for _, name := range []string{"", "not_a_field", "TOTAL_CASES", "people_vaccinated", "icu_patients"} {
		if _, err := ParseMetric(name); !errors.Is(err, ErrInvalidMetric) {
			t.Errorf("ParseMetric(%q) error = %v, want ErrInvalidMetric", name, err)
		}
	}

	if len(Metrics()) != 10 {
		t.Errorf("Expected 10 metrics, got %d", len(Metrics()))
	}
}

func TestDailyRecordValue(t *testing.T) {
	r := validRecord()
	tests := []struct {
		metric Metric
		want   float64
	}{
		{MetricTotalCases, 1200},
		{MetricNewCases, 200},
		{MetricTotalDeaths, 30},
		{MetricNewDeaths, 4},
		{MetricTotalTests, 12000},
		{MetricNewTests, 2000},
		{MetricTotalVaccinations, 5000},
		{MetricNewVaccinations, 900},
		{MetricReproductionRate, 1.1},
		{MetricPositiveRate, 0.1},
	}

	for _, tt := range tests {
		if got := r.Value(tt.metric); got != tt.want {
			t.Errorf("Value(%s) = %v, expected %v", tt.metric, got, tt.want)
		}
	}
	if got := r.DateString(); got != "2025-03-01" {
		t.Errorf("DateString() = %s", got)
	}
}

func TestCountrySummaryVaccinationRate(t *testing.T) {
	s := CountrySummary{Country: "X", PeopleFullyVaccinated: 250, Population: 1000}
	if got := s.VaccinationRate(); got != 25 {
		t.Errorf("VaccinationRate() = %v, expected 25", got)
	}
	empty := CountrySummary{Country: "Y"}
	if got := empty.VaccinationRate(); got != 0 {
		t.Errorf("VaccinationRate() with zero population = %v, expected 0", got)
	}
}
