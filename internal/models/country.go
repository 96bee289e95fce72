// Package models defines the core domain entities for covidsynth.
// These models represent country profiles, daily epidemiological records,
// the closed metric vocabulary, and per-country summaries.
// Records and profiles carry built-in validation so that generated data
// can be checked against its invariants anywhere in the application.
package models

import "errors"

// CountryProfile is the static identity and demographic record used to seed
// generation for one country. Profiles are never mutated after construction.
type CountryProfile struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Continent  string `json:"continent"`
	Population int64  `json:"population"`
}

// Validate checks that all profile fields are valid
func (p *CountryProfile) Validate() error {
	if p.Name == "" {
		return errors.New("country name must not be empty")
	}
	if p.Code == "" {
		return errors.New("country code must not be empty")
	}
	if p.Continent == "" {
		return errors.New("continent must not be empty")
	}
	if p.Population <= 0 {
		return errors.New("population must be positive")
	}
	return nil
}
