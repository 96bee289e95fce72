package synth

import "github.com/rewired-gh/covidsynth/internal/models"

// DefaultCatalog returns the fixed set of country profiles the dataset is
// built from. Each call returns a fresh slice.
func DefaultCatalog() []models.CountryProfile {
	return []models.CountryProfile{
		{Name: "USA", Code: "US", Continent: "North America", Population: 331000000},
		{Name: "India", Code: "IN", Continent: "Asia", Population: 1380000000},
		{Name: "Brazil", Code: "BR", Continent: "South America", Population: 212000000},
		{Name: "United Kingdom", Code: "UK", Continent: "Europe", Population: 67000000},
		{Name: "Germany", Code: "DE", Continent: "Europe", Population: 83000000},
		{Name: "France", Code: "FR", Continent: "Europe", Population: 67000000},
		{Name: "Japan", Code: "JP", Continent: "Asia", Population: 126000000},
		{Name: "South Africa", Code: "ZA", Continent: "Africa", Population: 59300000},
		{Name: "Australia", Code: "AU", Continent: "Oceania", Population: 25000000},
		{Name: "Mexico", Code: "MX", Continent: "North America", Population: 128000000},
	}
}
