package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rewired-gh/covidsynth/internal/models"

	_ "modernc.org/sqlite"
)

var schemaStatements = []string{`
CREATE TABLE IF NOT EXISTS covid_data (
	date                    TEXT    NOT NULL,
	country                 TEXT    NOT NULL,
	country_code            TEXT    NOT NULL,
	continent               TEXT    NOT NULL,
	population              INTEGER NOT NULL CHECK (population > 0),
	total_cases             INTEGER NOT NULL CHECK (total_cases >= 0),
	new_cases               INTEGER NOT NULL CHECK (new_cases >= 0),
	total_deaths            INTEGER NOT NULL CHECK (total_deaths >= 0),
	new_deaths              INTEGER NOT NULL CHECK (new_deaths >= 0),
	total_tests             INTEGER NOT NULL CHECK (total_tests >= 0),
	new_tests               INTEGER NOT NULL CHECK (new_tests >= 0),
	positive_rate           REAL    NOT NULL CHECK (positive_rate >= 0),
	reproduction_rate       REAL    NOT NULL,
	icu_patients            INTEGER NOT NULL CHECK (icu_patients >= 0),
	hosp_patients           INTEGER NOT NULL CHECK (hosp_patients >= 0),
	new_vaccinations        INTEGER NOT NULL CHECK (new_vaccinations >= 0),
	total_vaccinations      INTEGER NOT NULL CHECK (total_vaccinations >= 0),
	people_vaccinated       INTEGER NOT NULL CHECK (people_vaccinated <= population),
	people_fully_vaccinated INTEGER NOT NULL CHECK (people_fully_vaccinated <= people_vaccinated),
	PRIMARY KEY (country, date)
)`,
	`CREATE INDEX IF NOT EXISTS idx_covid_data_date ON covid_data(date)`,
	`CREATE INDEX IF NOT EXISTS idx_covid_data_continent ON covid_data(continent)`,
}

const recordColumns = `date, country, country_code, continent, population,
	total_cases, new_cases, total_deaths, new_deaths, total_tests, new_tests,
	positive_rate, reproduction_rate, icu_patients, hosp_patients,
	new_vaccinations, total_vaccinations, people_vaccinated, people_fully_vaccinated`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (or creates) the database at dbPath.
// If dbPath is empty, uses an OS-appropriate tmp directory.
// ":memory:" opens a private in-memory database.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "covidsynth", "covid_data.db")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" one database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSchemaIfMissing creates the covid_data table and indexes
func (s *SQLiteStore) CreateSchemaIfMissing() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored records
func (s *SQLiteStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// InsertBatch writes records in one transaction
func (s *SQLiteStore) InsertBatch(records []models.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &WriteError{Rows: len(records), Err: err}
	}

	stmt, err := tx.Prepare("INSERT INTO " + TableName + " (" + recordColumns + ") VALUES (" + placeholders(19) + ")")
	if err != nil {
		_ = tx.Rollback()
		return &WriteError{Rows: len(records), Err: err}
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		_, err := stmt.Exec(
			r.DateString(), r.Country, r.CountryCode, r.Continent, r.Population,
			r.TotalCases, r.NewCases, r.TotalDeaths, r.NewDeaths, r.TotalTests, r.NewTests,
			r.PositiveRate, r.ReproductionRate, r.ICUPatients, r.HospPatients,
			r.NewVaccinations, r.TotalVaccinations, r.PeopleVaccinated, r.PeopleFullyVaccinated,
		)
		if err != nil {
			_ = tx.Rollback()
			return &WriteError{Rows: len(records), Err: fmt.Errorf("row %d (%s %s): %w", i, r.Country, r.DateString(), err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Rows: len(records), Err: err}
	}
	return nil
}

// Query returns records matching filter ordered by date, then country
func (s *SQLiteStore) Query(filter Filter) ([]models.DailyRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(filter.Countries) > 0 {
		where = append(where, "country IN ("+placeholders(len(filter.Countries))+")")
		for _, c := range filter.Countries {
			args = append(args, c)
		}
	}
	if len(filter.Continents) > 0 {
		where = append(where, "continent IN ("+placeholders(len(filter.Continents))+")")
		for _, c := range filter.Continents {
			args = append(args, c)
		}
	}
	if !filter.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.Start.Format(models.DateLayout))
	}
	if !filter.End.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.End.Format(models.DateLayout))
	}

	query := "SELECT " + recordColumns + " FROM " + TableName
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, country"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.DailyRecord{}
	for rows.Next() {
		var (
			r    models.DailyRecord
			date string
		)
		if err := rows.Scan(
			&date, &r.Country, &r.CountryCode, &r.Continent, &r.Population,
			&r.TotalCases, &r.NewCases, &r.TotalDeaths, &r.NewDeaths, &r.TotalTests, &r.NewTests,
			&r.PositiveRate, &r.ReproductionRate, &r.ICUPatients, &r.HospPatients,
			&r.NewVaccinations, &r.TotalVaccinations, &r.PeopleVaccinated, &r.PeopleFullyVaccinated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if r.Date, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// AggregateMax returns per-country maxima of the cumulative columns
func (s *SQLiteStore) AggregateMax() ([]models.CountrySummary, error) {
	rows, err := s.db.Query(`
		SELECT
			country,
			MAX(total_cases),
			MAX(total_deaths),
			MAX(total_vaccinations),
			MAX(people_fully_vaccinated),
			MAX(population)
		FROM ` + TableName + `
		GROUP BY country
		ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate records: %w", err)
	}
	defer rows.Close()

	summaries := []models.CountrySummary{}
	for rows.Next() {
		var cs models.CountrySummary
		if err := rows.Scan(&cs.Country, &cs.TotalCases, &cs.TotalDeaths, &cs.TotalVaccinations,
			&cs.PeopleFullyVaccinated, &cs.Population); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return summaries, nil
}

// Countries returns distinct country names, optionally restricted to continents
func (s *SQLiteStore) Countries(continents []string) ([]string, error) {
	query := "SELECT DISTINCT country FROM " + TableName
	args := make([]interface{}, 0, len(continents))
	if len(continents) > 0 {
		query += " WHERE continent IN (" + placeholders(len(continents)) + ")"
		for _, c := range continents {
			args = append(args, c)
		}
	}
	query += " ORDER BY country"
	return s.queryStrings(query, args...)
}

// Continents returns distinct continents
func (s *SQLiteStore) Continents() ([]string, error) {
	return s.queryStrings("SELECT DISTINCT continent FROM " + TableName + " ORDER BY continent")
}

// DateBounds returns the earliest and latest stored dates
func (s *SQLiteStore) DateBounds() (time.Time, time.Time, error) {
	var lo, hi sql.NullString
	if err := s.db.QueryRow("SELECT MIN(date), MAX(date) FROM " + TableName).Scan(&lo, &hi); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read date bounds: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return time.Time{}, time.Time{}, nil
	}
	start, err := time.Parse(models.DateLayout, lo.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid stored date %q: %w", lo.String, err)
	}
	end, err := time.Parse(models.DateLayout, hi.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid stored date %q: %w", hi.String, err)
	}
	return start, end, nil
}

func (s *SQLiteStore) queryStrings(query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
