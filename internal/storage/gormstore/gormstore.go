// Package gormstore implements storage.Store on top of GORM so the dataset can
// live in PostgreSQL (or SQLite through GORM's own driver).
package gormstore

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rewired-gh/covidsynth/internal/models"
	"github.com/rewired-gh/covidsynth/internal/storage"
)

// recordRow is the persisted shape of models.DailyRecord.
type recordRow struct {
	Country               string  `gorm:"column:country;type:varchar(255);primaryKey"`
	Date                  string  `gorm:"column:date;type:varchar(10);primaryKey;index"`
	CountryCode           string  `gorm:"column:country_code;type:varchar(8);not null"`
	Continent             string  `gorm:"column:continent;type:varchar(64);not null;index"`
	Population            int64   `gorm:"column:population;not null;check:population > 0"`
	TotalCases            int64   `gorm:"column:total_cases;not null;check:total_cases >= 0"`
	NewCases              int64   `gorm:"column:new_cases;not null;check:new_cases >= 0"`
	TotalDeaths           int64   `gorm:"column:total_deaths;not null;check:total_deaths >= 0"`
	NewDeaths             int64   `gorm:"column:new_deaths;not null;check:new_deaths >= 0"`
	TotalTests            int64   `gorm:"column:total_tests;not null;check:total_tests >= 0"`
	NewTests              int64   `gorm:"column:new_tests;not null;check:new_tests >= 0"`
	PositiveRate          float64 `gorm:"column:positive_rate;not null;check:positive_rate >= 0"`
	ReproductionRate      float64 `gorm:"column:reproduction_rate;not null"`
	ICUPatients           int64   `gorm:"column:icu_patients;not null;check:icu_patients >= 0"`
	HospPatients          int64   `gorm:"column:hosp_patients;not null;check:hosp_patients >= 0"`
	NewVaccinations       int64   `gorm:"column:new_vaccinations;not null;check:new_vaccinations >= 0"`
	TotalVaccinations     int64   `gorm:"column:total_vaccinations;not null;check:total_vaccinations >= 0"`
	PeopleVaccinated      int64   `gorm:"column:people_vaccinated;not null;check:people_vaccinated <= population"`
	PeopleFullyVaccinated int64   `gorm:"column:people_fully_vaccinated;not null;check:people_fully_vaccinated <= people_vaccinated"`
}

func (recordRow) TableName() string {
	return storage.TableName
}

// Store is a storage.Store backed by a GORM connection.
type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects with the named driver ("postgres" or "sqlite") and dsn.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateSchemaIfMissing migrates the covid_data table
func (s *Store) CreateSchemaIfMissing() error {
	if err := s.db.AutoMigrate(&recordRow{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Count returns the number of stored records
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&recordRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// insertChunk bounds rows per INSERT statement. Each row binds 19 values, which
// keeps a statement under SQLite's 32766 and PostgreSQL's 65535 variable limits.
const insertChunk = 500

// InsertBatch writes records inside one transaction
func (s *Store) InsertBatch(records []models.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]recordRow, len(records))
	for i := range records {
		rows[i] = toRow(&records[i])
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, insertChunk).Error
	})
	if err != nil {
		return &storage.WriteError{Rows: len(records), Err: err}
	}
	return nil
}

// Query returns records matching filter ordered by date, then country
func (s *Store) Query(filter storage.Filter) ([]models.DailyRecord, error) {
	q := s.db.Model(&recordRow{})
	if len(filter.Countries) > 0 {
		q = q.Where("country IN ?", filter.Countries)
	}
	if len(filter.Continents) > 0 {
		q = q.Where("continent IN ?", filter.Continents)
	}
	if !filter.Start.IsZero() {
		q = q.Where("date >= ?", filter.Start.Format(models.DateLayout))
	}
	if !filter.End.IsZero() {
		q = q.Where("date <= ?", filter.End.Format(models.DateLayout))
	}

	var rows []recordRow
	if err := q.Order("date").Order("country").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]models.DailyRecord, 0, len(rows))
	for i := range rows {
		r, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// AggregateMax returns per-country maxima of the cumulative columns
func (s *Store) AggregateMax() ([]models.CountrySummary, error) {
	summaries := []models.CountrySummary{}
	err := s.db.Model(&recordRow{}).
		Select(`country,
			MAX(total_cases) AS total_cases,
			MAX(total_deaths) AS total_deaths,
			MAX(total_vaccinations) AS total_vaccinations,
			MAX(people_fully_vaccinated) AS people_fully_vaccinated,
			MAX(population) AS population`).
		Group("country").
		Order("country").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate records: %w", err)
	}
	return summaries, nil
}

// Countries returns distinct country names, optionally restricted to continents
func (s *Store) Countries(continents []string) ([]string, error) {
	q := s.db.Model(&recordRow{})
	if len(continents) > 0 {
		q = q.Where("continent IN ?", continents)
	}
	countries := []string{}
	if err := q.Distinct().Order("country").Pluck("country", &countries).Error; err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// Continents returns distinct continents
func (s *Store) Continents() ([]string, error) {
	continents := []string{}
	if err := s.db.Model(&recordRow{}).Distinct().Order("continent").Pluck("continent", &continents).Error; err != nil {
		return nil, fmt.Errorf("failed to list continents: %w", err)
	}
	return continents, nil
}

// DateBounds returns the earliest and latest stored dates
func (s *Store) DateBounds() (time.Time, time.Time, error) {
	var bounds struct {
		Lo sql.NullString
		Hi sql.NullString
	}
	if err := s.db.Model(&recordRow{}).Select("MIN(date) AS lo, MAX(date) AS hi").Scan(&bounds).Error; err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to read date bounds: %w", err)
	}
	if !bounds.Lo.Valid || !bounds.Hi.Valid {
		return time.Time{}, time.Time{}, nil
	}
	lo, err := time.Parse(models.DateLayout, bounds.Lo.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid stored date %q: %w", bounds.Lo.String, err)
	}
	hi, err := time.Parse(models.DateLayout, bounds.Hi.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid stored date %q: %w", bounds.Hi.String, err)
	}
	return lo, hi, nil
}

func toRow(r *models.DailyRecord) recordRow {
	return recordRow{
		Country:               r.Country,
		Date:                  r.DateString(),
		CountryCode:           r.CountryCode,
		Continent:             r.Continent,
		Population:            r.Population,
		TotalCases:            r.TotalCases,
		NewCases:              r.NewCases,
		TotalDeaths:           r.TotalDeaths,
		NewDeaths:             r.NewDeaths,
		TotalTests:            r.TotalTests,
		NewTests:              r.NewTests,
		PositiveRate:          r.PositiveRate,
		ReproductionRate:      r.ReproductionRate,
		ICUPatients:           r.ICUPatients,
		HospPatients:          r.HospPatients,
		NewVaccinations:       r.NewVaccinations,
		TotalVaccinations:     r.TotalVaccinations,
		PeopleVaccinated:      r.PeopleVaccinated,
		PeopleFullyVaccinated: r.PeopleFullyVaccinated,
	}
}

func fromRow(row *recordRow) (models.DailyRecord, error) {
	date, err := time.Parse(models.DateLayout, row.Date)
	if err != nil {
		return models.DailyRecord{}, fmt.Errorf("invalid stored date %q: %w", row.Date, err)
	}
	return models.DailyRecord{
		Date:                  date,
		Country:               row.Country,
		CountryCode:           row.CountryCode,
		Continent:             row.Continent,
		Population:            row.Population,
		TotalCases:            row.TotalCases,
		NewCases:              row.NewCases,
		TotalDeaths:           row.TotalDeaths,
		NewDeaths:             row.NewDeaths,
		TotalTests:            row.TotalTests,
		NewTests:              row.NewTests,
		PositiveRate:          row.PositiveRate,
		ReproductionRate:      row.ReproductionRate,
		ICUPatients:           row.ICUPatients,
		HospPatients:          row.HospPatients,
		NewVaccinations:       row.NewVaccinations,
		TotalVaccinations:     row.TotalVaccinations,
		PeopleVaccinated:      row.PeopleVaccinated,
		PeopleFullyVaccinated: row.PeopleFullyVaccinated,
	}, nil
}
