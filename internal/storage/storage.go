// Package storage persists the generated dataset and answers the filter and
// aggregation queries the query engine needs.
//
// Store is the collaborator interface consumed by the dataset builder and the
// query engine. SQLiteStore is the default implementation on top of
// database/sql and the pure-Go modernc SQLite driver; package gormstore
// provides a GORM-backed alternative for PostgreSQL.
//
// Stores are written once, in batches, and read-only afterwards. Each batch is
// written inside a single transaction; a rejected row fails its whole batch
// with a *WriteError but leaves earlier batches in place.
package storage

import (
	"fmt"
	"time"

	"github.com/rewired-gh/covidsynth/internal/models"
)

// TableName is the table holding one row per (country, date).
const TableName = "covid_data"

// Filter selects records. Empty slices and zero times do not restrict.
type Filter struct {
	Countries  []string
	Continents []string
	Start      time.Time // inclusive
	End        time.Time // inclusive
}

// Store is the persistence collaborator for the dataset.
type Store interface {
	// CreateSchemaIfMissing creates the record table and its indexes.
	CreateSchemaIfMissing() error
	// Count returns the number of stored records.
	Count() (int64, error)
	// InsertBatch writes records atomically. Any rejected row fails the batch with *WriteError.
	InsertBatch(records []models.DailyRecord) error
	// Query returns records matching filter ordered by date, then country.
	Query(filter Filter) ([]models.DailyRecord, error)
	// AggregateMax returns per-country maxima of the cumulative columns, ordered by country.
	AggregateMax() ([]models.CountrySummary, error)
	// Countries returns distinct country names, optionally restricted to continents, sorted.
	Countries(continents []string) ([]string, error)
	// Continents returns distinct continents, sorted.
	Continents() ([]string, error)
	// DateBounds returns the earliest and latest stored dates, or zero times if empty.
	DateBounds() (time.Time, time.Time, error)
	// Close releases the underlying handle.
	Close() error
}

// WriteError reports a batch insert rejected by the store.
type WriteError struct {
	Rows int
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write failed for batch of %d rows: %v", e.Rows, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
