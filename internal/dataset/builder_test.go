package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/covidsynth/internal/models"
	"github.com/rewired-gh/covidsynth/internal/storage"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC) }

func mustStorage(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// flakyStore accepts a number of batches and rejects the next one.
type flakyStore struct {
	storage.Store
	okBatches int
	inserted  int
	calls     int
}

func (f *flakyStore) CreateSchemaIfMissing() error { return nil }
func (f *flakyStore) Count() (int64, error)        { return int64(f.inserted), nil }
func (f *flakyStore) InsertBatch(records []models.DailyRecord) error {
	f.calls++
	if f.calls > f.okBatches {
		return &storage.WriteError{Rows: len(records), Err: errors.New("disk full")}
	}
	f.inserted += len(records)
	return nil
}

func TestEnsurePopulatedIsIdempotent(t *testing.T) {
	s := mustStorage(t)
	b := New(s, Options{Seed: 11, Now: fixedNow})

	first, err := b.EnsurePopulated()
	require.NoError(t, err)
	require.False(t, first.Skipped)
	assert.Equal(t, 10, first.Countries)
	assert.Equal(t, uint64(11), first.Seed)
	assert.NotEmpty(t, first.RunID)
	assert.Equal(t, "2026-10-19", first.End.Format(models.DateLayout))
	assert.Equal(t, "2025-10-20", first.Start.Format(models.DateLayout))

	// Each country loses at most 30 leading days to its onset offset.
	assert.GreaterOrEqual(t, first.Records, 10*(DefaultDays-30))
	assert.LessOrEqual(t, first.Records, 10*DefaultDays)
	assert.Equal(t, (first.Records+DefaultBatchSize-1)/DefaultBatchSize, first.Batches)

	countAfterFirst, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(first.Records), countAfterFirst)

	second, err := b.EnsurePopulated()
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, countAfterFirst, second.Existing)

	countAfterSecond, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, countAfterFirst, countAfterSecond)
}

func TestEnsurePopulatedReproducibleForSeed(t *testing.T) {
	a := mustStorage(t)
	b := mustStorage(t)

	_, err := New(a, Options{Seed: 77, Days: 40, Now: fixedNow}).EnsurePopulated()
	require.NoError(t, err)
	_, err = New(b, Options{Seed: 77, Days: 40, Now: fixedNow}).EnsurePopulated()
	require.NoError(t, err)

	ra, err := a.Query(storage.Filter{})
	require.NoError(t, err)
	rb, err := b.Query(storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestEnsurePopulatedBatches(t *testing.T) {
	s := mustStorage(t)
	catalog := []models.CountryProfile{{Name: "Testland", Code: "TL", Continent: "Asia", Population: 1000}}

	report, err := New(s, Options{Seed: 5, Days: 100, BatchSize: 7, Catalog: catalog, Now: fixedNow}).EnsurePopulated()
	require.NoError(t, err)
	assert.Equal(t, (report.Records+6)/7, report.Batches)

	records, err := s.Query(storage.Filter{})
	require.NoError(t, err)
	require.Len(t, records, report.Records)
	for _, r := range records {
		assert.LessOrEqual(t, r.PeopleVaccinated, int64(1000))
		assert.LessOrEqual(t, r.PeopleFullyVaccinated, r.PeopleVaccinated)
	}
}

func TestEnsurePopulatedSurfacesWriteError(t *testing.T) {
	store := &flakyStore{okBatches: 1}
	report, err := New(store, Options{Seed: 3, BatchSize: 500, Now: fixedNow}).EnsurePopulated()

	require.Error(t, err)
	assert.Nil(t, report)

	var writeErr *storage.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, 500, writeErr.Rows)
	// The first batch stays written; there is no rollback or retry.
	assert.Equal(t, 500, store.inserted)
	assert.Equal(t, 2, store.calls)
}

func TestEnsurePopulatedRejectsBadProfile(t *testing.T) {
	s := mustStorage(t)
	catalog := []models.CountryProfile{{Name: "Nowhere", Code: "NW", Continent: "Asia"}}

	_, err := New(s, Options{Seed: 1, Catalog: catalog, Now: fixedNow}).EnsurePopulated()
	require.Error(t, err)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New(nil, Options{})
	assert.Equal(t, DefaultDays, b.days)
	assert.Equal(t, DefaultBatchSize, b.batchSize)
	assert.Len(t, b.catalog, 10)
	assert.NotNil(t, b.now)
}
