package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/covidsynth/internal/models"
)

func mustStorage(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.CreateSchemaIfMissing(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func record(country, continent string, d int, totalCases int64) models.DailyRecord {
	return models.DailyRecord{
		Date:                  day(d),
		Country:               country,
		CountryCode:           strings.ToUpper(country[:2]),
		Continent:             continent,
		Population:            1000000,
		TotalCases:            totalCases,
		NewCases:              10,
		TotalDeaths:           totalCases / 100,
		NewDeaths:             1,
		TotalTests:            totalCases * 10,
		NewTests:              100,
		TotalVaccinations:     int64(d) * 1000,
		NewVaccinations:       1000,
		PeopleVaccinated:      int64(d) * 1000,
		PeopleFullyVaccinated: int64(d) * 800,
		PositiveRate:          0.1,
		ReproductionRate:      1.2,
		ICUPatients:           1,
		HospPatients:          2,
	}
}

func seed(t *testing.T, s *SQLiteStore) {
	t.Helper()
	batch := []models.DailyRecord{
		record("Japan", "Asia", 1, 100),
		record("Japan", "Asia", 2, 110),
		record("Japan", "Asia", 3, 120),
		record("Germany", "Europe", 1, 500),
		record("Germany", "Europe", 2, 520),
		record("France", "Europe", 2, 300),
		record("France", "Europe", 3, 330),
	}
	if err := s.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
}

func TestStorage_CountAfterInsert(t *testing.T) {
	s := mustStorage(t)

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected empty store, got %d rows", n)
	}

	seed(t, s)

	n, err = s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 7 {
		t.Errorf("Expected 7 rows, got %d", n)
	}

	// Schema creation is repeatable on a populated store.
	if err := s.CreateSchemaIfMissing(); err != nil {
		t.Errorf("second CreateSchemaIfMissing failed: %v", err)
	}
}

func TestStorage_QueryRoundTrip(t *testing.T) {
	s := mustStorage(t)
	want := record("Japan", "Asia", 4, 4321)
	want.PositiveRate = 0.125
	want.ReproductionRate = 1.375
	if err := s.InsertBatch([]models.DailyRecord{want}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := s.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	if got[0] != want {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", got[0], want)
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	s := mustStorage(t)
	seed(t, s)

	tests := []struct {
		name   string
		filter Filter
		want   []string // "country@day"
	}{
		{
			name:   "no filter orders by date then country",
			filter: Filter{},
			want:   []string{"Germany@1", "Japan@1", "France@2", "Germany@2", "Japan@2", "France@3", "Japan@3"},
		},
		{
			name:   "country set",
			filter: Filter{Countries: []string{"Japan", "France"}},
			want:   []string{"Japan@1", "France@2", "Japan@2", "France@3", "Japan@3"},
		},
		{
			name:   "continent set",
			filter: Filter{Continents: []string{"Europe"}},
			want:   []string{"Germany@1", "France@2", "Germany@2", "France@3"},
		},
		{
			name:   "inclusive date range",
			filter: Filter{Countries: []string{"Japan"}, Start: day(2), End: day(3)},
			want:   []string{"Japan@2", "Japan@3"},
		},
		{
			name:   "inverted range is empty",
			filter: Filter{Start: day(3), End: day(1)},
			want:   []string{},
		},
		{
			name:   "unknown country is empty",
			filter: Filter{Countries: []string{"Atlantis"}},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			got := make([]string, 0, len(records))
			for _, r := range records {
				got = append(got, r.Country+"@"+r.Date.Format("2"))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Query() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestStorage_AggregateMax(t *testing.T) {
	s := mustStorage(t)
	seed(t, s)

	summaries, err := s.AggregateMax()
	if err != nil {
		t.Fatalf("AggregateMax failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("Expected 3 summaries, got %d", len(summaries))
	}

	expected := map[string]int64{"France": 330, "Germany": 520, "Japan": 120}
	for i, cs := range summaries {
		if want, ok := expected[cs.Country]; !ok || cs.TotalCases != want {
			t.Errorf("Summary %s total_cases = %d, expected %d", cs.Country, cs.TotalCases, want)
		}
		if i > 0 && summaries[i-1].Country > cs.Country {
			t.Error("Summaries not sorted by country")
		}
		if cs.Population != 1000000 {
			t.Errorf("Summary %s population = %d", cs.Country, cs.Population)
		}
	}
}

func TestStorage_CountriesAndContinents(t *testing.T) {
	s := mustStorage(t)
	seed(t, s)

	all, err := s.Countries(nil)
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if strings.Join(all, ",") != "France,Germany,Japan" {
		t.Errorf("Countries(nil) = %v", all)
	}

	europe, err := s.Countries([]string{"Europe"})
	if err != nil {
		t.Fatalf("Countries failed: %v", err)
	}
	if strings.Join(europe, ",") != "France,Germany" {
		t.Errorf("Countries(Europe) = %v", europe)
	}

	continents, err := s.Continents()
	if err != nil {
		t.Fatalf("Continents failed: %v", err)
	}
	if strings.Join(continents, ",") != "Asia,Europe" {
		t.Errorf("Continents() = %v", continents)
	}
}

func TestStorage_DateBounds(t *testing.T) {
	s := mustStorage(t)

	lo, hi, err := s.DateBounds()
	if err != nil {
		t.Fatalf("DateBounds failed: %v", err)
	}
	if !lo.IsZero() || !hi.IsZero() {
		t.Errorf("Expected zero bounds on empty store, got %v..%v", lo, hi)
	}

	seed(t, s)
	lo, hi, err = s.DateBounds()
	if err != nil {
		t.Fatalf("DateBounds failed: %v", err)
	}
	if !lo.Equal(day(1)) || !hi.Equal(day(3)) {
		t.Errorf("DateBounds() = %v..%v", lo, hi)
	}
}

func TestStorage_InsertBatchRejectsRow(t *testing.T) {
	s := mustStorage(t)

	bad := record("Japan", "Asia", 2, 100)
	bad.NewCases = -5
	batch := []models.DailyRecord{record("Japan", "Asia", 1, 90), bad}

	err := s.InsertBatch(batch)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected *WriteError, got %v", err)
	}
	if writeErr.Rows != 2 {
		t.Errorf("Expected batch size 2 in error, got %d", writeErr.Rows)
	}

	// The failed batch is rolled back as a unit.
	n, _ := s.Count()
	if n != 0 {
		t.Errorf("Expected rollback to leave 0 rows, got %d", n)
	}
}

func TestStorage_InsertBatchDuplicateKey(t *testing.T) {
	s := mustStorage(t)
	seed(t, s)

	err := s.InsertBatch([]models.DailyRecord{record("Japan", "Asia", 1, 100)})
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected *WriteError for duplicate (country, date), got %v", err)
	}
}

func TestStorage_InsertWithoutSchemaFails(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	err = s.InsertBatch([]models.DailyRecord{record("Japan", "Asia", 1, 100)})
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected *WriteError without schema, got %v", err)
	}
	if err := s.InsertBatch(nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}

func TestStorage_FilePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "covid.db")

	s, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := s.CreateSchemaIfMissing(); err != nil {
		t.Fatalf("CreateSchemaIfMissing failed: %v", err)
	}
	seed(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 7 {
		t.Errorf("Expected 7 persisted rows, got %d", n)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{0, ""},
		{1, "?"},
		{3, "?,?,?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.expected {
			t.Errorf("placeholders(%d) = %q, expected %q", tt.n, got, tt.expected)
		}
	}
}
