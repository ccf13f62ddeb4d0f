package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"roadpulse-server/internal/apperr"
	"roadpulse-server/internal/modules/traffic/localtime"
	"roadpulse-server/internal/modules/traffic/types"
)

// fakeRepo serves pages out of an in-memory sorted slice, mimicking the
// string-keyed range behavior of the sqlite store.
type fakeRepo struct {
	records   []types.SensorRecord
	pageCalls int
	failAfter int // fail on call number failAfter (1-based), 0 = never

	lastStartKey string
	lastEndKey   string

	upserted []types.SensorRecord
	dayErr   error
}

func (f *fakeRepo) UpsertRecord(rec types.SensorRecord) error {
	f.upserted = append(f.upserted, rec)
	return nil
}

func (f *fakeRepo) QueryRangePage(stationID int, startKey, endKey, afterKey string, limit int) ([]types.SensorRecord, string, error) {
	f.pageCalls++
	if f.failAfter > 0 && f.pageCalls >= f.failAfter {
		return nil, "", errors.New("store unavailable")
	}
	f.lastStartKey = startKey
	f.lastEndKey = endKey

	sorted := make([]types.SensorRecord, len(f.records))
	copy(sorted, f.records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompositeKey() < sorted[j].CompositeKey()
	})

	var page []types.SensorRecord
	for _, rec := range sorted {
		key := rec.CompositeKey()
		if afterKey != "" && key <= afterKey {
			continue
		}
		if afterKey == "" && key < startKey {
			continue
		}
		if key > endKey {
			break
		}
		page = append(page, rec)
		if len(page) == limit {
			break
		}
	}
	nextKey := ""
	if len(page) == limit {
		nextKey = page[len(page)-1].CompositeKey()
	}
	return page, nextKey, nil
}

func (f *fakeRepo) GetDayRecords(stationID int, date string) ([]types.SensorRecord, error) {
	if f.dayErr != nil {
		return nil, f.dayErr
	}
	var out []types.SensorRecord
	for _, rec := range f.records {
		if len(rec.MeasuredTime) >= len(date) && rec.MeasuredTime[:len(date)] == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestService(repo *fakeRepo, pageSize int) *Service {
	return &Service{
		repo:     repo,
		resolver: localtime.NewResolver(),
		pageSize: pageSize,
	}
}

func mayRecord(stationID, day, hour int, sensor string, value float64) types.SensorRecord {
	return types.SensorRecord{
		StationID:    stationID,
		SensorName:   sensor,
		Unit:         "kpl/h",
		Value:        &value,
		MeasuredTime: fmt.Sprintf("2024-05-%02dT%02d:00:00Z", day, hour),
	}
}

func TestMonthlySummary_InvalidStation(t *testing.T) {
	svc := newTestService(&fakeRepo{}, 10)
	for _, id := range []int{0, -5} {
		if _, err := svc.MonthlySummary(id, time.Now()); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("MonthlySummary(%d) kind = %v, want %v", id, apperr.KindOf(err), apperr.KindValidation)
		}
	}
}

func TestMonthlySummary_NoStore(t *testing.T) {
	svc := &Service{resolver: localtime.NewResolver(), pageSize: 10}
	if _, err := svc.MonthlySummary(1001, time.Now()); apperr.KindOf(err) != apperr.KindConfiguration {
		t.Errorf("kind = %v, want %v", apperr.KindOf(err), apperr.KindConfiguration)
	}
}

func TestMonthlySummary_StoreErrorAborts(t *testing.T) {
	repo := &fakeRepo{failAfter: 2}
	for i := 0; i < 20; i++ {
		repo.records = append(repo.records, mayRecord(1001, 10, i%24, "OHITUKSET_60MIN", 100))
	}
	svc := newTestService(repo, 5)

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	if _, err := svc.MonthlySummary(1001, now); apperr.KindOf(err) != apperr.KindStoreQuery {
		t.Fatalf("kind = %v, want %v", apperr.KindOf(err), apperr.KindStoreQuery)
	}
}

func TestMonthlySummary_WindowKeys(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, 10)

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	if _, err := svc.MonthlySummary(1001, now); err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}

	if want := "1001#2024-04-20"; repo.lastStartKey != want {
		t.Errorf("startKey = %q, want %q", repo.lastStartKey, want)
	}
	if want := "1001#2024-05-20T23:59:59.999"; repo.lastEndKey != want {
		t.Errorf("endKey = %q, want %q", repo.lastEndKey, want)
	}
}

// The aggregate must not depend on how the window happens to be paged.
func TestMonthlySummary_PageSizeInvariant(t *testing.T) {
	repo := &fakeRepo{}
	for day := 1; day <= 20; day++ {
		for hour := 0; hour < 24; hour += 3 {
			repo.records = append(repo.records, mayRecord(1001, day, hour, "OHITUKSET_60MIN", float64(50+hour)))
			speed := mayRecord(1001, day, hour, "KESKINOPEUS_60MIN", 60+float64(day)/2)
			speed.Unit = "km/h"
			repo.records = append(repo.records, speed)
		}
	}
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	var baseline types.AggregateResult
	for i, pageSize := range []int{1, 7, 160, 10000} {
		svc := newTestService(&fakeRepo{records: repo.records}, pageSize)
		res, err := svc.MonthlySummary(1001, now)
		if err != nil {
			t.Fatalf("MonthlySummary with page size %d: %v", pageSize, err)
		}
		if i == 0 {
			baseline = res
			continue
		}
		if !reflect.DeepEqual(res, baseline) {
			t.Errorf("result with page size %d differs from page size 1", pageSize)
		}
	}

	if baseline.StationID != 1001 {
		t.Errorf("StationID = %d, want 1001", baseline.StationID)
	}
	if len(baseline.HourlyAverages) != 24 {
		t.Errorf("HourlyAverages len = %d, want 24", len(baseline.HourlyAverages))
	}
}

func TestDayRecords_Validation(t *testing.T) {
	svc := newTestService(&fakeRepo{}, 10)

	if _, err := svc.DayRecords(0, "2024-05-15"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad station kind = %v, want %v", apperr.KindOf(err), apperr.KindValidation)
	}
	for _, date := range []string{"", "15.5.2024", "2024-13-01", "yesterday"} {
		if _, err := svc.DayRecords(1001, date); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("DayRecords(%q) kind = %v, want %v", date, apperr.KindOf(err), apperr.KindValidation)
		}
	}
}

func TestDayRecords_StoreError(t *testing.T) {
	repo := &fakeRepo{dayErr: errors.New("store unavailable")}
	svc := newTestService(repo, 10)
	if _, err := svc.DayRecords(1001, "2024-05-15"); apperr.KindOf(err) != apperr.KindStoreQuery {
		t.Errorf("kind = %v, want %v", apperr.KindOf(err), apperr.KindStoreQuery)
	}
}

func TestStoreReading(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, 10)

	value := 42.0
	reading := types.Reading{
		StationID:    1001,
		SensorName:   "OHITUKSET_60MIN",
		Unit:         "kpl/h",
		Value:        &value,
		MeasuredTime: time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := svc.StoreReading(reading); err != nil {
		t.Fatalf("StoreReading: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("upserted len = %d, want 1", len(repo.upserted))
	}
	if got := repo.upserted[0].SensorName; got != "OHITUKSET_60MIN" {
		t.Errorf("SensorName = %q, want %q", got, "OHITUKSET_60MIN")
	}
}
