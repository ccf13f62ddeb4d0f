package service

import (
	"fmt"
	"time"

	"roadpulse-server/internal/apperr"
	"roadpulse-server/internal/modules/traffic/aggregate"
	"roadpulse-server/internal/modules/traffic/localtime"
	"roadpulse-server/internal/modules/traffic/repository"
	"roadpulse-server/internal/modules/traffic/types"
)

const (
	dateLayout = "2006-01-02"

	// Store page size for the rolling-window fetch. The result must be the
	// same whatever this is set to; tests exercise that.
	defaultPageSize = 500
)

type Service struct {
	repo     repository.TrafficRepository
	resolver *localtime.Resolver
	pageSize int
}

func NewService(repo repository.TrafficRepository) *Service {
	return &Service{
		repo:     repo,
		resolver: localtime.NewResolver(),
		pageSize: defaultPageSize,
	}
}

// MonthlySummary aggregates a station's records over the trailing one
// calendar month ending at now, per local civil hour.
func (s *Service) MonthlySummary(stationID int, now time.Time) (types.AggregateResult, error) {
	if stationID <= 0 {
		return types.AggregateResult{}, apperr.Validation("missing or invalid stationId")
	}
	if s.repo == nil {
		return types.AggregateResult{}, apperr.Configuration("traffic record store is not configured")
	}

	end := now.UTC().Format(dateLayout)
	start := now.UTC().AddDate(0, -1, 0).Format(dateLayout)

	startKey := fmt.Sprintf("%d#%s", stationID, start)
	endKey := fmt.Sprintf("%d#%sT23:59:59.999", stationID, end)

	records, err := s.fetchWindow(stationID, startKey, endKey)
	if err != nil {
		return types.AggregateResult{}, err
	}

	buckets := aggregate.Hourly(records, s.resolver)
	return aggregate.Assemble(stationID, types.Period{Start: start, End: end}, buckets), nil
}

// fetchWindow retrieves every record in [startKey, endKey], following the
// store's continuation key until it reports none. A failure on any page
// aborts the whole fetch; pages already retrieved are discarded.
func (s *Service) fetchWindow(stationID int, startKey, endKey string) ([]types.SensorRecord, error) {
	var all []types.SensorRecord
	afterKey := ""
	for {
		page, nextKey, err := s.repo.QueryRangePage(stationID, startKey, endKey, afterKey, s.pageSize)
		if err != nil {
			return nil, apperr.StoreQuery(err, "range query failed for station %d", stationID)
		}
		all = append(all, page...)
		if nextKey == "" {
			return all, nil
		}
		afterKey = nextKey
	}
}

// DayRecords returns the raw records of one calendar date via the date index.
func (s *Service) DayRecords(stationID int, date string) ([]types.SensorRecord, error) {
	if stationID <= 0 {
		return nil, apperr.Validation("missing or invalid stationId")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperr.Validation("invalid date %q (expected YYYY-MM-DD)", date)
	}
	if s.repo == nil {
		return nil, apperr.Configuration("traffic record store is not configured")
	}

	records, err := s.repo.GetDayRecords(stationID, date)
	if err != nil {
		return nil, apperr.StoreQuery(err, "day query failed for station %d", stationID)
	}
	return records, nil
}

// StoreReading persists one ingested reading. Re-delivery of the same
// reading overwrites the same composite key, so the write is idempotent.
func (s *Service) StoreReading(reading types.Reading) error {
	return s.repo.UpsertRecord(reading.Record())
}
