package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"roadpulse-server/internal/modules/traffic/types"
)

//go:embed sql/upsert-record.sql
var upsertRecordSQL string

//go:embed sql/query-range-page-first.sql
var queryRangePageFirstSQL string

//go:embed sql/query-range-page-after.sql
var queryRangePageAfterSQL string

//go:embed sql/get-day-records.sql
var getDayRecordsSQL string

// TrafficRepository is the client of the partitioned sensor_records store.
// The station is the partition key and composite_key the sort key; range
// queries compare keys as strings.
type TrafficRepository interface {
	UpsertRecord(rec types.SensorRecord) error
	// QueryRangePage returns one page of records whose composite key falls
	// in [startKey, endKey], at most limit rows, starting after afterKey
	// when it is non-empty. The second return value is the continuation
	// key for the next page, or "" when the range is exhausted.
	QueryRangePage(stationID int, startKey, endKey, afterKey string, limit int) ([]types.SensorRecord, string, error)
	GetDayRecords(stationID int, date string) ([]types.SensorRecord, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) TrafficRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UpsertRecord(rec types.SensorRecord) error {
	if rec.StationID <= 0 {
		return fmt.Errorf("invalid station id %d", rec.StationID)
	}
	if rec.SensorName == "" {
		return fmt.Errorf("sensor name is required")
	}
	if len(rec.MeasuredTime) < len("2006-01-02") {
		return fmt.Errorf("invalid measured time %q", rec.MeasuredTime)
	}

	var value any
	if rec.Value != nil {
		value = *rec.Value
	}
	var windowStart any
	if rec.TimeWindowStart != nil {
		windowStart = *rec.TimeWindowStart
	}

	_, err := r.db.Exec(upsertRecordSQL,
		rec.StationID,
		rec.CompositeKey(),
		rec.SensorName,
		rec.Unit,
		value,
		rec.MeasuredTime,
		windowStart,
		rec.MeasuredTime[:len("2006-01-02")],
	)
	if err != nil {
		return fmt.Errorf("upsert record %q: %w", rec.CompositeKey(), err)
	}
	return nil
}

func (r *repositoryImpl) QueryRangePage(stationID int, startKey, endKey, afterKey string, limit int) ([]types.SensorRecord, string, error) {
	query := queryRangePageFirstSQL
	lowKey := startKey
	if afterKey != "" {
		query = queryRangePageAfterSQL
		lowKey = afterKey
	}

	rows, err := r.db.Query(query, stationID, lowKey, endKey, limit)
	if err != nil {
		return nil, "", fmt.Errorf("query range page: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close range page rows", "error", err)
		}
	}()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, "", err
	}

	// A short page means the range is exhausted. A full page may not be: hand
	// back the last key so the caller can ask for the next page.
	nextKey := ""
	if len(records) == limit {
		nextKey = records[len(records)-1].CompositeKey()
	}
	return records, nextKey, nil
}

func (r *repositoryImpl) GetDayRecords(stationID int, date string) ([]types.SensorRecord, error) {
	rows, err := r.db.Query(getDayRecordsSQL, stationID, date)
	if err != nil {
		return nil, fmt.Errorf("query day records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close day records rows", "error", err)
		}
	}()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]types.SensorRecord, error) {
	var out []types.SensorRecord
	for rows.Next() {
		var rec types.SensorRecord
		var value sql.NullFloat64
		var windowStart sql.NullString
		if err := rows.Scan(&rec.StationID, &rec.SensorName, &rec.Unit, &value, &rec.MeasuredTime, &windowStart); err != nil {
			return nil, err
		}
		if value.Valid {
			v := value.Float64
			rec.Value = &v
		}
		if windowStart.Valid {
			s := windowStart.String
			rec.TimeWindowStart = &s
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
