package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"roadpulse-server/internal/config"
	"roadpulse-server/internal/modules/traffic/types"
)

// ReadingPublisher is the slice of the MQTT publisher the poller needs.
type ReadingPublisher interface {
	PublishReading(reading types.Reading) error
}

type Poller struct {
	api       *APIClient
	publisher ReadingPublisher
	stations  []int
	interval  time.Duration
}

func New(cfg config.Config, publisher ReadingPublisher) (*Poller, error) {
	if cfg.APIBaseURL == "" {
		return nil, errors.New("ROADDATA_API_URL is required")
	}
	if len(cfg.StationIDs) == 0 {
		return nil, errors.New("STATION_IDS is required")
	}
	return &Poller{
		api:       NewAPIClient(cfg.APIBaseURL),
		publisher: publisher,
		stations:  cfg.StationIDs,
		interval:  cfg.PollInterval,
	}, nil
}

// Run polls once immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce fetches and publishes readings for every configured station. A
// failing station is logged and skipped; the next tick retries naturally.
func (p *Poller) PollOnce(ctx context.Context) {
	for _, stationID := range p.stations {
		values, err := p.api.StationSensorValues(ctx, stationID)
		if err != nil {
			slog.Error("station fetch failed", "station_id", stationID, "error", err)
			continue
		}

		published := 0
		for _, v := range values {
			reading := types.Reading{
				StationID:       v.StationID,
				SensorName:      v.Name,
				Unit:            v.Unit,
				Value:           v.Value,
				MeasuredTime:    v.MeasuredTime,
				TimeWindowStart: v.TimeWindowStart,
			}
			if reading.StationID == 0 {
				reading.StationID = stationID
			}
			if err := p.publisher.PublishReading(reading); err != nil {
				slog.Error("publish reading failed",
					"station_id", stationID,
					"sensor", v.Name,
					"error", err,
				)
				continue
			}
			published++
		}

		slog.Info("station polled",
			"station_id", stationID,
			"sensors", len(values),
			"published", published,
		)
	}
}
