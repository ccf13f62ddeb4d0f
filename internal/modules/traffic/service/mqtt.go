package service

import (
	"log/slog"

	"roadpulse-server/internal/modules/traffic/types"
)

// MessageSubscriber is the slice of the MQTT subscriber the module needs
// for attaching its ingestion handler.
type MessageSubscriber interface {
	SetMessageHandler(handler func(reading types.Reading) error)
}

// RegisterIngest attaches the module's reading handler to the subscriber.
func (s *Service) RegisterIngest(subscriber MessageSubscriber) {
	subscriber.SetMessageHandler(func(reading types.Reading) error {
		err := s.StoreReading(reading)
		if err != nil {
			slog.Error("failed to store reading",
				"station_id", reading.StationID,
				"sensor", reading.SensorName,
				"error", err,
			)
			return err
		}

		slog.Debug("stored reading",
			"station_id", reading.StationID,
			"sensor", reading.SensorName,
			"measured_time", reading.MeasuredTime,
		)
		return nil
	})
}
