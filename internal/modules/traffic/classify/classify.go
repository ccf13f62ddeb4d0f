// Package classify tags sensor readings by semantic category based on the
// sensor name and unit reported by the roadside station.
package classify

import "strings"

type Category int

const (
	Other Category = iota
	TrafficCount
	AverageSpeed
)

func (c Category) String() string {
	switch c {
	case TrafficCount:
		return "traffic_count"
	case AverageSpeed:
		return "average_speed"
	default:
		return "other"
	}
}

const (
	// Sensor names carrying vehicle-pass counts contain this marker,
	// e.g. OHITUKSET_60MIN_KIINTEA_SUUNTA1.
	trafficCountMarker = "OHITUKSET"
	// Sensor names carrying mean speeds contain this marker,
	// e.g. KESKINOPEUS_60MIN_KIINTEA_SUUNTA1.
	averageSpeedMarker = "KESKINOPEUS"

	vehiclesPerHourUnit   = "kpl/h"
	kilometersPerHourUnit = "km/h"
)

// Classify is case-sensitive: substring match on the name, exact match on
// the unit. Anything that matches neither pair is Other.
func Classify(name, unit string) Category {
	if strings.Contains(name, trafficCountMarker) && unit == vehiclesPerHourUnit {
		return TrafficCount
	}
	if strings.Contains(name, averageSpeedMarker) && unit == kilometersPerHourUnit {
		return AverageSpeed
	}
	return Other
}
