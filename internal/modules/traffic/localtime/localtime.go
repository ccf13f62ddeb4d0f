// Package localtime converts UTC timestamps to the local civil hour of the
// monitored road network (UTC+2, UTC+3 during daylight saving). The rule is
// explicit so results never depend on the host's timezone database.
package localtime

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	standardOffsetHours = 2
	daylightOffsetHours = 3

	// Bounded caches: the same timestamp string recurs across many sensor
	// records of one window, and the DST flag recurs for every record of a day.
	defaultHourCacheSize = 8192
	defaultDSTCacheSize  = 512
)

// Resolver memoizes resolved hours per timestamp string and daylight-saving
// flags per calendar date. Both caches are process-lifetime, append-only and
// safe for concurrent use; entries are pure functions of their keys, so a
// racing recompute is harmless.
type Resolver struct {
	hours *lru.Cache[string, int]
	dst   *lru.Cache[string, bool]
}

func NewResolver() *Resolver {
	r, err := NewResolverSized(defaultHourCacheSize, defaultDSTCacheSize)
	if err != nil {
		// Only reachable with non-positive sizes.
		panic(err)
	}
	return r
}

func NewResolverSized(hourCacheSize, dstCacheSize int) (*Resolver, error) {
	hours, err := lru.New[string, int](hourCacheSize)
	if err != nil {
		return nil, fmt.Errorf("hour cache: %w", err)
	}
	dst, err := lru.New[string, bool](dstCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dst cache: %w", err)
	}
	return &Resolver{hours: hours, dst: dst}, nil
}

// LocalHour returns the local civil hour (0-23) for an ISO-8601 UTC
// timestamp string.
func (r *Resolver) LocalHour(ts string) (int, error) {
	if h, ok := r.hours.Get(ts); ok {
		return h, nil
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	t = t.UTC()

	offset := standardOffsetHours
	if r.daylightSaving(t) {
		offset = daylightOffsetHours
	}
	h := (t.Hour() + offset) % 24

	r.hours.Add(ts, h)
	return h, nil
}

func (r *Resolver) daylightSaving(t time.Time) bool {
	key := t.Format("2006-01-02")
	if v, ok := r.dst.Get(key); ok {
		return v
	}
	v := daylightSavingOn(t.Year(), t.Month(), t.Day())
	r.dst.Add(key, v)
	return v
}

// daylightSavingOn reports whether daylight saving is in effect on the given
// calendar date: from the last Sunday of March through the day before the
// last Sunday of October.
func daylightSavingOn(year int, month time.Month, day int) bool {
	switch {
	case month > time.March && month < time.October:
		return true
	case month == time.March:
		return day >= lastSunday(year, time.March)
	case month == time.October:
		return day < lastSunday(year, time.October)
	default:
		return false
	}
}

// lastSunday returns the day-of-month of the last Sunday of the month.
func lastSunday(year int, month time.Month) int {
	// Day 0 of the next month is the last calendar day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Day() - int(last.Weekday())
}
