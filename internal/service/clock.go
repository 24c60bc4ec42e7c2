package service

import (
	"fmt"
	"strings"
	"time"
)

// Clock stamps documents in the exchange's local zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(tz string) (*Clock, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", tz, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// FixedClock always returns at. Used by tests and replays.
func FixedClock(at time.Time) *Clock {
	return &Clock{loc: at.Location(), now: func() time.Time { return at }}
}

func (c *Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c.now().In(c.loc)
}

func (c *Clock) Location() *time.Location {
	if c == nil {
		return time.Local
	}
	return c.loc
}

func asof(t time.Time) string {
	return t.Format(time.RFC3339)
}
