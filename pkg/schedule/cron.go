package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Cron adapts s to cron.Schedule so it can drive a *cron.Cron. When no
// further match exists the adapter returns the zero time, which cron
// treats as "never run again".
func (s *Schedule) Cron() cron.Schedule {
	return cronSchedule{s}
}

type cronSchedule struct {
	s *Schedule
}

func (c cronSchedule) Next(t time.Time) time.Time {
	next, err := c.s.Next(t)
	if err != nil {
		return time.Time{}
	}
	// cron compares against times in its own location
	return next.In(t.Location())
}
