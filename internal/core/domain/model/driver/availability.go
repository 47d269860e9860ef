package driver

import (
	"fmt"
	"time"

	"dispatch/internal/pkg/errs"
)

// AvailabilityWindow declares a driver's recurring working hours for one
// weekday. Start and End are minutes from midnight in the operating
// timezone, matching how route windows are stored.
type AvailabilityWindow struct {
	Weekday time.Weekday
	Start   int
	End     int
}

// Validate checks the window describes a non-empty slice of one day.
func (w AvailabilityWindow) Validate() error {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return errs.NewValueIsInvalidErrorWithCause("availability window is invalid",
			fmt.Errorf("%d is not a valid weekday", int(w.Weekday)))
	}
	if w.Start < 0 || w.End > 24*60 || w.Start >= w.End {
		return errs.NewValueIsInvalidErrorWithCause("availability window is invalid",
			fmt.Errorf("window [%d, %d) is not a valid slice of a day", w.Start, w.End))
	}
	return nil
}

// Covers reports whether the window fully contains the given interval on
// the given weekday. Partial overlap does not count: a driver offered a
// route must be available for all of it.
func (w AvailabilityWindow) Covers(weekday time.Weekday, start, end int) bool {
	return w.Weekday == weekday && w.Start <= start && end <= w.End
}
