package billing

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for a malformed month token or a half-open
// explicit date pair.
var ErrInvalidPeriod = errors.New("billing: invalid billing period")

// Period is a resolved billing window. Start and End are inclusive UTC
// calendar dates; Month is the display token, YYYY-MM of the start.
type Period struct {
	Month string    `json:"month"`
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// PeriodInput is the raw period selection from the request boundary.
// Month takes precedence over the explicit pair.
type PeriodInput struct {
	Month string
	From  time.Time
	To    time.Time
}

// ResolvePeriod turns a period selection into a concrete window.
//
// A month token expands to the full UTC month. An explicit pair is taken as
// given; supplying only one half is rejected. With neither, the current UTC
// month (per now) applies.
func ResolvePeriod(input PeriodInput, now time.Time) (Period, error) {
	if input.Month != "" {
		start, err := time.Parse("2006-01", input.Month)
		if err != nil {
			return Period{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, input.Month)
		}
		return monthWindow(start), nil
	}

	hasFrom := !input.From.IsZero()
	hasTo := !input.To.IsZero()
	if hasFrom != hasTo {
		return Period{}, fmt.Errorf("%w: both start and end dates are required", ErrInvalidPeriod)
	}
	if hasFrom {
		start := dateOnly(input.From)
		end := dateOnly(input.To)
		if end.Before(start) {
			return Period{}, fmt.Errorf("%w: end date before start date", ErrInvalidPeriod)
		}
		return Period{Month: start.Format("2006-01"), Start: start, End: end}, nil
	}

	return monthWindow(now.UTC()), nil
}

func monthWindow(anchor time.Time) Period {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{Month: start.Format("2006-01"), Start: start, End: end}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
