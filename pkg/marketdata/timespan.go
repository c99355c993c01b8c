package marketdata

import (
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// Timespan is a bar size in the exchange notation, e.g. "5m" or "1d".
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

// AllTimespans lists every supported bar size, shortest first.
var AllTimespans = []Timespan{
	TimespanOneSecond,
	TimespanOneMinute,
	TimespanThreeMinutes,
	TimespanFiveMinutes,
	TimespanFifteenMinutes,
	TimespanThirtyMinutes,
	TimespanOneHour,
	TimespanTwoHours,
	TimespanFourHours,
	TimespanSixHours,
	TimespanEightHours,
	TimespanTwelveHours,
	TimespanOneDay,
	TimespanThreeDays,
	TimespanOneWeek,
	TimespanOneMonth,
}

// ParseTimespan validates a bar size string.
func ParseTimespan(s string) (Timespan, error) {
	for _, t := range AllTimespans {
		if string(t) == s {
			return t, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan %q", s)
}

func (t Timespan) Multiplier() int {
	switch t {
	case TimespanOneSecond:
		return 1
	case TimespanOneMinute:
		return 1
	case TimespanThreeMinutes:
		return 3
	case TimespanFiveMinutes:
		return 5
	case TimespanFifteenMinutes:
		return 15
	case TimespanThirtyMinutes:
		return 30
	case TimespanOneHour:
		return 1
	case TimespanTwoHours:
		return 2
	case TimespanFourHours:
		return 4
	case TimespanSixHours:
		return 6
	case TimespanEightHours:
		return 8
	case TimespanTwelveHours:
		return 12
	case TimespanOneDay:
		return 1
	case TimespanThreeDays:
		return 3
	case TimespanOneWeek:
		return 1
	case TimespanOneMonth:
		return 1
	default:
		return 1
	}
}

func (t Timespan) Timespan() models.Timespan {
	switch t {
	case TimespanOneSecond:
		return models.Second
	case TimespanOneMinute, TimespanThreeMinutes, TimespanFiveMinutes, TimespanFifteenMinutes, TimespanThirtyMinutes:
		return models.Minute
	case TimespanOneHour, TimespanTwoHours, TimespanFourHours, TimespanSixHours, TimespanEightHours, TimespanTwelveHours:
		return models.Hour
	case TimespanOneDay, TimespanThreeDays:
		return models.Day
	case TimespanOneWeek:
		return models.Week
	case TimespanOneMonth:
		return models.Month
	default:
		return models.Day
	}
}

// Duration is the length of one bar. A month counts as 30 days.
func (t Timespan) Duration() time.Duration {
	var unit time.Duration

	switch t.Timespan() {
	case models.Second:
		unit = time.Second
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	case models.Month:
		unit = 30 * 24 * time.Hour
	default:
		unit = 24 * time.Hour
	}

	return unit * time.Duration(t.Multiplier())
}
