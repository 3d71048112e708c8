package repository

import "time"

// Interval represents candle resolution buckets.
type Interval string

const (
	IV1m  Interval = "1m"
	IV5m  Interval = "5m"
	IV15m Interval = "15m"
	IV1h  Interval = "1h"
	IV4h  Interval = "4h"
	IV1d  Interval = "1d"
)

// IsValidInterval returns true if iv is a supported interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case IV1m, IV5m, IV15m, IV1h, IV4h, IV1d:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default candle interval.
func DefaultInterval() Interval { return IV1h }

// NormalizeInterval converts a raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}

// Duration returns the bucket width of the interval.
func (iv Interval) Duration() time.Duration {
	switch iv {
	case IV1m:
		return time.Minute
	case IV5m:
		return 5 * time.Minute
	case IV15m:
		return 15 * time.Minute
	case IV1h:
		return time.Hour
	case IV4h:
		return 4 * time.Hour
	case IV1d:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// PeriodDuration maps a lookback period label ("1mo", "1y", ...) to a duration.
// Unknown labels fall back to one year.
func PeriodDuration(p string) time.Duration {
	const day = 24 * time.Hour
	switch p {
	case "1mo":
		return 30 * day
	case "3mo":
		return 90 * day
	case "6mo":
		return 180 * day
	case "1y":
		return 365 * day
	case "2y":
		return 2 * 365 * day
	case "5y":
		return 5 * 365 * day
	default:
		return 365 * day
	}
}
