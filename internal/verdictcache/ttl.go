package verdictcache

import "time"

// TTL bounds for cached verdicts. Verdicts are a pure function of the series, so
// the TTL only limits how long a stale classifier version can be served.
const (
	DefaultTTL = 24 * time.Hour
	MinTTL     = time.Minute
	MaxTTL     = 30 * 24 * time.Hour
)

// ClampTTL keeps a configured TTL within [MinTTL, MaxTTL], using DefaultTTL for
// non-positive values
func ClampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	case ttl > MaxTTL:
		return MaxTTL
	default:
		return ttl
	}
}
