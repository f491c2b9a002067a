package tokens

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"time"
)

// DefaultExpiry is used whenever a duration string does not parse.
const DefaultExpiry = 900 * time.Second

// maxExpirySeconds is the longest span a time.Duration can hold.
const maxExpirySeconds = math.MaxInt64 / int64(time.Second)

var expiresInRe = regexp.MustCompile(`^(\d+)([smhd])$`)

var unitSeconds = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 60 * 60,
	"d": 24 * 60 * 60,
}

// ParseExpiresIn turns specs like "15m" or "7d" into a duration. Values too
// large for a time.Duration are clamped to the largest whole second.
func ParseExpiresIn(expiresIn string) time.Duration {
	m := expiresInRe.FindStringSubmatch(expiresIn)
	if m == nil {
		return DefaultExpiry
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return time.Duration(maxExpirySeconds) * time.Second
		}
		return DefaultExpiry
	}
	unit := unitSeconds[m[2]]
	if n > maxExpirySeconds/unit {
		return time.Duration(maxExpirySeconds) * time.Second
	}
	return time.Duration(n*unit) * time.Second
}

func ComputeExpiry(expiresIn string) time.Time {
	return computeExpiryAt(expiresIn, time.Now())
}

func computeExpiryAt(expiresIn string, now time.Time) time.Time {
	return now.Add(ParseExpiresIn(expiresIn))
}
