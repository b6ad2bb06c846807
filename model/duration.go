package model

import (
	"regexp"
	"strconv"
)

// ShortMaxSeconds is the longest duration still classified as a short.
const ShortMaxSeconds = 60

var durationRegex = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration decodes an ISO-8601 duration of the form P[nD][T[nH][nM][nS]]
// into whole seconds. ok is false for empty or malformed input.
func ParseDuration(s string) (seconds int, ok bool) {
	m := durationRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	if m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "" {
		// bare "P" or "PT"
		return 0, false
	}

	units := [4]int{86400, 3600, 60, 1}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		seconds += n * unit
	}

	return seconds, true
}

// IsShort classifies a decoded duration. Unknown durations are never shorts.
func IsShort(seconds int, ok bool) bool {
	return ok && seconds <= ShortMaxSeconds
}
