package kernel

import "time"

// epochMillisLowerBound is January 1 2001 00:00:00 UTC expressed in
// milliseconds. The dispatch platform sends event timestamps either in
// seconds or in milliseconds without flagging which; any value below this
// bound, read as milliseconds, would land before 2001 and therefore must
// be seconds.
const epochMillisLowerBound int64 = 978307200000

// TimeFromEpoch converts a provider-supplied epoch value into a UTC time,
// disambiguating seconds from milliseconds by magnitude.
//
// Example:
//
//	kernel.TimeFromEpoch(1700000000)    // seconds
//	kernel.TimeFromEpoch(1700000000000) // milliseconds, same instant
func TimeFromEpoch(v int64) time.Time {
	if v >= epochMillisLowerBound {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}
