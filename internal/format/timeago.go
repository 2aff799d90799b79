package format

import (
	"fmt"
	"time"
)

// interval is an approximate unit length; months and years are not
// calendar-exact.
type interval struct {
	name    string
	seconds int64
}

// intervals are ordered largest first; the first unit that fits wins.
var intervals = []interval{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// TimeAgo describes how long before now t happened, using the largest
// whole unit that is at least 1 ("1 minute ago", "3 days ago"). Anything
// under a minute, including timestamps in the future, is "just now".
func TimeAgo(t, now time.Time) string {
	elapsed := int64(now.Sub(t) / time.Second)

	for _, iv := range intervals {
		n := elapsed / iv.seconds
		if n >= 1 {
			if n == 1 {
				return fmt.Sprintf("1 %s ago", iv.name)
			}
			return fmt.Sprintf("%d %ss ago", n, iv.name)
		}
	}
	return "just now"
}

// TimeAgoNow is TimeAgo relative to the current time.
func TimeAgoNow(t time.Time) string {
	return TimeAgo(t, time.Now())
}
