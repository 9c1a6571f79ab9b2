package incident

import (
	"fmt"
	"strings"
	"time"
)

// Style selects how an incident is rendered for a given consumer. Batch
// documents are machine-read; the live tracker writes for humans.
type Style int

const (
	StyleBatch Style = iota
	StyleLive
)

// Timestamp formats t in the style's layout.
func (s Style) Timestamp(t time.Time) string {
	if s == StyleLive {
		return t.UTC().Format(LiveLayout)
	}
	return t.UTC().Format(BatchLayout)
}

// Status returns the status as shown in this style: the normalized token for
// batch, the original label for live. Missing statuses get the style default.
func (s Style) Status(inc Incident) string {
	if s == StyleLive {
		if inc.StatusLabel == "" {
			return LiveStatusDefault
		}
		return inc.StatusLabel
	}
	if inc.Status == "" {
		return StatusOperational
	}
	return inc.Status
}

// Message returns the message as shown in this style. The live style has no
// label to strip when the status tag is missing, so it removes an echoed
// "Status: Unknown" instead.
func (s Style) Message(inc Incident) string {
	if s == StyleLive && inc.StatusLabel == "" {
		return strings.TrimSpace(strings.ReplaceAll(inc.Message, "Status: "+LiveStatusDefault, ""))
	}
	return inc.Message
}

var parseLayouts = []string{BatchLayout, LiveLayout, time.RFC3339, time.RFC3339Nano}

// ParseTimestamp accepts either rendering layout, or RFC 3339. Times without
// a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// TimestampFromParts builds a UTC time from the first six fields of a
// broken-down time (year, month, day, hour, minute, second). Values that
// would need normalizing, like month 13 or second 60, are rejected.
func TimestampFromParts(parts []int) (time.Time, error) {
	if len(parts) < 6 {
		return time.Time{}, ErrTimeMissing
	}
	year, month, day := parts[0], parts[1], parts[2]
	hour, minute, second := parts[3], parts[4], parts[5]

	switch {
	case year < 1 || year > 9999,
		month < 1 || month > 12,
		day < 1 || day > daysIn(time.Month(month), year),
		hour < 0 || hour > 23,
		minute < 0 || minute > 59,
		second < 0 || second > 59:
		return time.Time{}, fmt.Errorf("%w: %v", ErrTimeOutOfRange, parts[:6])
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
