// Package schedule decides when slips go out, keeps the durable message
// queue moving, and runs the daily planning job.
package schedule

import "time"

// SendAt computes the publish time for a slip: lead time before the
// first kickoff, but never before the daily window opens. Everything is
// computed in local wall time and returned in UTC.
func SendAt(firstKickoff time.Time, loc *time.Location, windowStart int, lead time.Duration) time.Time {
	local := firstKickoff.In(loc)
	sendAt := local.Add(-lead)

	open := time.Date(local.Year(), local.Month(), local.Day(), windowStart, 0, 0, 0, loc)
	if sendAt.Before(open) {
		sendAt = open
	}
	return sendAt.UTC()
}
