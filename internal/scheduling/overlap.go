package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching boundaries do not overlap, so back-to-back bookings are allowed.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Interval is a half-open time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether Start is strictly before End.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps applies the overlap predicate to two intervals.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// AnyOverlap reports whether candidate overlaps any of busy.
func AnyOverlap(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// ConflictQuery selects the interviews that would clash with a proposed interval.
type ConflictQuery struct {
	PartyID   uuid.UUID
	Role      PartyRole // AnyRole matches either side
	Start     time.Time
	End       time.Time
	ExcludeID *uuid.UUID
}

// Interval returns the proposed interval.
func (q ConflictQuery) Interval() Interval {
	return Interval{Start: q.Start, End: q.End}
}

// Conflicts reports whether iv matches q: active, blocking status, same
// party, not excluded, and overlapping the proposed interval.
func (q ConflictQuery) Conflicts(iv Interview) bool {
	if !iv.Blocks() {
		return false
	}
	if q.ExcludeID != nil && iv.ID == *q.ExcludeID {
		return false
	}
	if !Involves(iv, q.PartyID, q.Role) {
		return false
	}
	return Overlaps(iv.ScheduledDate, iv.EndTime(), q.Start, q.End)
}

// FilterConflicts returns the members of ivs that conflict with q, in input order.
func FilterConflicts(ivs []Interview, q ConflictQuery) []Interview {
	var out []Interview
	for _, iv := range ivs {
		if q.Conflicts(iv) {
			out = append(out, iv)
		}
	}
	return out
}

// Intervals projects interviews onto their occupied intervals.
func Intervals(ivs []Interview) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, iv.Interval())
	}
	return out
}
