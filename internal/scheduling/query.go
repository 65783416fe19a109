package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Pagination bounds for listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps Offset well inside int range for any Limit.
	MaxPage = 1_000_000
)

// ListQuery selects a party's active interviews. Listings are scoped to the
// column matching the caller's role.
type ListQuery struct {
	PartyID uuid.UUID
	Role    PartyRole

	// Status narrows the listing; ignored when Upcoming is set.
	Status Status

	// Upcoming keeps scheduled or confirmed interviews starting at or after
	// Now, optionally bounded by Horizon, sorted ascending.
	Upcoming bool
	Now      time.Time
	Horizon  time.Time

	Page  int
	Limit int
}

// Normalize clamps paging to sane defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q
}

// Offset is the number of records skipped before the current page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Statuses returns the status filter the query applies, or nil for none.
func (q ListQuery) Statuses() []Status {
	if q.Upcoming {
		return UpcomingStatuses
	}
	if q.Status != "" {
		return []Status{q.Status}
	}
	return nil
}

// Matches reports whether iv belongs in the listing, ignoring paging.
func (q ListQuery) Matches(iv Interview) bool {
	if !iv.IsActive || !IsParty(iv, q.PartyID, q.Role) {
		return false
	}
	if st := q.Statuses(); st != nil && !hasStatus(st, iv.Status) {
		return false
	}
	if q.Upcoming {
		if iv.ScheduledDate.Before(q.Now) {
			return false
		}
		if !q.Horizon.IsZero() && iv.ScheduledDate.After(q.Horizon) {
			return false
		}
	}
	return true
}

// SortForListing orders upcoming listings soonest first and everything else
// most recent first.
func SortForListing(ivs []Interview, upcoming bool) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if upcoming {
			return ivs[i].ScheduledDate.Before(ivs[j].ScheduledDate)
		}
		return ivs[i].ScheduledDate.After(ivs[j].ScheduledDate)
	})
}

// Page describes the position of a listing page.
type Page struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
}

// NewPage computes page metadata for total matching records.
func NewPage(q ListQuery, total int) Page {
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Page{
		CurrentPage: q.Page,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     q.Page*q.Limit < total,
	}
}

// StatusCount is one row of the status breakdown.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// Stats summarizes a party's interviews.
type Stats struct {
	StatusBreakdown    []StatusCount `json:"status_breakdown"`
	UpcomingInterviews int           `json:"upcoming_interviews"`
	ThisWeekInterviews int           `json:"this_week_interviews"`
	TotalInterviews    int           `json:"total_interviews"`
}

// StatsQuery scopes stats to one party and a reference time.
type StatsQuery struct {
	PartyID uuid.UUID
	Role    PartyRole
	Now     time.Time
}

// WeekBounds returns Sunday 00:00 and Saturday 23:59:59.999 of the week
// containing now, in now's location.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start := midnight.AddDate(0, 0, -int(now.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// ComputeStats aggregates stats over ivs. Breakdown rows are ordered by status name.
func ComputeStats(ivs []Interview, q StatsQuery) Stats {
	weekStart, weekEnd := WeekBounds(q.Now)
	counts := map[Status]int{}
	var st Stats
	for _, iv := range ivs {
		if !iv.IsActive || !IsParty(iv, q.PartyID, q.Role) {
			continue
		}
		counts[iv.Status]++
		st.TotalInterviews++
		if !iv.ScheduledDate.Before(q.Now) && hasStatus(UpcomingStatuses, iv.Status) {
			st.UpcomingInterviews++
		}
		if !iv.ScheduledDate.Before(weekStart) && !iv.ScheduledDate.After(weekEnd) {
			st.ThisWeekInterviews++
		}
	}

	st.StatusBreakdown = make([]StatusCount, 0, len(counts))
	for s, n := range counts {
		st.StatusBreakdown = append(st.StatusBreakdown, StatusCount{Status: s, Count: n})
	}
	sort.Slice(st.StatusBreakdown, func(i, j int) bool {
		return st.StatusBreakdown[i].Status < st.StatusBreakdown[j].Status
	})
	return st
}

func hasStatus(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
