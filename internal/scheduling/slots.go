package scheduling

import "time"

// Working-hours window and slot granularity.
const (
	WorkdayStartHour     = 9
	WorkdayEndHour       = 18
	SlotStepMinutes      = 30
	workdayLengthMinutes = (WorkdayEndHour - WorkdayStartHour) * 60
)

// Slot is a candidate interview time inside working hours.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"`
	Available bool      `json:"available"`
}

// WorkingWindow returns the 09:00–18:00 window of date, in date's own location.
func WorkingWindow(date time.Time) Interval {
	y, m, d := date.Date()
	loc := date.Location()
	return Interval{
		Start: time.Date(y, m, d, WorkdayStartHour, 0, 0, 0, loc),
		End:   time.Date(y, m, d, WorkdayEndHour, 0, 0, 0, loc),
	}
}

// GenerateSlots lists every 30-minute boundary in the working window whose
// [start, start+duration) fits before closing and overlaps none of busy.
// Slots are ascending by start time. A non-positive duration, or one longer
// than the window, yields an empty list.
func GenerateSlots(date time.Time, durationMinutes int, busy []Interval) []Slot {
	slots := []Slot{}
	if durationMinutes <= 0 || durationMinutes > workdayLengthMinutes {
		return slots
	}

	window := WorkingWindow(date)
	length := time.Duration(durationMinutes) * time.Minute
	step := SlotStepMinutes * time.Minute

	for start := window.Start; start.Before(window.End); start = start.Add(step) {
		end := start.Add(length)
		if end.After(window.End) {
			break
		}
		if AnyOverlap(Interval{Start: start, End: end}, busy) {
			continue
		}
		slots = append(slots, Slot{
			StartTime: start,
			EndTime:   end,
			Duration:  durationMinutes,
			Available: true,
		})
	}
	return slots
}
