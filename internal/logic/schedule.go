package logic

import "time"

// Schedule describes the occupied window in which the target threshold applies.
//
// Hours are half-open: [StartHour, EndHour). There is no wraparound across
// midnight, so a window with EndHour <= StartHour is never active.
// Weekdays are numbered from Monday=0; days after LastActiveWeekday are
// inactive.
type Schedule struct {
	StartHour         int
	EndHour           int
	LastActiveWeekday int
	Location          *time.Location
}

// IsActive reports whether now falls inside the active period.
func (s Schedule) IsActive(now time.Time) bool {
	hour, weekday := s.Local(now)
	inHours := s.StartHour <= hour && hour < s.EndHour
	inDays := weekday <= s.LastActiveWeekday
	return inHours && inDays
}

// Local resolves now into the schedule's zone and returns the hour (0-23)
// and weekday (0=Monday..6=Sunday).
func (s Schedule) Local(now time.Time) (hour, weekday int) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	return t.Hour(), MondayIndex(t.Weekday())
}

// MondayIndex converts a time.Weekday (Sunday=0) to Monday=0..Sunday=6.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
