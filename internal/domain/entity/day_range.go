package entity

import "time"

// DayRange bounds a calendar day, [From, To)
type DayRange struct {
	From time.Time
	To   time.Time
}

// DayRangeOf returns the range covering the calendar day of t in t's location
func DayRangeOf(t time.Time) *DayRange {
	y, m, d := t.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return &DayRange{From: from, To: from.AddDate(0, 0, 1)}
}
