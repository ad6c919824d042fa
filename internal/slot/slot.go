// Package slot partitions an advisor's working hours into bookable time slots
// and shapes slot lists for date and time pickers.
package slot

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// DefaultWindowDays is how far ahead a date picker offers dates, today included
	DefaultWindowDays = 14
)

var (
	ErrInvalidDate      = errors.New("invalid date, use YYYY-MM-DD")
	ErrInvalidTimeOfDay = errors.New("invalid time of day, use HH:MM")
	ErrInvalidWindow    = errors.New("working hours must start before they end")
	ErrDateInPast       = errors.New("date is in the past")
	ErrInvalidLength    = errors.New("slot length must be positive")
)

// Window is one weekday entry of a working-hours template.
type Window struct {
	Start     string
	End       string
	Available bool
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two half-open intervals share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// TimeSlot is a candidate appointment interval.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

func (s TimeSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// ParseTimeOfDay parses "HH:MM" into hours and minutes.
func ParseTimeOfDay(s string) (int, int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t.Hour(), t.Minute(), nil
}

// ValidateWindow checks both bounds parse and start is strictly before end.
func ValidateWindow(start, end string) error {
	sh, sm, err := ParseTimeOfDay(start)
	if err != nil {
		return err
	}
	eh, em, err := ParseTimeOfDay(end)
	if err != nil {
		return err
	}
	if sh*60+sm >= eh*60+em {
		return ErrInvalidWindow
	}
	return nil
}

// Generate partitions the window on date into consecutive slots of the given
// length. A trailing remainder shorter than length is dropped. Slots that
// overlap any booked interval are returned with Available=false.
// The window is interpreted in date's location.
func Generate(w Window, date time.Time, booked []Interval, length time.Duration) ([]TimeSlot, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	if !w.Available {
		return []TimeSlot{}, nil
	}
	if err := ValidateWindow(w.Start, w.End); err != nil {
		return nil, err
	}

	sh, sm, _ := ParseTimeOfDay(w.Start)
	eh, em, _ := ParseTimeOfDay(w.End)

	y, m, d := date.Date()
	loc := date.Location()
	cur := time.Date(y, m, d, sh, sm, 0, 0, loc)
	end := time.Date(y, m, d, eh, em, 0, 0, loc)

	slots := make([]TimeSlot, 0, int(end.Sub(cur)/length))
	for !cur.Add(length).After(end) {
		candidate := Interval{Start: cur, End: cur.Add(length)}
		slots = append(slots, TimeSlot{
			Start:     candidate.Start,
			End:       candidate.End,
			Available: !overlapsAny(candidate, booked),
		})
		cur = candidate.End
	}
	return slots, nil
}

func overlapsAny(candidate Interval, booked []Interval) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// Selectable drops slots that are not available.
func Selectable(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// FindAvailable returns the available slot starting exactly at start.
func FindAvailable(slots []TimeSlot, start time.Time) (TimeSlot, bool) {
	for _, s := range slots {
		if s.Available && s.Start.Equal(start) {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// ParseDate parses YYYY-MM-DD as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidateDate rejects calendar dates before today's date.
func ValidateDate(date, today time.Time) error {
	if StartOfDay(date).Before(StartOfDay(today.In(date.Location()))) {
		return ErrDateInPast
	}
	return nil
}

// DateOption is one entry of a date picker.
type DateOption struct {
	Date    string
	Label   string
	IsToday bool
}

// DateOptions returns days consecutive dates starting with today.
func DateOptions(today time.Time, days int) []DateOption {
	if days <= 0 {
		days = DefaultWindowDays
	}
	start := StartOfDay(today)
	opts := make([]DateOption, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		opts = append(opts, DateOption{
			Date:    d.Format(DateLayout),
			Label:   d.Format("Mon 02.01."),
			IsToday: i == 0,
		})
	}
	return opts
}

// ViewState is what a time picker shows for the selected date.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewEmpty
	ViewSlots
)

func (v ViewState) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewEmpty:
		return "empty"
	case ViewSlots:
		return "slots"
	}
	return "unknown"
}

// StateOf derives the view state. A loaded day with no selectable slot is
// Empty, never Loading.
func StateOf(slots []TimeSlot, loaded bool) ViewState {
	if !loaded {
		return ViewLoading
	}
	if len(Selectable(slots)) == 0 {
		return ViewEmpty
	}
	return ViewSlots
}
