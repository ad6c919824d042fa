package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Weekday is the upper-case day name used on the wire and in the database
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayByTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday of t in t's location.
func WeekdayOf(t time.Time) Weekday {
	return weekdayByTime[t.Weekday()]
}

func (d Weekday) Valid() bool {
	_, ok := weekdayOrder[d]
	return ok
}

// WorkingHours is the recurring availability template of an advisor for one weekday.
// The (advisor_id, day_of_week) pair is unique.
type WorkingHours struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"-"`
	AdvisorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_working_hours_advisor_day" json:"-"`
	DayOfWeek Weekday   `gorm:"type:varchar(10);not null;uniqueIndex:idx_working_hours_advisor_day" json:"dayOfWeek"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end"`
	Available bool      `gorm:"not null" json:"available"`
}

func (WorkingHours) TableName() string {
	return "advisor_working_hours"
}

var weekdayOrder = map[Weekday]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5, Sunday: 6,
}

// SortWorkingHours orders entries Monday first
func SortWorkingHours(hours []WorkingHours) {
	sort.SliceStable(hours, func(i, j int) bool {
		return weekdayOrder[hours[i].DayOfWeek] < weekdayOrder[hours[j].DayOfWeek]
	})
}
