package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentType is the consultation channel
type AppointmentType string

const (
	AppointmentTypeVideoCall AppointmentType = "VIDEO_CALL"
	AppointmentTypePhoneCall AppointmentType = "PHONE_CALL"
	AppointmentTypeInPerson  AppointmentType = "IN_PERSON"
	AppointmentTypeChat      AppointmentType = "CHAT"
)

// AppointmentTypes lists the bookable types in display order
var AppointmentTypes = []AppointmentType{
	AppointmentTypeVideoCall,
	AppointmentTypePhoneCall,
	AppointmentTypeInPerson,
	AppointmentTypeChat,
}

var canonicalDurations = map[AppointmentType]int{
	AppointmentTypeVideoCall: 60,
	AppointmentTypePhoneCall: 30,
	AppointmentTypeInPerson:  60,
	AppointmentTypeChat:      30,
}

// DefaultDurationMinutes is used before a type has been chosen
const DefaultDurationMinutes = 60

func (t AppointmentType) Valid() bool {
	_, ok := canonicalDurations[t]
	return ok
}

// CanonicalDuration returns the default length in minutes for the type
func (t AppointmentType) CanonicalDuration() int {
	if d, ok := canonicalDurations[t]; ok {
		return d
	}
	return DefaultDurationMinutes
}

// Priority is the urgency the patient declares
type Priority string

const (
	PriorityRoutine   Priority = "ROUTINE"
	PriorityUrgent    Priority = "URGENT"
	PriorityEmergency Priority = "EMERGENCY"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityRoutine, PriorityUrgent, PriorityEmergency:
		return true
	}
	return false
}

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusRequested  AppointmentStatus = "REQUESTED"
	AppointmentStatusScheduled  AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

// statusTransitions lists legal successors. CANCELLED and NO_SHOW are reachable
// from every pre-terminal status.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusRequested: {
		AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed, AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
	AppointmentStatusInProgress: {
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow,
	},
}

// SlotBlockingStatuses occupy the advisor's time
var SlotBlockingStatuses = []AppointmentStatus{
	AppointmentStatusRequested,
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusRequested, AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusInProgress, AppointmentStatusCompleted, AppointmentStatusCancelled,
		AppointmentStatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s AppointmentStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment represents a persisted booking between a patient and an advisor
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	AdvisorID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Type            AppointmentType   `gorm:"type:varchar(20);not null"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;index"`
	ScheduledAt     time.Time         `gorm:"type:timestamptz;not null;index"`
	DurationMinutes int               `gorm:"not null"`
	Notes           string            `gorm:"type:text"`
	Symptoms        StringList        `gorm:"type:jsonb;not null;default:'[]'"`
	Priority        Priority          `gorm:"type:varchar(20);not null"`
	CreatedAt       time.Time         `gorm:"autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// EndsAt returns the end of the appointment
func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// IsUpcoming reports whether the appointment is in the future and already accepted
func (a *Appointment) IsUpcoming(now time.Time) bool {
	return a.ScheduledAt.After(now) &&
		(a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusConfirmed)
}

// BookedBy reports whether the patient owns the appointment
func (a *Appointment) BookedBy(patientID uuid.UUID) bool {
	return a.PatientID == patientID
}
