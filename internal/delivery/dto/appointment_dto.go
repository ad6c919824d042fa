package dto

import (
	"time"

	"advisor-booking/internal/slot"

	"github.com/google/uuid"
)

// Request DTOs

// CreateAppointmentRequest is the booking payload the wizard submits.
// ScheduledAt is RFC3339; Duration in minutes, zero means the type's default.
type CreateAppointmentRequest struct {
	AdvisorID   uuid.UUID `json:"advisorId" validate:"required"`
	Type        string    `json:"type" validate:"required,oneof=VIDEO_CALL PHONE_CALL IN_PERSON CHAT"`
	ScheduledAt string    `json:"scheduledAt" validate:"required"`
	Duration    int       `json:"duration" validate:"omitempty,min=15,max=240"`
	Notes       string    `json:"notes" validate:"max=2000"`
	Symptoms    []string  `json:"symptoms" validate:"required,min=1,dive,required,max=100"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=ROUTINE URGENT EMERGENCY"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=REQUESTED SCHEDULED CONFIRMED IN_PROGRESS COMPLETED CANCELLED NO_SHOW"`
}

// Response DTOs

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patientId"`
	AdvisorID   uuid.UUID `json:"advisorId"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	Notes       string    `json:"notes,omitempty"`
	Symptoms    []string  `json:"symptoms"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkingWindow is the working-hours window of the requested day
type WorkingWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	AdvisorID      uuid.UUID       `json:"advisorId"`
	Date           string          `json:"date"`
	AvailableSlots []slot.TimeSlot `json:"availableSlots"`
	WorkingHours   *WorkingWindow  `json:"workingHours,omitempty"`
}
