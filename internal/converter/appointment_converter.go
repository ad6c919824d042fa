package converter

import (
	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		AdvisorID:   a.AdvisorID,
		Type:        string(a.Type),
		Status:      string(a.Status),
		ScheduledAt: a.ScheduledAt,
		Duration:    a.DurationMinutes,
		Notes:       a.Notes,
		Symptoms:    nonNil(a.Symptoms),
		Priority:    string(a.Priority),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities to AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
