package converter

import (
	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
)

// AdvisorToResponse converts an Advisor entity to AdvisorResponse DTO
func AdvisorToResponse(advisor *entity.Advisor) *dto.AdvisorResponse {
	if advisor == nil {
		return nil
	}

	reviews := make([]dto.ReviewResponse, len(advisor.RecentReviews))
	for i, r := range advisor.RecentReviews {
		reviews[i] = dto.ReviewResponse{
			ID:          r.ID,
			PatientName: r.PatientName,
			Rating:      r.Rating,
			Comment:     r.Comment,
			Date:        r.CreatedAt,
		}
	}

	return &dto.AdvisorResponse{
		ID:              advisor.ID,
		Name:            advisor.Name,
		Specialization:  advisor.Specialization,
		Rating:          advisor.Rating,
		Languages:       nonNil(advisor.Languages),
		ImageURL:        advisor.ImageURL,
		Email:           advisor.Email,
		Phone:           advisor.Phone,
		Bio:             advisor.Bio,
		Qualifications:  nonNil(advisor.Qualifications),
		Experience:      advisor.Experience,
		ConsultationFee: advisor.ConsultationFee,
		Available:       advisor.IsAvailable(),
		ReviewCount:     advisor.ReviewCount,
		WorkingHours:    WorkingHoursToResponses(advisor.WorkingHours),
		RecentReviews:   reviews,
	}
}

// AdvisorsToResponses converts a slice of Advisor entities to AdvisorResponse DTOs
func AdvisorsToResponses(advisors []entity.Advisor) []dto.AdvisorResponse {
	responses := make([]dto.AdvisorResponse, len(advisors))
	for i := range advisors {
		responses[i] = *AdvisorToResponse(&advisors[i])
	}
	return responses
}

func WorkingHoursToResponses(hours []entity.WorkingHours) []dto.WorkingHoursResponse {
	responses := make([]dto.WorkingHoursResponse, len(hours))
	for i, wh := range hours {
		responses[i] = dto.WorkingHoursResponse{
			DayOfWeek: string(wh.DayOfWeek),
			Start:     wh.StartTime,
			End:       wh.EndTime,
			Available: wh.Available,
		}
	}
	return responses
}

// WorkingHoursRequestToEntity converts a request entry; a missing available flag means true
func WorkingHoursRequestToEntity(req *dto.WorkingHoursRequest) entity.WorkingHours {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return entity.WorkingHours{
		DayOfWeek: entity.Weekday(req.DayOfWeek),
		StartTime: req.Start,
		EndTime:   req.End,
		Available: available,
	}
}

func nonNil(list entity.StringList) []string {
	if list == nil {
		return []string{}
	}
	return list
}
