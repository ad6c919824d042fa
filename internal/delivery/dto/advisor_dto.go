package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type WorkingHoursRequest struct {
	DayOfWeek string `json:"dayOfWeek" validate:"required,weekday"`
	Start     string `json:"start" validate:"required,hhmm"`
	End       string `json:"end" validate:"required,hhmm"`
	Available *bool  `json:"available"`
}

type ReplaceWorkingHoursRequest struct {
	WorkingHours []WorkingHoursRequest `json:"workingHours" validate:"max=7,dive"`
}

type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// AdvisorSearchQuery is bound from the query string of GET /advisors
type AdvisorSearchQuery struct {
	Query          string   `json:"query" validate:"max=100"`
	Specialization string   `json:"specialization" validate:"max=100"`
	Language       string   `json:"language" validate:"max=50"`
	MinRating      *float64 `json:"minRating" validate:"omitempty,gte=0,lte=5"`
	MaxFee         *float64 `json:"maxFee" validate:"omitempty,gte=0"`
	Available      *bool    `json:"available"`
	SortBy         string   `json:"sortBy" validate:"omitempty,oneof=rating experience consultationFee name reviewCount"`
	SortDir        string   `json:"sortDir" validate:"omitempty,oneof=asc desc"`
	Page           int      `json:"page" validate:"gte=0"`
	Size           int      `json:"size" validate:"gte=0,lte=50"`
}

// Response DTOs

type WorkingHoursResponse struct {
	DayOfWeek string `json:"dayOfWeek"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type ReviewResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientName string    `json:"patientName"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	Date        time.Time `json:"date"`
}

type AdvisorResponse struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Specialization  string                 `json:"specialization"`
	Rating          float64                `json:"rating"`
	Languages       []string               `json:"languages"`
	ImageURL        string                 `json:"imageUrl,omitempty"`
	Email           string                 `json:"email,omitempty"`
	Phone           string                 `json:"phone,omitempty"`
	Bio             string                 `json:"bio"`
	Qualifications  []string               `json:"qualifications"`
	Experience      int                    `json:"experience"`
	ConsultationFee decimal.Decimal        `json:"consultationFee"`
	Available       bool                   `json:"available"`
	ReviewCount     int                    `json:"reviewCount"`
	WorkingHours    []WorkingHoursResponse `json:"workingHours"`
	RecentReviews   []ReviewResponse       `json:"recentReviews,omitempty"`
}

type AdvisorSearchResponse struct {
	Advisors    []AdvisorResponse `json:"advisors"`
	TotalCount  int64             `json:"totalCount"`
	CurrentPage int               `json:"currentPage"`
	TotalPages  int               `json:"totalPages"`
}
