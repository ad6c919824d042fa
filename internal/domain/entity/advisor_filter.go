package entity

// AdvisorFilter is a domain-level filter for searching advisors.
// Used by repository layer to avoid coupling with delivery DTOs.
type AdvisorFilter struct {
	Query          string // matches name, specialization or bio (ILIKE)
	Specialization string // ILIKE
	Language       string // exact element of languages
	MinRating      *float64
	MaxFee         *float64
	Available      *bool
	SortBy         string // rating, experience, fee, name, reviews
	SortAsc        bool
	Page           int // zero based
	Size           int
}
