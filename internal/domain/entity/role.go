package entity

// Role names carried in the access token issued by the auth service
const (
	RoleAdmin   = "admin"
	RoleAdvisor = "advisor"
	RolePatient = "patient"
)
