package dto

import (
	"time"

	"advisor-booking/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditLogQuery is bound from the query string of GET /admin/audit-logs
type AuditLogQuery struct {
	Action string     `json:"action" validate:"max=100"`
	UserID *uuid.UUID `json:"userId"`
	Since  *time.Time `json:"since"`
	Page   int        `json:"page" validate:"gte=0"`
	Limit  int        `json:"limit" validate:"gte=0,lte=100"`
}

type AuditLogResponse struct {
	ID        int64       `json:"id"`
	UserID    *uuid.UUID  `json:"userId,omitempty"`
	Action    string      `json:"action"`
	Metadata  entity.JSON `json:"metadata"`
	CreatedAt time.Time   `json:"createdAt"`
}

type AuditLogListResponse struct {
	Logs       []AuditLogResponse `json:"logs"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}
