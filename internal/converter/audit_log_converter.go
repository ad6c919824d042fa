package converter

import (
	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
)

func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	if log == nil {
		return nil
	}

	metadata := log.Metadata
	if metadata == nil {
		metadata = entity.JSON{}
	}

	return &dto.AuditLogResponse{
		ID:        log.ID,
		UserID:    log.UserID,
		Action:    log.Action,
		Metadata:  metadata,
		CreatedAt: log.CreatedAt,
	}
}

// AuditLogsToResponses never returns nil so an empty page encodes as []
func AuditLogsToResponses(logs []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		responses = append(responses, *AuditLogToResponse(&logs[i]))
	}
	return responses
}
