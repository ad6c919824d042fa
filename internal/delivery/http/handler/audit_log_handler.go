package handler

import (
	"net/http"
	"strconv"
	"time"

	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/usecase"
	"advisor-booking/pkg/response"
	"advisor-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	validator       *validator.CustomValidator
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, validator *validator.CustomValidator) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		validator:       validator,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	auditLogID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		if err == usecase.ErrAuditLogNotFound {
			response.NotFound(w, "Audit log not found")
			return
		}
		response.InternalServerError(w, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// ListAuditLogs supports ?action=, ?userId=, ?since= (RFC3339), ?page= and ?limit=
func (h *AuditLogHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query, err := parseAuditLogQuery(r)
	if err != nil {
		response.BadRequest(w, "Invalid query parameters")
		return
	}

	if err := h.validator.Validate(query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.auditLogUsecase.ListAuditLogs(r.Context(), query)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", result.Logs, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

func parseAuditLogQuery(r *http.Request) (*dto.AuditLogQuery, error) {
	q := r.URL.Query()
	query := &dto.AuditLogQuery{Action: q.Get("action")}

	if v := q.Get("userId"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		query.UserID = &userID
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		query.Since = &since
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		query.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		query.Limit = n
	}
	return query, nil
}
