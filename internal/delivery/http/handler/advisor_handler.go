package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/usecase"
	"advisor-booking/pkg/response"
	"advisor-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AdvisorHandler struct {
	advisorUsecase usecase.AdvisorUsecase
	validator      *validator.CustomValidator
}

func NewAdvisorHandler(advisorUsecase usecase.AdvisorUsecase, validator *validator.CustomValidator) *AdvisorHandler {
	return &AdvisorHandler{
		advisorUsecase: advisorUsecase,
		validator:      validator,
	}
}

func (h *AdvisorHandler) GetAdvisor(w http.ResponseWriter, r *http.Request) {
	advisorID, ok := parseUUIDVar(w, r, "id", "Invalid advisor ID")
	if !ok {
		return
	}

	advisor, err := h.advisorUsecase.GetAdvisor(r.Context(), advisorID)
	if err != nil {
		if err == usecase.ErrAdvisorNotFound {
			response.NotFound(w, "Advisor not found")
			return
		}
		response.InternalServerError(w, "Failed to get advisor")
		return
	}

	response.Success(w, http.StatusOK, "Advisor retrieved successfully", advisor)
}

func (h *AdvisorHandler) SearchAdvisors(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		response.BadRequest(w, "Invalid query parameters")
		return
	}

	if err := h.validator.Validate(query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.advisorUsecase.SearchAdvisors(r.Context(), query)
	if err != nil {
		response.InternalServerError(w, "Failed to search advisors")
		return
	}

	response.Success(w, http.StatusOK, "Advisors retrieved successfully", result)
}

func (h *AdvisorHandler) AddWorkingHours(w http.ResponseWriter, r *http.Request) {
	advisorID, ok := parseUUIDVar(w, r, "id", "Invalid advisor ID")
	if !ok {
		return
	}

	var req dto.WorkingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	hours, err := h.advisorUsecase.AddWorkingHours(r.Context(), advisorID, &req)
	if err != nil {
		h.writeWorkingHoursError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Working hours added successfully", hours)
}

func (h *AdvisorHandler) ReplaceWorkingHours(w http.ResponseWriter, r *http.Request) {
	advisorID, ok := parseUUIDVar(w, r, "id", "Invalid advisor ID")
	if !ok {
		return
	}

	var req dto.ReplaceWorkingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	hours, err := h.advisorUsecase.ReplaceWorkingHours(r.Context(), advisorID, &req)
	if err != nil {
		h.writeWorkingHoursError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Working hours updated successfully", hours)
}

func (h *AdvisorHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	advisorID, ok := parseUUIDVar(w, r, "id", "Invalid advisor ID")
	if !ok {
		return
	}

	var req dto.SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.advisorUsecase.SetAvailable(r.Context(), advisorID, *req.Available); err != nil {
		h.writeWorkingHoursError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Availability updated successfully", req)
}

func (h *AdvisorHandler) writeWorkingHoursError(w http.ResponseWriter, err error) {
	switch err {
	case usecase.ErrAdvisorNotFound:
		response.NotFound(w, "Advisor not found")
	case usecase.ErrAdvisorNotOwned:
		response.Forbidden(w, "You can only edit your own advisor profile")
	case usecase.ErrDuplicateWorkingDay:
		response.Conflict(w, "Working hours for this day already exist")
	case usecase.ErrInvalidWorkingHours:
		response.BadRequest(w, "Working hours must be HH:MM with start before end")
	case usecase.ErrInvalidWorkingWeekday:
		response.BadRequest(w, "Invalid day of week")
	case usecase.ErrUnauthenticated:
		response.Unauthorized(w, "")
	default:
		response.InternalServerError(w, "Failed to update advisor")
	}
}

func parseSearchQuery(r *http.Request) (*dto.AdvisorSearchQuery, error) {
	q := r.URL.Query()
	query := &dto.AdvisorSearchQuery{
		Query:          q.Get("query"),
		Specialization: q.Get("specialization"),
		Language:       q.Get("language"),
		SortBy:         q.Get("sortBy"),
		SortDir:        q.Get("sortDir"),
	}

	if v := q.Get("minRating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		query.MinRating = &f
	}
	if v := q.Get("maxFee"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		query.MaxFee = &f
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		query.Available = &b
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		query.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		query.Size = n
	}
	return query, nil
}

func parseUUIDVar(w http.ResponseWriter, r *http.Request, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Error(w, http.StatusBadRequest, message, nil)
		return uuid.Nil, false
	}
	return id, true
}
