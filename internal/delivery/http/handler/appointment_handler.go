package handler

import (
	"encoding/json"
	"net/http"

	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/usecase"
	"advisor-booking/pkg/response"
	"advisor-booking/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

func (h *AppointmentHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	advisorID, ok := parseUUIDVar(w, r, "advisorId", "Invalid advisor ID")
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	availability, err := h.appointmentUsecase.CheckAvailability(r.Context(), advisorID, date)
	if err != nil {
		writeAppointmentError(w, err, "Failed to check availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseUUIDVar(w, r, "id", "Invalid appointment ID")
	if !ok {
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), appointmentID)
	if err != nil {
		writeAppointmentError(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentUsecase.ListAppointments(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeAppointmentError(w, err, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseUUIDVar(w, r, "id", "Invalid appointment ID")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateStatus(r.Context(), appointmentID, &req)
	if err != nil {
		writeAppointmentError(w, err, "Failed to update appointment status")
		return
	}

	response.Success(w, http.StatusOK, "Appointment status updated successfully", appointment)
}

func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := parseUUIDVar(w, r, "id", "Invalid appointment ID")
	if !ok {
		return
	}

	if err := h.appointmentUsecase.CancelAppointment(r.Context(), appointmentID); err != nil {
		writeAppointmentError(w, err, "Failed to cancel appointment")
		return
	}

	response.NoContent(w)
}

func writeAppointmentError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrAdvisorNotFound:
		response.NotFound(w, "Advisor not found")
	case usecase.ErrAppointmentNotFound:
		response.NotFound(w, "Appointment not found")
	case usecase.ErrAppointmentNotOwned:
		response.Forbidden(w, "Appointment does not belong to you")
	case usecase.ErrInvalidDate:
		response.BadRequest(w, "Invalid date format, use YYYY-MM-DD")
	case usecase.ErrDateInPast:
		response.BadRequest(w, "Date is in the past")
	case usecase.ErrInvalidScheduledAt:
		response.BadRequest(w, "scheduledAt must be an RFC3339 timestamp")
	case usecase.ErrInvalidDuration:
		response.BadRequest(w, "Duration does not fit into a slot")
	case usecase.ErrSlotUnavailable:
		response.Conflict(w, "Selected time slot is not available")
	case usecase.ErrInvalidStatusTransition:
		response.Conflict(w, "Status change is not allowed")
	case usecase.ErrAppointmentNotCancellable:
		response.Conflict(w, "Appointment can no longer be cancelled")
	case usecase.ErrUnauthenticated:
		response.Unauthorized(w, "")
	default:
		response.InternalServerError(w, fallback)
	}
}
