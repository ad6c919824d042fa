package client

import (
	"context"
	"net/http"
	"net/url"

	"advisor-booking/internal/delivery/dto"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

func (c *Client) GetAdvisor(ctx context.Context, id uuid.UUID) (*dto.AdvisorResponse, error) {
	var advisor dto.AdvisorResponse
	if err := c.do(ctx, http.MethodGet, "/advisors/"+id.String(), nil, nil, &advisor); err != nil {
		return nil, err
	}
	return &advisor, nil
}

// GetAvailability fetches the slot list of one advisor for a YYYY-MM-DD date.
func (c *Client) GetAvailability(ctx context.Context, advisorID uuid.UUID, date string) (*dto.AvailabilityResponse, error) {
	var availability dto.AvailabilityResponse
	query := url.Values{"date": {date}}
	if err := c.do(ctx, http.MethodGet, "/appointments/availability/"+advisorID.String(), query, nil, &availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	var appointment dto.AppointmentResponse
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// ListAppointments lists the caller's appointments, optionally for one date.
func (c *Client) ListAppointments(ctx context.Context, date string) ([]dto.AppointmentResponse, error) {
	var query url.Values
	if date != "" {
		query = url.Values{"date": {date}}
	}
	var appointments []dto.AppointmentResponse
	if err := c.do(ctx, http.MethodGet, "/appointments", query, nil, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.AppointmentResponse, error) {
	var appointment dto.AppointmentResponse
	body := &dto.UpdateStatusRequest{Status: status}
	if err := c.do(ctx, http.MethodPut, "/appointments/"+id.String()+"/status", nil, body, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/appointments/"+id.String(), nil, nil, nil)
}

// BookingContext is what the booking flow needs before its first step.
// Availability is nil when the first day could not be loaded; AvailabilityErr
// then holds the reason.
type BookingContext struct {
	Advisor         *dto.AdvisorResponse
	Availability    *dto.AvailabilityResponse
	AvailabilityErr error
}

// LoadBookingContext fetches the advisor and the availability of date in parallel.
// Only the advisor is required: a failed advisor lookup cancels the other request
// and fails the load, while a failed availability lookup is recorded and logged.
func (c *Client) LoadBookingContext(ctx context.Context, advisorID uuid.UUID, date string) (*BookingContext, error) {
	var out BookingContext

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		advisor, err := c.GetAdvisor(ctx, advisorID)
		if err != nil {
			return err
		}
		out.Advisor = advisor
		return nil
	})
	p.Go(func(ctx context.Context) error {
		availability, err := c.GetAvailability(ctx, advisorID, date)
		if err != nil {
			out.AvailabilityErr = err
			return nil
		}
		out.Availability = availability
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}
	if out.AvailabilityErr != nil {
		c.log.Warnf("Failed to load availability of advisor %s on %s: %v", advisorID, date, out.AvailabilityErr)
	}
	return &out, nil
}
