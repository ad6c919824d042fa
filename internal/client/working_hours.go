package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/slot"

	"github.com/google/uuid"
)

var ErrDuplicateWorkingDay = errors.New("working hours for this day already exist")

// ValidateWorkingHours rejects duplicate weekdays and malformed windows before
// anything is sent.
func ValidateWorkingHours(entries []dto.WorkingHoursRequest) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.DayOfWeek]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateWorkingDay, e.DayOfWeek)
		}
		seen[e.DayOfWeek] = struct{}{}
		if err := slot.ValidateWindow(e.Start, e.End); err != nil {
			return fmt.Errorf("%s: %w", e.DayOfWeek, err)
		}
	}
	return nil
}

// AddWorkingHours adds one weekday entry. current is the advisor's present
// template; a day already in it is rejected without a request.
func (c *Client) AddWorkingHours(ctx context.Context, advisorID uuid.UUID, current []dto.WorkingHoursResponse, entry dto.WorkingHoursRequest) ([]dto.WorkingHoursResponse, error) {
	for _, wh := range current {
		if wh.DayOfWeek == entry.DayOfWeek {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWorkingDay, entry.DayOfWeek)
		}
	}
	if err := ValidateWorkingHours([]dto.WorkingHoursRequest{entry}); err != nil {
		return nil, err
	}

	var hours []dto.WorkingHoursResponse
	if err := c.do(ctx, http.MethodPost, "/advisors/"+advisorID.String()+"/working-hours", nil, &entry, &hours); err != nil {
		return nil, err
	}
	return hours, nil
}

func (c *Client) ReplaceWorkingHours(ctx context.Context, advisorID uuid.UUID, entries []dto.WorkingHoursRequest) ([]dto.WorkingHoursResponse, error) {
	if err := ValidateWorkingHours(entries); err != nil {
		return nil, err
	}

	var hours []dto.WorkingHoursResponse
	body := &dto.ReplaceWorkingHoursRequest{WorkingHours: entries}
	if err := c.do(ctx, http.MethodPut, "/advisors/"+advisorID.String()+"/working-hours", nil, body, &hours); err != nil {
		return nil, err
	}
	return hours, nil
}
