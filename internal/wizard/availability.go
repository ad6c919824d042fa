package wizard

import (
	"context"
	"time"

	"advisor-booking/internal/slot"

	"github.com/google/uuid"
)

// DateOptions lists the dates the picker offers, today first.
func (w *Wizard) DateOptions() []slot.DateOption {
	return slot.DateOptions(w.now().In(w.loc), w.days)
}

// SelectDate records date and fetches its availability in the background. Every
// call issues one request, even for the date already selected. Only the
// response of the latest call is applied.
func (w *Wizard) SelectDate(ctx context.Context, date string) error {
	day, err := slot.ParseDate(date, w.loc)
	if err != nil {
		return err
	}
	if err := slot.ValidateDate(day, w.now()); err != nil {
		return err
	}

	w.mu.Lock()
	if w.result != nil {
		w.mu.Unlock()
		return ErrAlreadySubmitted
	}
	w.generation++
	gen := w.generation
	w.date = date
	w.loading = true
	w.loaded = false
	w.slots = nil
	w.workingHours = nil
	w.availabilityErr = nil
	advisorID := w.data.AdvisorID
	w.fetches.Add(1)
	w.mu.Unlock()

	go w.fetchAvailability(ctx, gen, date, advisorID)
	return nil
}

func (w *Wizard) fetchAvailability(ctx context.Context, gen uint64, date string, advisorID uuid.UUID) {
	defer w.fetches.Done()

	resp, err := w.gateway.GetAvailability(ctx, advisorID, date)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation {
		w.log.WithField("date", date).Debug("Dropping stale availability response")
		return
	}

	w.loading = false
	w.loaded = true
	if err == nil && resp == nil {
		err = ErrNoAvailability
	}
	if err != nil {
		w.log.WithField("date", date).Warnf("Failed to load availability: %v", err)
		w.availabilityErr = err
		return
	}
	w.slots = resp.AvailableSlots
	w.workingHours = resp.WorkingHours
}

// WaitAvailability blocks until every availability request issued so far has
// returned.
func (w *Wizard) WaitAvailability() {
	w.fetches.Wait()
}

// SelectedDate is the date last passed to SelectDate.
func (w *Wizard) SelectedDate() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.date
}

// AvailabilityLoading reports whether the latest availability request is outstanding.
func (w *Wizard) AvailabilityLoading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// AvailabilityError is the failure of the latest availability request, if any.
func (w *Wizard) AvailabilityError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.availabilityErr
}

// Availability returns the time picker snapshot for the selected date. Slots
// holds only selectable slots.
func (w *Wizard) Availability() Availability {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Availability{
		Date:         w.date,
		State:        slot.StateOf(w.slots, w.loaded),
		Slots:        slot.Selectable(w.slots),
		WorkingHours: w.workingHours,
		Err:          w.availabilityErr,
	}
}

// SelectSlot sets scheduledAt to start if the current snapshot offers it.
func (w *Wizard) SelectSlot(start time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	if w.loading {
		return ErrAvailabilityLoading
	}
	s, ok := slot.FindAvailable(w.slots, start)
	if !ok {
		return ErrSlotNotOffered
	}
	w.data.ScheduledAt = s.Start.In(w.loc).Format(time.RFC3339)
	return nil
}
