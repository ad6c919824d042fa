// Package wizard drives the four-step appointment booking flow: type, date and
// time, details, confirmation. All methods are safe for concurrent use.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
	"advisor-booking/internal/slot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Step int

const (
	StepTypeSelection Step = iota + 1
	StepDateTime
	StepDetails
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepTypeSelection:
		return "type"
	case StepDateTime:
		return "date and time"
	case StepDetails:
		return "details"
	case StepConfirmation:
		return "confirmation"
	}
	return "unknown"
}

// Status is the lifecycle of the wizard as a whole.
type Status int

const (
	StatusEditing Status = iota
	StatusSubmitting
	StatusFailed
	StatusSubmitted
)

func (s Status) String() string {
	switch s {
	case StatusEditing:
		return "editing"
	case StatusSubmitting:
		return "submitting"
	case StatusFailed:
		return "failed"
	case StatusSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	ErrStepIncomplete      = errors.New("current step is not complete")
	ErrNoNextStep          = errors.New("confirmation is the last step")
	ErrStepNotReached      = errors.New("step has not been reached yet")
	ErrInvalidType         = errors.New("invalid appointment type")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrAvailabilityLoading = errors.New("availability is still loading")
	ErrNoAvailability      = errors.New("availability response is empty")
	ErrSlotNotOffered      = errors.New("slot is not available")
	ErrNotAtConfirmation   = errors.New("booking can only be submitted from the confirmation step")
	ErrSubmitInProgress    = errors.New("booking is already being submitted")
	ErrAlreadySubmitted    = errors.New("booking has already been submitted")
)

// AvailabilityGateway returns the slots of an advisor for one date.
type AvailabilityGateway interface {
	GetAvailability(ctx context.Context, advisorID uuid.UUID, date string) (*dto.AvailabilityResponse, error)
}

// BookingSubmitter persists a confirmed booking.
type BookingSubmitter interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
}

// BookingData is the in-progress booking owned by one wizard.
type BookingData struct {
	AdvisorID   uuid.UUID
	Type        entity.AppointmentType
	ScheduledAt string
	Duration    int
	Notes       string
	Symptoms    []string
	Priority    entity.Priority
}

func (d BookingData) clone() BookingData {
	d.Symptoms = append([]string(nil), d.Symptoms...)
	return d
}

// Request builds the payload sent to the booking endpoint.
func (d BookingData) Request() *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{
		AdvisorID:   d.AdvisorID,
		Type:        string(d.Type),
		ScheduledAt: d.ScheduledAt,
		Duration:    d.Duration,
		Notes:       d.Notes,
		Symptoms:    append([]string{}, d.Symptoms...),
		Priority:    string(d.Priority),
	}
}

// Result is handed to the confirmation view after a successful submit.
type Result struct {
	Appointment *dto.AppointmentResponse
	Advisor     *dto.AdvisorResponse
}

// Availability is a snapshot of the time picker for the selected date.
type Availability struct {
	Date         string
	State        slot.ViewState
	Slots        []slot.TimeSlot
	WorkingHours *dto.WorkingWindow
	Err          error
}

type Wizard struct {
	mu sync.Mutex

	advisor   *dto.AdvisorResponse
	gateway   AvailabilityGateway
	submitter BookingSubmitter
	log       *logrus.Logger
	loc       *time.Location
	now       func() time.Time
	days      int

	step    Step
	highest Step
	data    BookingData

	date            string
	generation      uint64
	loading         bool
	loaded          bool
	slots           []slot.TimeSlot
	workingHours    *dto.WorkingWindow
	availabilityErr error
	fetches         sync.WaitGroup

	submitting bool
	lastErr    error
	result     *Result
}

type Option func(*Wizard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		w.now = now
	}
}

// WithLocation sets the timezone dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(w *Wizard) {
		w.loc = loc
	}
}

// WithBookingWindow sets how many days the date picker offers.
func WithBookingWindow(days int) Option {
	return func(w *Wizard) {
		w.days = days
	}
}

func New(advisor *dto.AdvisorResponse, gateway AvailabilityGateway, submitter BookingSubmitter, log *logrus.Logger, opts ...Option) *Wizard {
	w := &Wizard{
		advisor:   advisor,
		gateway:   gateway,
		submitter: submitter,
		log:       log,
		loc:       time.Local,
		now:       time.Now,
		days:      slot.DefaultWindowDays,
		step:      StepTypeSelection,
		highest:   StepTypeSelection,
		data: BookingData{
			AdvisorID: advisor.ID,
			Duration:  entity.DefaultDurationMinutes,
			Symptoms:  []string{},
			Priority:  entity.PriorityRoutine,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Advisor() *dto.AdvisorResponse {
	return w.advisor
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// HighestStep is the furthest step reached so far.
func (w *Wizard) HighestStep() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.highest
}

// Data returns a copy of the in-progress booking.
func (w *Wizard) Data() BookingData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.data.clone()
}

func (w *Wizard) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.result != nil:
		return StatusSubmitted
	case w.submitting:
		return StatusSubmitting
	case w.lastErr != nil:
		return StatusFailed
	}
	return StatusEditing
}

// CanProceed reports whether the current step's precondition holds.
func (w *Wizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canProceed()
}

func (w *Wizard) canProceed() bool {
	switch w.step {
	case StepTypeSelection:
		return w.data.Type != ""
	case StepDateTime:
		return w.data.ScheduledAt != ""
	case StepDetails:
		return len(w.data.Symptoms) > 0
	case StepConfirmation:
		return true
	}
	return false
}

func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	if w.step == StepConfirmation {
		return ErrNoNextStep
	}
	if !w.canProceed() {
		return ErrStepIncomplete
	}
	w.step++
	if w.step > w.highest {
		w.highest = w.step
	}
	return nil
}

// Back moves one step back keeping all data. It is a no-op on the first step.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil || w.step == StepTypeSelection {
		return
	}
	w.step--
}

// GoTo jumps to any step already reached.
func (w *Wizard) GoTo(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	if step < StepTypeSelection || step > w.highest {
		return ErrStepNotReached
	}
	w.step = step
	return nil
}

// SelectType sets the appointment type and its canonical duration.
func (w *Wizard) SelectType(t entity.AppointmentType) error {
	if !t.Valid() {
		return ErrInvalidType
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	w.data.Type = t
	w.data.Duration = t.CanonicalDuration()
	return nil
}

func (w *Wizard) ToggleSymptom(symptom string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	for i, s := range w.data.Symptoms {
		if s == symptom {
			w.data.Symptoms = append(w.data.Symptoms[:i:i], w.data.Symptoms[i+1:]...)
			return nil
		}
	}
	w.data.Symptoms = append(w.data.Symptoms, symptom)
	return nil
}

// SetSymptoms replaces the symptom list, dropping blanks and duplicates.
func (w *Wizard) SetSymptoms(symptoms []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	seen := make(map[string]struct{}, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	w.data.Symptoms = out
	return nil
}

func (w *Wizard) SetNotes(notes string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	w.data.Notes = notes
	return nil
}

func (w *Wizard) SetPriority(p entity.Priority) error {
	if !p.Valid() {
		return ErrInvalidPriority
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.result != nil {
		return ErrAlreadySubmitted
	}
	w.data.Priority = p
	return nil
}

// LastError is the error of the latest failed submit, nil after a success or
// before any submit.
func (w *Wizard) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Result returns the booked appointment once submitted.
func (w *Wizard) Result() (*Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.result != nil
}

// Submit sends the booking. Only one submit can be in flight; a failure keeps
// the wizard on the confirmation step with the data untouched.
func (w *Wizard) Submit(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	switch {
	case w.result != nil:
		w.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case w.submitting:
		w.mu.Unlock()
		return nil, ErrSubmitInProgress
	case w.step != StepConfirmation:
		w.mu.Unlock()
		return nil, ErrNotAtConfirmation
	}
	w.submitting = true
	w.lastErr = nil
	req := w.data.Request()
	w.mu.Unlock()

	appointment, err := w.submitter.CreateAppointment(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		w.log.WithFields(logrus.Fields{
			"advisor_id":   req.AdvisorID,
			"scheduled_at": req.ScheduledAt,
		}).Warnf("Failed to submit booking: %v", err)
		w.lastErr = err
		return nil, err
	}

	w.result = &Result{Appointment: appointment, Advisor: w.advisor}
	w.log.WithField("appointment_id", appointment.ID).Info("Booking submitted")
	return w.result, nil
}
