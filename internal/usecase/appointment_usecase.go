package usecase

import (
	"context"
	"errors"
	"time"

	"advisor-booking/internal/converter"
	"advisor-booking/internal/delivery/dto"
	"advisor-booking/internal/domain/entity"
	"advisor-booking/internal/domain/repository"
	"advisor-booking/internal/observability/metrics"
	"advisor-booking/internal/service"
	"advisor-booking/internal/slot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound       = errors.New("appointment not found")
	ErrAppointmentNotOwned       = errors.New("appointment does not belong to you")
	ErrInvalidDate               = errors.New("invalid date format, use YYYY-MM-DD")
	ErrDateInPast                = errors.New("date is in the past")
	ErrInvalidScheduledAt        = errors.New("scheduledAt must be an RFC3339 timestamp")
	ErrInvalidDuration           = errors.New("duration does not fit into a slot")
	ErrSlotUnavailable           = errors.New("selected time slot is not available")
	ErrInvalidStatusTransition   = errors.New("status change is not allowed")
	ErrAppointmentNotCancellable = errors.New("appointment can no longer be cancelled")
)

// SlotStore is the availability cache and per-slot lock used by the booking flow
type SlotStore interface {
	GetAvailability(ctx context.Context, advisorID uuid.UUID, date string, dest interface{}) (bool, error)
	AvailabilityGeneration(ctx context.Context, advisorID uuid.UUID) (int64, error)
	SetAvailability(ctx context.Context, advisorID uuid.UUID, date string, generation int64, value interface{}) error
	InvalidateDate(ctx context.Context, advisorID uuid.UUID, date string) error
	InvalidateAdvisor(ctx context.Context, advisorID uuid.UUID) error
	AcquireSlot(ctx context.Context, advisorID uuid.UUID, start time.Time) (string, error)
	ReleaseSlot(ctx context.Context, advisorID uuid.UUID, start time.Time, token string) error
}

type AppointmentUsecase interface {
	CheckAvailability(ctx context.Context, advisorID uuid.UUID, date string) (*dto.AvailabilityResponse, error)
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, date string) ([]dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) error
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	advisorRepo     repository.AdvisorRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	slots           SlotStore
	metrics         *metrics.BookingMetrics
	loc             *time.Location
	slotLength      time.Duration
	now             func() time.Time
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	advisorRepo repository.AdvisorRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	slots SlotStore,
	bookingMetrics *metrics.BookingMetrics,
	loc *time.Location,
	slotLength time.Duration,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		advisorRepo:     advisorRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		slots:           slots,
		metrics:         bookingMetrics,
		loc:             loc,
		slotLength:      slotLength,
		now:             time.Now,
	}
}

// CheckAvailability returns every slot of the advisor's working window on date,
// booked ones included with available=false.
func (u *appointmentUsecase) CheckAvailability(ctx context.Context, advisorID uuid.UUID, date string) (*dto.AvailabilityResponse, error) {
	day, err := slot.ParseDate(date, u.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := slot.ValidateDate(day, u.now()); err != nil {
		return nil, ErrDateInPast
	}

	var cached dto.AvailabilityResponse
	if hit, err := u.slots.GetAvailability(ctx, advisorID, date, &cached); err == nil && hit {
		u.metrics.ObserveAvailability(true)
		return &cached, nil
	}
	u.metrics.ObserveAvailability(false)

	// read before the database so a booking committed meanwhile voids the fill
	generation, genErr := u.slots.AvailabilityGeneration(ctx, advisorID)

	advisor, err := u.advisorRepo.FindByID(u.db.WithContext(ctx), advisorID)
	if err != nil {
		u.log.Warnf("Failed to find advisor %s: %+v", advisorID, err)
		return nil, err
	}
	if advisor == nil {
		return nil, ErrAdvisorNotFound
	}

	availability, err := u.computeAvailability(u.db.WithContext(ctx), advisor, day)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		u.log.Debugf("Availability for advisor %s on %s not cached: %+v", advisorID, date, genErr)
	} else if err := u.slots.SetAvailability(ctx, advisorID, date, generation, availability); err != nil {
		u.log.Debugf("Availability for advisor %s on %s not cached: %+v", advisorID, date, err)
	}
	return availability, nil
}

// computeAvailability always reads the database, never the cache.
func (u *appointmentUsecase) computeAvailability(db *gorm.DB, advisor *entity.Advisor, day time.Time) (*dto.AvailabilityResponse, error) {
	resp := &dto.AvailabilityResponse{
		AdvisorID:      advisor.ID,
		Date:           day.Format(slot.DateLayout),
		AvailableSlots: []slot.TimeSlot{},
	}

	wh, ok := advisor.WorkingHoursFor(entity.WeekdayOf(day))
	if !ok {
		return resp, nil
	}
	resp.WorkingHours = &dto.WorkingWindow{Start: wh.StartTime, End: wh.EndTime}
	if !advisor.IsAvailable() {
		return resp, nil
	}

	dayRange := entity.DayRangeOf(day)
	booked, err := u.appointmentRepo.FindBlocking(db, advisor.ID, dayRange.From, dayRange.To)
	if err != nil {
		u.log.Warnf("Failed to load appointments of advisor %s: %+v", advisor.ID, err)
		return nil, err
	}
	intervals := make([]slot.Interval, len(booked))
	for i := range booked {
		intervals[i] = slot.Interval{Start: booked[i].ScheduledAt, End: booked[i].EndsAt()}
	}

	slots, err := slot.Generate(slot.Window{Start: wh.StartTime, End: wh.EndTime, Available: wh.Available}, day, intervals, u.slotLength)
	if err != nil {
		// stored template is broken; nothing is bookable
		u.log.Warnf("Invalid working hours for advisor %s on %s: %+v", advisor.ID, wh.DayOfWeek, err)
		return resp, nil
	}

	now := u.now()
	for i := range slots {
		if !slots[i].Start.After(now) {
			slots[i].Available = false
		}
	}
	resp.AvailableSlots = slots
	return resp, nil
}

// CreateAppointment books a slot for the calling patient.
//
// Flow:
// 1. Parse and normalize the request
// 2. Verify scheduledAt starts an available slot (fresh read, not cached)
// 3. Take the Redis slot lock so concurrent bookings of the same slot serialize
// 4. Re-check overlap and insert inside a transaction, with audit
// 5. Drop the cached availability of the day
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, ErrInvalidScheduledAt
	}

	appointmentType := entity.AppointmentType(req.Type)
	priority := entity.Priority(req.Priority)
	if priority == "" {
		priority = entity.PriorityRoutine
	}

	duration := req.Duration
	if duration == 0 {
		duration = appointmentType.CanonicalDuration()
	}
	if time.Duration(duration)*time.Minute > u.slotLength {
		return nil, ErrInvalidDuration
	}

	day := slot.StartOfDay(scheduledAt.In(u.loc))
	if err := slot.ValidateDate(day, u.now()); err != nil {
		return nil, ErrDateInPast
	}

	advisor, err := u.advisorRepo.FindByID(u.db.WithContext(ctx), req.AdvisorID)
	if err != nil {
		u.log.Warnf("Failed to find advisor %s: %+v", req.AdvisorID, err)
		return nil, err
	}
	if advisor == nil {
		return nil, ErrAdvisorNotFound
	}

	availability, err := u.computeAvailability(u.db.WithContext(ctx), advisor, day)
	if err != nil {
		return nil, err
	}
	if _, ok := slot.FindAvailable(availability.AvailableSlots, scheduledAt); !ok {
		u.metrics.ObserveBooking(req.Type, "unavailable")
		return nil, ErrSlotUnavailable
	}

	token, err := u.slots.AcquireSlot(ctx, advisor.ID, scheduledAt)
	if err != nil {
		if errors.Is(err, service.ErrSlotLocked) {
			u.metrics.ObserveBooking(req.Type, "locked")
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := u.slots.ReleaseSlot(releaseCtx, advisor.ID, scheduledAt, token); err != nil {
			// the lock expires on its own
			u.log.Warnf("Failed to release slot lock for advisor %s (non-fatal): %+v", advisor.ID, err)
		}
	}()

	appointment := &entity.Appointment{
		PatientID:       c.UserID,
		AdvisorID:       advisor.ID,
		Type:            appointmentType,
		Status:          entity.AppointmentStatusRequested,
		ScheduledAt:     scheduledAt.UTC(),
		DurationMinutes: duration,
		Notes:           req.Notes,
		Symptoms:        entity.StringList(req.Symptoms),
		Priority:        priority,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	overlapping, err := u.appointmentRepo.FindBlocking(tx, advisor.ID, appointment.ScheduledAt, appointment.EndsAt())
	if err != nil {
		u.log.Warnf("Failed to re-check slot for advisor %s: %+v", advisor.ID, err)
		return nil, err
	}
	if len(overlapping) > 0 {
		u.metrics.ObserveBooking(req.Type, "conflict")
		return nil, ErrSlotUnavailable
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &c.UserID, entity.AuditActionAppointmentCreate, "appointments", appointment.ID.String(), converter.AppointmentToResponse(appointment)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit appointment: %+v", err)
		return nil, err
	}

	u.invalidateDay(ctx, appointment)
	u.metrics.ObserveBooking(req.Type, "created")
	u.log.Infof("Appointment created: id=%s, advisor=%s, at=%s", appointment.ID, advisor.ID, appointment.ScheduledAt.Format(time.RFC3339))

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.visibleAppointment(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// ListAppointments returns the caller's appointments. Advisors see the
// appointments booked with them, everyone else the ones they booked.
func (u *appointmentUsecase) ListAppointments(ctx context.Context, date string) ([]dto.AppointmentResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var day *entity.DayRange
	if date != "" {
		d, err := slot.ParseDate(date, u.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = entity.DayRangeOf(d)
	}

	db := u.db.WithContext(ctx)
	var appointments []entity.Appointment
	if c.IsAdvisor() {
		advisor, err := u.advisorRepo.FindByUserID(db, c.UserID)
		if err != nil {
			u.log.Warnf("Failed to find advisor profile of user %s: %+v", c.UserID, err)
			return nil, err
		}
		if advisor == nil {
			return nil, ErrAdvisorNotFound
		}
		appointments, err = u.appointmentRepo.FindByAdvisorID(db, advisor.ID, day)
		if err != nil {
			u.log.Warnf("Failed to list appointments of advisor %s: %+v", advisor.ID, err)
			return nil, err
		}
	} else {
		appointments, err = u.appointmentRepo.FindByPatientID(db, c.UserID, day)
		if err != nil {
			u.log.Warnf("Failed to list appointments of patient %s: %+v", c.UserID, err)
			return nil, err
		}
	}

	return converter.AppointmentsToResponses(appointments), nil
}

func (u *appointmentUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateStatusRequest) (*dto.AppointmentResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	next := entity.AppointmentStatus(req.Status)
	if !next.Valid() {
		return nil, ErrInvalidStatusTransition
	}

	appointment, err := u.visibleAppointment(ctx, c, id)
	if err != nil {
		return nil, err
	}

	// patients may only withdraw their own booking
	if appointment.BookedBy(c.UserID) && !c.IsAdmin() && !c.IsAdvisor() && next != entity.AppointmentStatusCancelled {
		return nil, ErrAppointmentNotOwned
	}

	if !appointment.Status.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}

	if err := u.transition(ctx, c, appointment, next, entity.AuditActionAppointmentStatus); err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// CancelAppointment cancels through the same transition table, so only
// completed, cancelled and no-show appointments are rejected.
func (u *appointmentUsecase) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	c, err := callerFromContext(ctx)
	if err != nil {
		return err
	}

	appointment, err := u.visibleAppointment(ctx, c, id)
	if err != nil {
		return err
	}

	if !appointment.Status.CanTransitionTo(entity.AppointmentStatusCancelled) {
		return ErrAppointmentNotCancellable
	}

	err = u.transition(ctx, c, appointment, entity.AppointmentStatusCancelled, entity.AuditActionAppointmentCancel)
	if errors.Is(err, ErrInvalidStatusTransition) {
		return ErrAppointmentNotCancellable
	}
	return err
}

// transition applies next only if the stored status is still the one we read.
func (u *appointmentUsecase) transition(ctx context.Context, c caller, appointment *entity.Appointment, next entity.AppointmentStatus, action string) error {
	prev := appointment.Status

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.appointmentRepo.UpdateStatus(tx, appointment.ID, prev, next)
	if err != nil {
		u.log.Warnf("Failed to update status of appointment %s: %+v", appointment.ID, err)
		return err
	}
	if affected == 0 {
		return ErrInvalidStatusTransition
	}

	if err := u.auditService.LogUpdate(ctx, tx, &c.UserID, action, "appointments", appointment.ID.String(), prev, next); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit status of appointment %s: %+v", appointment.ID, err)
		return err
	}

	appointment.Status = next
	appointment.UpdatedAt = u.now()

	if !isBlocking(next) {
		u.invalidateDay(ctx, appointment)
	}
	u.metrics.ObserveStatusChange(string(prev), string(next))
	u.log.Infof("Appointment status changed: id=%s, %s -> %s", appointment.ID, prev, next)
	return nil
}

// visibleAppointment loads the appointment if the caller is its patient, its advisor or an admin
func (u *appointmentUsecase) visibleAppointment(ctx context.Context, c caller, id uuid.UUID) (*entity.Appointment, error) {
	db := u.db.WithContext(ctx)

	appointment, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if c.IsAdmin() || appointment.BookedBy(c.UserID) {
		return appointment, nil
	}
	if c.IsAdvisor() {
		advisor, err := u.advisorRepo.FindByUserID(db, c.UserID)
		if err != nil {
			u.log.Warnf("Failed to find advisor profile of user %s: %+v", c.UserID, err)
			return nil, err
		}
		if advisor != nil && advisor.ID == appointment.AdvisorID {
			return appointment, nil
		}
	}
	return nil, ErrAppointmentNotOwned
}

func (u *appointmentUsecase) invalidateDay(ctx context.Context, appointment *entity.Appointment) {
	date := appointment.ScheduledAt.In(u.loc).Format(slot.DateLayout)
	if err := u.slots.InvalidateDate(ctx, appointment.AdvisorID, date); err != nil {
		u.log.Warnf("Failed to invalidate availability for advisor %s on %s (non-fatal): %+v", appointment.AdvisorID, date, err)
	}
}

func isBlocking(status entity.AppointmentStatus) bool {
	for _, s := range entity.SlotBlockingStatuses {
		if s == status {
			return true
		}
	}
	return false
}
