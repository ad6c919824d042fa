package usecase

import (
	"io"
	"sync"
	"testing"
	"time"

	"advisor-booking/internal/domain/entity"
	"advisor-booking/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newTestSlotService(t *testing.T) *service.SlotService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := service.NewSlotService(client, newTestLogger(), time.Minute, 10*time.Second)
	t.Cleanup(svc.Stop)
	return svc
}

type stubAdvisorRepo struct {
	mu       sync.Mutex
	advisors map[uuid.UUID]*entity.Advisor
}

func newStubAdvisorRepo(advisors ...*entity.Advisor) *stubAdvisorRepo {
	r := &stubAdvisorRepo{advisors: map[uuid.UUID]*entity.Advisor{}}
	for _, a := range advisors {
		r.advisors[a.ID] = a
	}
	return r
}

func (r *stubAdvisorRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Advisor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.advisors[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *stubAdvisorRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.Advisor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.advisors {
		if a.OwnedBy(userID) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubAdvisorRepo) Search(db *gorm.DB, filter *entity.AdvisorFilter) ([]entity.Advisor, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Advisor
	for _, a := range r.advisors {
		out = append(out, *a)
	}
	total := int64(len(out))
	if len(out) > filter.Size {
		out = out[:filter.Size]
	}
	return out, total, nil
}

func (r *stubAdvisorRepo) UpdateAvailable(db *gorm.DB, id uuid.UUID, available bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.advisors[id]
	if !ok {
		return 0, nil
	}
	a.Available = &available
	return 1, nil
}

type stubWorkingHoursRepo struct {
	hours     map[uuid.UUID][]entity.WorkingHours
	createErr error
}

func (r *stubWorkingHoursRepo) FindByAdvisorID(db *gorm.DB, advisorID uuid.UUID) ([]entity.WorkingHours, error) {
	return append([]entity.WorkingHours(nil), r.hours[advisorID]...), nil
}

func (r *stubWorkingHoursRepo) Create(db *gorm.DB, wh *entity.WorkingHours) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.hours[wh.AdvisorID] = append(r.hours[wh.AdvisorID], *wh)
	return nil
}

func (r *stubWorkingHoursRepo) ReplaceAll(db *gorm.DB, advisorID uuid.UUID, hours []entity.WorkingHours) error {
	r.hours[advisorID] = append([]entity.WorkingHours(nil), hours...)
	return nil
}

type stubAppointmentRepo struct {
	mu           sync.Mutex
	appointments []*entity.Appointment
}

func (r *stubAppointmentRepo) Create(db *gorm.DB, a *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.appointments = append(r.appointments, &cp)
	return nil
}

func (r *stubAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubAppointmentRepo) FindBlocking(db *gorm.DB, advisorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.AdvisorID != advisorID || !isBlocking(a.Status) {
			continue
		}
		if a.ScheduledAt.Before(to) && a.EndsAt().After(from) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error) {
	return r.filter(func(a *entity.Appointment) bool { return a.PatientID == patientID }, day), nil
}

func (r *stubAppointmentRepo) FindByAdvisorID(db *gorm.DB, advisorID uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error) {
	return r.filter(func(a *entity.Appointment) bool { return a.AdvisorID == advisorID }, day), nil
}

func (r *stubAppointmentRepo) filter(match func(*entity.Appointment) bool, day *entity.DayRange) []entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if !match(a) {
			continue
		}
		if day != nil && (a.ScheduledAt.Before(day.From) || !a.ScheduledAt.Before(day.To)) {
			continue
		}
		out = append(out, *a)
	}
	return out
}

func (r *stubAppointmentRepo) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == id && a.Status == from {
			a.Status = to
			return 1, nil
		}
	}
	return 0, nil
}

type stubAuditRepo struct {
	logs []entity.AuditLog
}

func (r *stubAuditRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *stubAuditRepo) FindAll(db *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	var out []entity.AuditLog
	for _, l := range r.logs {
		if filter.Action == "" || l.Action == filter.Action {
			out = append(out, l)
		}
	}
	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *stubAuditRepo) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	for i := range r.logs {
		if r.logs[i].ID == id {
			return &r.logs[i], nil
		}
	}
	return nil, nil
}

func (r *stubAuditRepo) actions() []string {
	out := make([]string, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Action
	}
	return out
}
