package repository

import (
	"errors"
	"time"

	"advisor-booking/internal/domain/entity"
	domainRepo "advisor-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// FindBlocking returns appointments of the advisor that hold time overlapping [from, to).
func (r *appointmentRepository) FindBlocking(db *gorm.DB, advisorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("advisor_id = ?", advisorID).
		Where("status IN ?", entity.SlotBlockingStatuses).
		Where("scheduled_at < ?", to).
		Where("scheduled_at + duration_minutes * interval '1 minute' > ?", from).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error) {
	return r.findBy(db, "patient_id = ?", patientID, day)
}

func (r *appointmentRepository) FindByAdvisorID(db *gorm.DB, advisorID uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error) {
	return r.findBy(db, "advisor_id = ?", advisorID, day)
}

func (r *appointmentRepository) findBy(db *gorm.DB, cond string, id uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error) {
	query := db.Where(cond, id)
	if day != nil {
		query = query.Where("scheduled_at >= ? AND scheduled_at < ?", day.From, day.To).
			Order("scheduled_at ASC")
	} else {
		query = query.Order("scheduled_at DESC")
	}

	var appointments []entity.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateStatus moves the appointment from one status to another only if it
// is still in the expected status. Returns affected rows: 0 means another
// request changed it first.
func (r *appointmentRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
