package repository

import (
	"time"

	"advisor-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindBlocking(db *gorm.DB, advisorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error)
	FindByAdvisorID(db *gorm.DB, advisorID uuid.UUID, day *entity.DayRange) ([]entity.Appointment, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error)
}
