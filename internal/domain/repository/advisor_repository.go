package repository

import (
	"advisor-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdvisorRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Advisor, error)
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.Advisor, error)
	Search(db *gorm.DB, filter *entity.AdvisorFilter) ([]entity.Advisor, int64, error)
	UpdateAvailable(db *gorm.DB, id uuid.UUID, available bool) (int64, error)
}

type WorkingHoursRepository interface {
	FindByAdvisorID(db *gorm.DB, advisorID uuid.UUID) ([]entity.WorkingHours, error)
	Create(db *gorm.DB, wh *entity.WorkingHours) error
	ReplaceAll(db *gorm.DB, advisorID uuid.UUID, hours []entity.WorkingHours) error
}
