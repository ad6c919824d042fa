package repository

import (
	"advisor-booking/internal/domain/entity"
	domainRepo "advisor-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type workingHoursRepository struct{}

func NewWorkingHoursRepository() domainRepo.WorkingHoursRepository {
	return &workingHoursRepository{}
}

func (r *workingHoursRepository) FindByAdvisorID(db *gorm.DB, advisorID uuid.UUID) ([]entity.WorkingHours, error) {
	var hours []entity.WorkingHours
	err := db.Where("advisor_id = ?", advisorID).Find(&hours).Error
	if err != nil {
		return nil, err
	}
	entity.SortWorkingHours(hours)
	return hours, nil
}

func (r *workingHoursRepository) Create(db *gorm.DB, wh *entity.WorkingHours) error {
	return db.Create(wh).Error
}

// ReplaceAll swaps the whole template. Callers run it inside a transaction.
func (r *workingHoursRepository) ReplaceAll(db *gorm.DB, advisorID uuid.UUID, hours []entity.WorkingHours) error {
	if err := db.Where("advisor_id = ?", advisorID).Delete(&entity.WorkingHours{}).Error; err != nil {
		return err
	}
	if len(hours) == 0 {
		return nil
	}
	for i := range hours {
		hours[i].AdvisorID = advisorID
	}
	return db.Create(&hours).Error
}
