package repository

import (
	"encoding/json"
	"errors"

	"advisor-booking/internal/domain/entity"
	domainRepo "advisor-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const recentReviewLimit = 5

var advisorSortColumns = map[string]string{
	"name":            "name",
	"rating":          "rating",
	"experience":      "experience",
	"consultationFee": "consultation_fee",
	"reviewCount":     "review_count",
}

type advisorRepository struct{}

func NewAdvisorRepository() domainRepo.AdvisorRepository {
	return &advisorRepository{}
}

func (r *advisorRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Advisor, error) {
	var advisor entity.Advisor
	err := db.Preload("WorkingHours").
		Preload("RecentReviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(recentReviewLimit)
		}).
		Where("id = ?", id).
		First(&advisor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	entity.SortWorkingHours(advisor.WorkingHours)
	return &advisor, nil
}

func (r *advisorRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.Advisor, error) {
	var advisor entity.Advisor
	err := db.Where("user_id = ?", userID).First(&advisor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &advisor, nil
}

func (r *advisorRepository) Search(db *gorm.DB, filter *entity.AdvisorFilter) ([]entity.Advisor, int64, error) {
	scope := advisorFilterScope(filter)

	var total int64
	if err := db.Model(&entity.Advisor{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := advisorSortColumns[filter.SortBy]
	if !ok {
		column = "rating"
	}
	direction := " DESC"
	if filter.SortAsc {
		direction = " ASC"
	}

	var advisors []entity.Advisor
	err := db.Scopes(scope).
		Preload("WorkingHours").
		Order(column + direction).
		Order("name ASC").
		Offset(filter.Page * filter.Size).
		Limit(filter.Size).
		Find(&advisors).Error
	if err != nil {
		return nil, 0, err
	}
	for i := range advisors {
		entity.SortWorkingHours(advisors[i].WorkingHours)
	}
	return advisors, total, nil
}

func advisorFilterScope(filter *entity.AdvisorFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Query != "" {
			like := "%" + filter.Query + "%"
			db = db.Where("name ILIKE ? OR specialization ILIKE ? OR bio ILIKE ?", like, like, like)
		}
		if filter.Specialization != "" {
			db = db.Where("specialization ILIKE ?", "%"+filter.Specialization+"%")
		}
		if filter.Language != "" {
			lang, err := json.Marshal([]string{filter.Language})
			if err != nil {
				db.AddError(err)
				return db
			}
			db = db.Where("languages @> ?::jsonb", string(lang))
		}
		if filter.MinRating != nil {
			db = db.Where("rating >= ?", *filter.MinRating)
		}
		if filter.MaxFee != nil {
			db = db.Where("consultation_fee <= ?", *filter.MaxFee)
		}
		if filter.Available != nil {
			db = db.Where("available = ?", *filter.Available)
		}
		return db
	}
}

// UpdateAvailable returns affected rows: 0 means the advisor does not exist.
func (r *advisorRepository) UpdateAvailable(db *gorm.DB, id uuid.UUID, available bool) (int64, error) {
	result := db.Model(&entity.Advisor{}).
		Where("id = ?", id).
		Update("available", available)
	return result.RowsAffected, result.Error
}
