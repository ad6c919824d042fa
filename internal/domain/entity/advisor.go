package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Advisor is a bookable service provider
type Advisor struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID          *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	Name            string          `gorm:"type:varchar(255);not null"`
	Specialization  string          `gorm:"type:varchar(100);not null;index"`
	Rating          float64         `gorm:"type:numeric(2,1);not null;default:5"`
	Languages       StringList      `gorm:"type:jsonb;not null;default:'[]'"`
	ImageURL        string          `gorm:"type:text"`
	Email           string          `gorm:"type:varchar(255)"`
	Phone           string          `gorm:"type:varchar(50)"`
	Bio             string          `gorm:"type:text"`
	Qualifications  StringList      `gorm:"type:jsonb;not null;default:'[]'"`
	Experience      int             `gorm:"not null;default:0"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Available       *bool           `gorm:"not null;default:true;index"`
	ReviewCount     int             `gorm:"not null;default:0"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`

	// Relationships
	WorkingHours  []WorkingHours `gorm:"foreignKey:AdvisorID"`
	RecentReviews []Review       `gorm:"foreignKey:AdvisorID"`
}

func (Advisor) TableName() string {
	return "advisors"
}

// IsAvailable reports the advisor-level availability flag
func (a *Advisor) IsAvailable() bool {
	return a.Available == nil || *a.Available
}

// WorkingHoursFor returns the template entry for day, if the advisor has one
func (a *Advisor) WorkingHoursFor(day Weekday) (WorkingHours, bool) {
	for _, wh := range a.WorkingHours {
		if wh.DayOfWeek == day {
			return wh, true
		}
	}
	return WorkingHours{}, false
}

// OwnedBy reports whether the advisor profile belongs to the given auth identity
func (a *Advisor) OwnedBy(userID uuid.UUID) bool {
	return a.UserID != nil && *a.UserID == userID
}
