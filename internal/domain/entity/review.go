package entity

import (
	"time"

	"github.com/google/uuid"
)

// Review is a patient rating of an advisor
type Review struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AdvisorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	PatientName string    `gorm:"type:varchar(255);not null" json:"patientName"`
	Rating      int       `gorm:"not null" json:"rating"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"date"`
}

func (Review) TableName() string {
	return "advisor_reviews"
}
