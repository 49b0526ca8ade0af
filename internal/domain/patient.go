package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Patient struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Image     string    `json:"image,omitempty"`
	Gender    string    `gorm:"type:varchar(16)" json:"gender,omitempty"`
	DOB       string    `gorm:"column:dob;type:varchar(10)" json:"dob,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Patient) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Patient) Snapshot() PatientSnapshot {
	return PatientSnapshot{Name: p.Name, Email: p.Email, Phone: p.Phone, Image: p.Image}
}

type PatientSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Image string `json:"image,omitempty"`
}
