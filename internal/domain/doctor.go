package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Doctor struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string          `gorm:"not null" json:"name"`
	Email      string          `gorm:"index" json:"email,omitempty"`
	Speciality string          `gorm:"index" json:"speciality"`
	Degree     string          `json:"degree,omitempty"`
	Experience string          `json:"experience,omitempty"`
	About      string          `gorm:"type:text" json:"about,omitempty"`
	Image      string          `json:"image,omitempty"`
	Fee        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"fee"`
	Available  bool            `gorm:"not null" json:"available"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (d *Doctor) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (d *Doctor) Snapshot() DoctorSnapshot {
	return DoctorSnapshot{Name: d.Name, Speciality: d.Speciality, Image: d.Image}
}

// DoctorSnapshot is the doctor data copied onto an appointment at booking time.
type DoctorSnapshot struct {
	Name       string `json:"name"`
	Speciality string `json:"speciality"`
	Image      string `json:"image,omitempty"`
}
