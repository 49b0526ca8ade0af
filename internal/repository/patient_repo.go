package repository

import (
	"context"

	"clinicbook/internal/domain"

	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	var p domain.Patient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, domain.ErrPatientNotFound)
	}
	return &p, nil
}
