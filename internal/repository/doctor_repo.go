package repository

import (
	"context"
	"time"

	"clinicbook/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DoctorRepository) GetByID(ctx context.Context, id string) (*domain.Doctor, error) {
	var d domain.Doctor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err, domain.ErrDoctorNotFound)
	}
	return &d, nil
}

// GetForUpdate loads the doctor row with a row lock. Only meaningful inside a
// transaction; sqlite ignores the locking clause.
func (r *DoctorRepository) GetForUpdate(ctx context.Context, id string) (*domain.Doctor, error) {
	var d domain.Doctor
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, notFound(err, domain.ErrDoctorNotFound)
	}
	return &d, nil
}

func (r *DoctorRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Doctor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available":  available,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) List(ctx context.Context, onlyAvailable bool) ([]domain.Doctor, error) {
	q := r.db.WithContext(ctx).Model(&domain.Doctor{})
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var out []domain.Doctor
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
