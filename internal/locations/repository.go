package locations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, location *Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*Location, error)
	List(ctx context.Context, page, limit int) ([]Location, int64, error)
	UpdateRate(ctx context.Context, id uuid.UUID, hourlyRate float64) error
	UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, location *Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Location, error) {
	var location Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &location, nil
}

func (r *repository) List(ctx context.Context, page, limit int) ([]Location, int64, error) {
	var result []Location
	var totalCount int64

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	baseQuery := r.db.WithContext(ctx).Model(&Location{}).Where("active = ?", true)

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := baseQuery.
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error

	return result, totalCount, err
}

func (r *repository) UpdateRate(ctx context.Context, id uuid.UUID, hourlyRate float64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"hourly_rate": hourlyRate})
}

func (r *repository) UpdateCapacity(ctx context.Context, id uuid.UUID, capacity int) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"total_capacity": capacity})
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"active": active})
}

func (r *repository) updateColumns(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&Location{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLocationNotFound
	}
	return nil
}
