package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/idportal/models"
)

// StagedUploadRepository tracks objects written to storage before their application row exists.
type StagedUploadRepository interface {
	Create(ctx context.Context, s *models.StagedUpload) error
	DeleteByKeys(ctx context.Context, keys []string) error
	ListExpired(ctx context.Context, before time.Time, limit int) ([]models.StagedUpload, error)
	// Attached reports whether the application the upload was staged for has been created.
	Attached(ctx context.Context, applicationID string) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// GormStagedUploadRepository implements StagedUploadRepository using GORM.
type GormStagedUploadRepository struct{ DB *gorm.DB }

func NewStagedUploadRepository(db *gorm.DB) *GormStagedUploadRepository {
	return &GormStagedUploadRepository{DB: db}
}

func (r *GormStagedUploadRepository) Create(ctx context.Context, s *models.StagedUpload) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormStagedUploadRepository) DeleteByKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("object_key IN ?", keys).Delete(&models.StagedUpload{}).Error
}

func (r *GormStagedUploadRepository) ListExpired(ctx context.Context, before time.Time, limit int) ([]models.StagedUpload, error) {
	var items []models.StagedUpload
	err := r.DB.WithContext(ctx).
		Where("expire_at <= ?", before).
		Order("expire_at").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *GormStagedUploadRepository) Attached(ctx context.Context, applicationID string) (bool, error) {
	if applicationID == "" {
		return false, nil
	}
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Application{}).Where("application_id = ?", applicationID).Count(&n).Error
	return n > 0, err
}

func (r *GormStagedUploadRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.StagedUpload{}, id).Error
}
