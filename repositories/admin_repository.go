package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/idportal/models"
)

// AdminRepository abstracts admin account persistence.
type AdminRepository interface {
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, a *models.Admin) error
	// List returns every admin, newest first.
	List(ctx context.Context) ([]models.Admin, error)
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindByID(ctx context.Context, id uint) (*models.Admin, error)
	// Delete removes the admin or returns ErrNotFound.
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// GormAdminRepository implements AdminRepository using GORM.
type GormAdminRepository struct{ DB *gorm.DB }

func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{DB: db}
}

func (r *GormAdminRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	return n > 0, err
}

func (r *GormAdminRepository) Create(ctx context.Context, a *models.Admin) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormAdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *GormAdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAdminRepository) FindByID(ctx context.Context, id uint) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAdminRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Admin{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormAdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Admin{}).Count(&n).Error
	return n, err
}
