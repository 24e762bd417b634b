package repositories

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/idportal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrDuplicate is returned on a unique index violation. It requires TranslateError on the gorm config.
	ErrDuplicate = gorm.ErrDuplicatedKey
)

// ApplicationFilter narrows List. Empty fields match everything.
type ApplicationFilter struct {
	Status   string
	UserType string
	Search   string
}

// CountFilter narrows Count. Empty Status and nil UserTypes match everything.
type CountFilter struct {
	Status    string
	UserTypes []string
}

// ApplicationRepository abstracts application persistence.
type ApplicationRepository interface {
	// List returns non-deleted applications matching f, newest first.
	List(ctx context.Context, f ApplicationFilter) ([]models.Application, error)
	// FindByIDOrApplicationID resolves id as a primary key or an applicationId.
	// Soft-deleted rows are returned too.
	FindByIDOrApplicationID(ctx context.Context, id string) (*models.Application, error)
	FindByApplicationID(ctx context.Context, applicationID string) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	// UpdateStatus sets status and bumps updated_at. reason is written only when non-nil.
	UpdateStatus(ctx context.Context, id uint, status string, reason *string) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
	// Count counts non-deleted applications matching f.
	Count(ctx context.Context, f CountFilter) (int64, error)
}

// GormApplicationRepository implements ApplicationRepository using GORM.
type GormApplicationRepository struct{ DB *gorm.DB }

// NewApplicationRepository returns a GORM backed repository.
func NewApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{DB: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (r *GormApplicationRepository) List(ctx context.Context, f ApplicationFilter) ([]models.Application, error) {
	q := r.DB.WithContext(ctx).Where("is_deleted = ?", false)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserType != "" {
		q = q.Where("user_type = ?", f.UserType)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		p := containsPattern(search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(roll_no) LIKE ? OR LOWER(application_id) LIKE ?)", p, p, p, p)
	}
	var apps []models.Application
	if err := q.Order("created_at DESC").Order("id DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *GormApplicationRepository) FindByIDOrApplicationID(ctx context.Context, id string) (*models.Application, error) {
	q := r.DB.WithContext(ctx)
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		q = q.Where("id = ? OR application_id = ?", n, id)
	} else {
		q = q.Where("application_id = ?", id)
	}
	var app models.Application
	if err := q.First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *GormApplicationRepository) FindByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	var app models.Application
	if err := r.DB.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *GormApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	return r.DB.WithContext(ctx).Create(app).Error
}

func (r *GormApplicationRepository) UpdateStatus(ctx context.Context, id uint, status string, reason *string) error {
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if reason != nil {
		fields["rejection_reason"] = *reason
	}
	return r.DB.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormApplicationRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_deleted": true,
		"deleted_at": at,
		"updated_at": at,
	}).Error
}

func (r *GormApplicationRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Application{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormApplicationRepository) Count(ctx context.Context, f CountFilter) (int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Application{}).Where("is_deleted = ?", false)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.UserTypes) > 0 {
		q = q.Where("user_type IN ?", f.UserTypes)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
