package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/metrics"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/repositories"
	"github.com/cppla/idportal/storage"
	"github.com/cppla/idportal/utils"
)

// filterAll is accepted for Status and UserType and means no filtering.
const filterAll = "all"

// ListFilter holds the admin list query.
type ListFilter struct {
	Status   string
	UserType string
	Search   string
}

// DashboardStats are the admin dashboard counts over non-deleted applications.
// They are computed by independent queries and are not a consistent snapshot.
type DashboardStats struct {
	Total          int64 `json:"total"`
	Pending        int64 `json:"pending"`
	Approved       int64 `json:"approved"`
	Rejected       int64 `json:"rejected"`
	Student        int64 `json:"student"`
	FacultyOrStaff int64 `json:"faculty"`
}

// ApplicationService implements the admin side of the application lifecycle.
type ApplicationService struct {
	apps         repositories.ApplicationRepository
	store        storage.ObjectStore
	signedURLTTL time.Duration
	fileURLTTL   time.Duration
	now          func() time.Time
}

// NewApplicationService wires the service with its repository and object store.
func NewApplicationService(apps repositories.ApplicationRepository, store storage.ObjectStore, cfg config.AppConfig) *ApplicationService {
	return &ApplicationService{
		apps:         apps,
		store:        store,
		signedURLTTL: time.Duration(cfg.SignedURLTTLSeconds) * time.Second,
		fileURLTTL:   time.Duration(cfg.FileURLTTLSeconds) * time.Second,
		now:          time.Now,
	}
}

func normalizeFilter(f ListFilter) (repositories.ApplicationFilter, error) {
	out := repositories.ApplicationFilter{
		Status:   strings.ToLower(strings.TrimSpace(f.Status)),
		UserType: strings.ToLower(strings.TrimSpace(f.UserType)),
		Search:   strings.TrimSpace(f.Search),
	}
	if out.Status == filterAll {
		out.Status = ""
	}
	if out.UserType == filterAll {
		out.UserType = ""
	}
	if out.Status != "" && !models.ValidStatus(out.Status) {
		return out, fmt.Errorf("%w: invalid status filter %q", ErrInvalidArgument, f.Status)
	}
	if out.UserType != "" && !models.ValidUserType(out.UserType) {
		return out, fmt.Errorf("%w: invalid userType filter %q", ErrInvalidArgument, f.UserType)
	}
	return out, nil
}

// List returns non-deleted applications matching f, newest first, each with fresh signed URLs.
func (s *ApplicationService) List(ctx context.Context, f ListFilter) ([]models.Application, error) {
	filter, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	apps, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	tasks := make([]func() error, len(apps))
	for i := range apps {
		app := &apps[i]
		tasks[i] = func() error {
			s.enrich(ctx, app)
			return nil
		}
	}
	runAll("enrich-urls", tasks...)
	return apps, nil
}

// enrich fills the transient URL fields. A slot whose URL cannot be signed is left empty.
func (s *ApplicationService) enrich(ctx context.Context, app *models.Application) {
	app.PhotoURL = s.store.SignedURL(ctx, app.PhotoPath, s.signedURLTTL)
	app.FIRURL = s.store.SignedURL(ctx, app.FIRPath, s.signedURLTTL)
	app.PaymentURL = s.store.SignedURL(ctx, app.PaymentPath, s.signedURLTTL)
	app.PDFURL = s.store.SignedURL(ctx, app.ApplicationPDF, s.signedURLTTL)
}

func (s *ApplicationService) find(ctx context.Context, id string) (*models.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidArgument)
	}
	app, err := s.apps.FindByIDOrApplicationID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: application not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find application %s: %w", id, err)
	}
	return app, nil
}

// GetByID resolves id as a primary key or an applicationId. Soft-deleted
// applications are still returned.
func (s *ApplicationService) GetByID(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, app)
	return app, nil
}

// UpdateStatus records an admin decision. Any transition between known statuses is allowed.
// reason is stored only for a rejection and only when it is non-empty after sanitizing.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id, status, reason string) (*models.Application, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidArgument, status)
	}
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var newReason *string
	if status == models.StatusRejected {
		if clean := utils.Sanitize(reason); clean != "" {
			newReason = &clean
		}
	}
	if err := s.apps.UpdateStatus(ctx, app.ID, status, newReason); err != nil {
		return nil, fmt.Errorf("update status of %s: %w", app.ApplicationID, err)
	}
	metrics.RecordStatusChange(status)
	utils.Sugar.Infow("application status updated", "application_id", app.ApplicationID, "from", app.Status, "to", status)

	app.Status = status
	if newReason != nil {
		app.RejectionReason = *newReason
	}
	app.UpdatedAt = s.now()
	s.enrich(ctx, app)
	return app, nil
}

// SoftDelete hides the application from lists and stats. Stored files are kept.
func (s *ApplicationService) SoftDelete(ctx context.Context, id string) error {
	app, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.apps.SoftDelete(ctx, app.ID, s.now()); err != nil {
		return fmt.Errorf("soft delete %s: %w", app.ApplicationID, err)
	}
	metrics.RecordDeletion("soft")
	return nil
}

// HardDelete removes the stored files, best effort and concurrently, then the row itself.
// A failed file delete never prevents the row removal.
func (s *ApplicationService) HardDelete(ctx context.Context, id string) error {
	app, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	keys := app.FileKeys()
	tasks := make([]func() error, len(keys))
	for i, key := range keys {
		key := key
		tasks[i] = func() error { return s.store.Delete(ctx, key) }
	}
	runAll("hard-delete-files", tasks...)

	err = s.apps.Delete(ctx, app.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: application not found", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("hard delete %s: %w", app.ApplicationID, err)
	}
	metrics.RecordDeletion("hard")
	utils.Sugar.Infow("application purged", "application_id", app.ApplicationID, "files", len(keys))
	return nil
}

// DashboardStats runs the six counts concurrently. Any failing count fails the call.
func (s *ApplicationService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, f repositories.CountFilter) {
		g.Go(func() error {
			n, err := s.apps.Count(gctx, f)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&stats.Total, repositories.CountFilter{})
	count(&stats.Pending, repositories.CountFilter{Status: models.StatusPending})
	count(&stats.Approved, repositories.CountFilter{Status: models.StatusApproved})
	count(&stats.Rejected, repositories.CountFilter{Status: models.StatusRejected})
	count(&stats.Student, repositories.CountFilter{UserTypes: []string{models.UserTypeStudent}})
	count(&stats.FacultyOrStaff, repositories.CountFilter{UserTypes: []string{models.UserTypeFaculty, models.UserTypeStaff}})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}

// FileURL signs a short-lived link for an arbitrary stored key.
func (s *ApplicationService) FileURL(ctx context.Context, key string) (string, time.Duration, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", 0, fmt.Errorf("%w: file key is required", ErrInvalidArgument)
	}
	url, err := s.store.PresignGet(ctx, key, s.fileURLTTL)
	if err != nil {
		metrics.RecordStorageFailure("presign")
		return "", 0, fmt.Errorf("sign file url: %w", err)
	}
	return url, s.fileURLTTL, nil
}
