package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/metrics"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/repositories"
	"github.com/cppla/idportal/storage"
	"github.com/cppla/idportal/utils"
)

var (
	imageTypes    = []string{"image/jpeg", "image/png"}
	documentTypes = []string{"image/jpeg", "image/png", "application/pdf"}
)

// FileUpload is one multipart file. Body must be rewindable; the content type is sniffed from it.
type FileUpload struct {
	Field string
	Size  int64
	Body  io.ReadSeeker
}

// SubmitInput carries the applicant form fields.
type SubmitInput struct {
	UserType        string
	Title           string
	Name            string
	RollNo          string
	StaffNo         string
	Designation     string
	Department      string
	Branch          string
	FatherName      string
	DOB             string
	BloodGroup      string
	Email           string
	Phone           string
	Address         string
	RequestCategory string
	ReasonDetails   string
	IssuedBooks     string
}

// acceptedFile is a validated upload ready to be stored.
type acceptedFile struct {
	FileUpload
	mime *mimetype.MIME
}

// SubmissionService ingests applicant uploads and creates applications.
type SubmissionService struct {
	apps      repositories.ApplicationRepository
	staged    repositories.StagedUploadRepository
	store     storage.ObjectStore
	maxBytes  int64
	maxMB     int
	stagedTTL time.Duration
	now       func() time.Time
}

func NewSubmissionService(apps repositories.ApplicationRepository, staged repositories.StagedUploadRepository, store storage.ObjectStore, cfg config.AppConfig) *SubmissionService {
	return &SubmissionService{
		apps:      apps,
		staged:    staged,
		store:     store,
		maxBytes:  cfg.MaxUploadBytes(),
		maxMB:     cfg.MaxUploadSizeMB,
		stagedTTL: time.Duration(cfg.StagedUploadTTLMinutes) * time.Minute,
		now:       time.Now,
	}
}

// NewApplicationID returns an identifier like IDC261019A1B2C3: a prefix, the date and six hex digits.
func NewApplicationID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "IDC" + now.Format("060102") + strings.ToUpper(suffix)
}

// AcceptedTypes lists the content types allowed for an upload field.
func AcceptedTypes(field string) []string {
	if field == models.FieldPhoto {
		return imageTypes
	}
	return documentTypes
}

// validateFiles checks size and sniffed type in field order and stops at the first violation.
func (s *SubmissionService) validateFiles(files []FileUpload) ([]acceptedFile, error) {
	byField := make(map[string]FileUpload, len(files))
	for _, f := range files {
		if !containsString(models.UploadFields, f.Field) {
			return nil, fmt.Errorf("%w: unexpected file field %s", ErrUploadRejected, f.Field)
		}
		if _, dup := byField[f.Field]; dup {
			return nil, fmt.Errorf("%w: only one file allowed for %s", ErrUploadRejected, f.Field)
		}
		byField[f.Field] = f
	}

	accepted := make([]acceptedFile, 0, len(byField))
	for _, field := range models.UploadFields {
		f, ok := byField[field]
		if !ok {
			continue
		}
		if f.Size > s.maxBytes {
			return nil, fmt.Errorf("%w: file %s exceeds %dMB", ErrUploadRejected, field, s.maxMB)
		}
		mt, err := mimetype.DetectReader(f.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read file %s", ErrUploadRejected, field)
		}
		if _, err := f.Body.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind %s: %w", field, err)
		}
		if !mimeAllowed(mt, AcceptedTypes(field)) {
			if field == models.FieldPhoto {
				return nil, fmt.Errorf("%w: file %s must be a JPEG or PNG image", ErrUploadRejected, field)
			}
			return nil, fmt.Errorf("%w: file %s must be a JPEG, PNG or PDF", ErrUploadRejected, field)
		}
		accepted = append(accepted, acceptedFile{FileUpload: f, mime: mt})
	}
	return accepted, nil
}

func mimeAllowed(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func validateForm(in SubmitInput, verifiedEmail string) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if !models.ValidUserType(in.UserType) {
		return fmt.Errorf("%w: invalid userType", ErrInvalidArgument)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if in.Email != strings.ToLower(strings.TrimSpace(verifiedEmail)) {
		return fmt.Errorf("%w: email does not match the verified address", ErrInvalidArgument)
	}
	if in.UserType == models.UserTypeStudent && in.RollNo == "" {
		return fmt.Errorf("%w: rollNo is required for students", ErrInvalidArgument)
	}
	return nil
}

func cleanInput(in SubmitInput) SubmitInput {
	return SubmitInput{
		UserType:        strings.ToLower(strings.TrimSpace(in.UserType)),
		Title:           utils.Sanitize(in.Title),
		Name:            utils.Sanitize(in.Name),
		RollNo:          utils.Sanitize(in.RollNo),
		StaffNo:         utils.Sanitize(in.StaffNo),
		Designation:     utils.Sanitize(in.Designation),
		Department:      utils.Sanitize(in.Department),
		Branch:          utils.Sanitize(in.Branch),
		FatherName:      utils.Sanitize(in.FatherName),
		DOB:             utils.Sanitize(in.DOB),
		BloodGroup:      utils.Sanitize(in.BloodGroup),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:           utils.Sanitize(in.Phone),
		Address:         utils.Sanitize(in.Address),
		RequestCategory: utils.Sanitize(in.RequestCategory),
		ReasonDetails:   utils.Sanitize(in.ReasonDetails),
		IssuedBooks:     utils.Sanitize(in.IssuedBooks),
	}
}

// Submit validates the form and files, stores the files and creates a pending application.
// verifiedEmail is the address proven by the applicant token.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput, verifiedEmail string, files []FileUpload) (*models.Application, error) {
	in = cleanInput(in)
	if err := validateForm(in, verifiedEmail); err != nil {
		metrics.RecordSubmission("unknown", "invalid")
		return nil, err
	}
	accepted, err := s.validateFiles(files)
	if err != nil {
		metrics.RecordSubmission(in.UserType, "rejected_upload")
		return nil, err
	}

	now := s.now()
	app := &models.Application{
		ApplicationID:   NewApplicationID(now),
		UserType:        in.UserType,
		Status:          models.StatusPending,
		Title:           in.Title,
		Name:            in.Name,
		RollNo:          in.RollNo,
		StaffNo:         in.StaffNo,
		Designation:     in.Designation,
		Department:      in.Department,
		Branch:          in.Branch,
		FatherName:      in.FatherName,
		DOB:             in.DOB,
		BloodGroup:      in.BloodGroup,
		Email:           in.Email,
		Phone:           in.Phone,
		Address:         in.Address,
		RequestCategory: in.RequestCategory,
		ReasonDetails:   in.ReasonDetails,
		IssuedBooks:     in.IssuedBooks,
	}

	keys, err := s.storeFiles(ctx, app, accepted, now)
	if err != nil {
		metrics.RecordSubmission(in.UserType, "storage_failed")
		return nil, err
	}

	if err := s.apps.Create(ctx, app); err != nil {
		s.discard(ctx, keys)
		metrics.RecordSubmission(in.UserType, "failed")
		return nil, fmt.Errorf("create application: %w", err)
	}
	if err := s.staged.DeleteByKeys(ctx, keys); err != nil {
		utils.Sugar.Warnw("clear staged uploads failed", "application_id", app.ApplicationID, "error", err)
	}
	metrics.RecordSubmission(in.UserType, "ok")
	utils.Sugar.Infow("application submitted", "application_id", app.ApplicationID, "user_type", app.UserType, "files", len(keys))
	return app, nil
}

// storeFiles stages and uploads every accepted file under the application's key prefix.
// On failure the objects written so far are discarded.
func (s *SubmissionService) storeFiles(ctx context.Context, app *models.Application, files []acceptedFile, now time.Time) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := fmt.Sprintf("applications/%s/%s-%d%s", app.ApplicationID, f.Field, now.UnixMilli(), f.mime.Extension())
		staged := &models.StagedUpload{
			ObjectKey:     key,
			Field:         f.Field,
			ApplicationID: app.ApplicationID,
			ExpireAt:      now.Add(s.stagedTTL),
		}
		if err := s.staged.Create(ctx, staged); err != nil {
			s.discard(ctx, keys)
			return nil, fmt.Errorf("stage %s: %w", f.Field, err)
		}
		keys = append(keys, key)
		if err := s.store.Put(ctx, key, f.Body, f.Size, f.mime.String()); err != nil {
			s.discard(ctx, keys)
			return nil, fmt.Errorf("store %s: %w", f.Field, err)
		}
		app.SetFileKey(f.Field, key)
	}
	return keys, nil
}

// discard deletes objects best effort and drops their staged rows.
func (s *SubmissionService) discard(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	tasks := make([]func() error, len(keys))
	for i, key := range keys {
		key := key
		tasks[i] = func() error { return s.store.Delete(ctx, key) }
	}
	runAll("discard-uploads", tasks...)
	if err := s.staged.DeleteByKeys(ctx, keys); err != nil {
		utils.Sugar.Warnw("clear staged uploads failed", "error", err)
	}
}

// Status returns the applicant's own application. Unknown, deleted and foreign
// applications are all reported as not found.
func (s *SubmissionService) Status(ctx context.Context, applicationID, email string) (*models.Application, error) {
	app, err := s.apps.FindByApplicationID(ctx, strings.TrimSpace(applicationID))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: application not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	if app.IsDeleted || !strings.EqualFold(app.Email, strings.TrimSpace(email)) {
		return nil, fmt.Errorf("%w: application not found", ErrNotFound)
	}
	return app, nil
}
