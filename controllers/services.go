package controllers

import (
	"context"
	"time"

	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/services"
)

// ApplicationManager is the admin side of the application lifecycle.
type ApplicationManager interface {
	List(ctx context.Context, f services.ListFilter) ([]models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	UpdateStatus(ctx context.Context, id, status, reason string) (*models.Application, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	DashboardStats(ctx context.Context) (*services.DashboardStats, error)
	FileURL(ctx context.Context, key string) (string, time.Duration, error)
}

// AdminManager manages the admin roster and credentials.
type AdminManager interface {
	Create(ctx context.Context, in services.CreateAdminInput) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Get(ctx context.Context, id uint) (*models.Admin, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, actingID, id uint) error
	VerifyCredential(ctx context.Context, username, password string) (*services.AdminIdentity, error)
}

// Submitter accepts applicant submissions.
type Submitter interface {
	Submit(ctx context.Context, in services.SubmitInput, verifiedEmail string, files []services.FileUpload) (*models.Application, error)
	Status(ctx context.Context, applicationID, email string) (*models.Application, error)
}

// Verifier runs the applicant e-mail OTP flow.
type Verifier interface {
	SendOTP(ctx context.Context, in services.SendOTPInput) (string, error)
	VerifyOTP(ctx context.Context, email, code, userType string) (string, error)
}

var (
	_ ApplicationManager = (*services.ApplicationService)(nil)
	_ AdminManager       = (*services.AdminService)(nil)
	_ Submitter          = (*services.SubmissionService)(nil)
	_ Verifier           = (*services.VerificationService)(nil)
)
