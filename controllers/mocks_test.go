package controllers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/services"
)

type mockApplicationManager struct{ mock.Mock }

func (m *mockApplicationManager) List(ctx context.Context, f services.ListFilter) ([]models.Application, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *mockApplicationManager) GetByID(ctx context.Context, id string) (*models.Application, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *mockApplicationManager) UpdateStatus(ctx context.Context, id, status, reason string) (*models.Application, error) {
	args := m.Called(id, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *mockApplicationManager) SoftDelete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *mockApplicationManager) HardDelete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *mockApplicationManager) DashboardStats(ctx context.Context) (*services.DashboardStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardStats), args.Error(1)
}

func (m *mockApplicationManager) FileURL(ctx context.Context, key string) (string, time.Duration, error) {
	args := m.Called(key)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

type mockAdminManager struct{ mock.Mock }

func (m *mockAdminManager) Create(ctx context.Context, in services.CreateAdminInput) (*models.Admin, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *mockAdminManager) List(ctx context.Context) ([]models.Admin, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Admin), args.Error(1)
}

func (m *mockAdminManager) Get(ctx context.Context, id uint) (*models.Admin, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *mockAdminManager) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *mockAdminManager) Delete(ctx context.Context, actingID, id uint) error {
	return m.Called(actingID, id).Error(0)
}

func (m *mockAdminManager) VerifyCredential(ctx context.Context, username, password string) (*services.AdminIdentity, error) {
	args := m.Called(username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AdminIdentity), args.Error(1)
}

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Submit(ctx context.Context, in services.SubmitInput, verifiedEmail string, files []services.FileUpload) (*models.Application, error) {
	args := m.Called(in, verifiedEmail, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

func (m *mockSubmitter) Status(ctx context.Context, applicationID, email string) (*models.Application, error) {
	args := m.Called(applicationID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Application), args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) SendOTP(ctx context.Context, in services.SendOTPInput) (string, error) {
	args := m.Called(in)
	return args.String(0), args.Error(1)
}

func (m *mockVerifier) VerifyOTP(ctx context.Context, email, code, userType string) (string, error) {
	args := m.Called(email, code, userType)
	return args.String(0), args.Error(1)
}
