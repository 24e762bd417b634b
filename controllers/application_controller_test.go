package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/services"
)

func newApplicationRouter(apps *mockApplicationManager) http.Handler {
	ac := NewApplicationController(apps)
	sc := NewStatsController(apps)
	r := newTestRouter(asAdmin(1))
	r.GET("/api/admin/applications", ac.ListApplications)
	r.GET("/api/admin/applications/:id", ac.GetApplication)
	r.PATCH("/api/admin/applications/:id/status", ac.UpdateStatus)
	r.DELETE("/api/admin/applications/:id", ac.DeleteApplication)
	r.GET("/api/admin/dashboard/stats", sc.DashboardStats)
	r.GET("/api/admin/file-url", ac.FileURL)
	return r
}

func TestListApplicationsPassesFilter(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("List", services.ListFilter{Status: "pending", UserType: "student", Search: "2051"}).
		Return([]models.Application{{ApplicationID: "IDC261019AAAAAA", Status: "pending"}}, nil)

	w := perform(newApplicationRouter(apps), http.MethodGet, "/api/admin/applications?status=pending&userType=student&search=2051", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	list := body["applications"].([]interface{})
	assert.Equal(t, "IDC261019AAAAAA", list[0].(map[string]interface{})["applicationId"])
	apps.AssertExpectations(t)
}

func TestListApplicationsInvalidFilter(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("List", services.ListFilter{Status: "archived"}).
		Return(nil, fmt.Errorf("%w: invalid status filter %q", services.ErrInvalidArgument, "archived"))

	w := perform(newApplicationRouter(apps), http.MethodGet, "/api/admin/applications?status=archived", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"code":40000,"message":"invalid status filter \"archived\""}`, w.Body.String())
}

func TestGetApplicationNotFound(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("GetByID", "IDC404").Return(nil, fmt.Errorf("%w: application not found", services.ErrNotFound))

	w := perform(newApplicationRouter(apps), http.MethodGet, "/api/admin/applications/IDC404", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"code":40400,"message":"application not found"}`, w.Body.String())
}

func TestGetApplicationInternalErrorIsGeneric(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("GetByID", "7").Return(nil, errors.New("dial tcp 10.0.0.5:3306: connection refused"))

	w := perform(newApplicationRouter(apps), http.MethodGet, "/api/admin/applications/7", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.JSONEq(t, `{"success":false,"code":50011,"message":"internal server error"}`, w.Body.String())
}

func TestUpdateStatus(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("UpdateStatus", "IDC1", "rejected", "Missing FIR").
		Return(&models.Application{ApplicationID: "IDC1", Status: "rejected", RejectionReason: "Missing FIR"}, nil)
	r := newApplicationRouter(apps)

	w := perform(r, http.MethodPatch, "/api/admin/applications/IDC1/status", `{"status":"rejected","reason":"Missing FIR"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Application rejected", body["message"])
	assert.Equal(t, "Missing FIR", body["application"].(map[string]interface{})["rejectionReason"])

	w = perform(r, http.MethodPatch, "/api/admin/applications/IDC1/status", `{"reason":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	apps.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestDeleteApplicationModes(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("SoftDelete", "IDC1").Return(nil).Once()
	apps.On("HardDelete", "IDC2").Return(nil).Once()
	apps.On("HardDelete", "IDC3").Return(nil).Once()
	r := newApplicationRouter(apps)

	w := perform(r, http.MethodDelete, "/api/admin/applications/IDC1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Application deleted", decodeBody(t, w)["message"])

	w = perform(r, http.MethodDelete, "/api/admin/applications/IDC2", `{"hardDelete":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Application permanently deleted", decodeBody(t, w)["message"])

	w = perform(r, http.MethodDelete, "/api/admin/applications/IDC3?hard=true", "")
	assert.Equal(t, http.StatusOK, w.Code)

	apps.AssertExpectations(t)
}

func TestDashboardStatsEndpoint(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("DashboardStats").Return(&services.DashboardStats{Total: 6, Pending: 3, Approved: 2, Rejected: 1, Student: 4, FacultyOrStaff: 2}, nil)

	w := perform(newApplicationRouter(apps), http.MethodGet, "/api/admin/dashboard/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"stats":{"total":6,"pending":3,"approved":2,"rejected":1,"student":4,"faculty":2}}`, w.Body.String())
}

func TestFileURLEndpoint(t *testing.T) {
	apps := new(mockApplicationManager)
	apps.On("FileURL", "applications/IDC1/photo-1.png").Return("https://signed.example/x", 300*time.Second, nil)
	apps.On("FileURL", "").Return("", time.Duration(0), fmt.Errorf("%w: file key is required", services.ErrInvalidArgument))
	r := newApplicationRouter(apps)

	w := perform(r, http.MethodGet, "/api/admin/file-url?key=applications/IDC1/photo-1.png", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"url":"https://signed.example/x","expiresIn":300}`, w.Body.String())

	w = perform(r, http.MethodGet, "/api/admin/file-url", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file key is required", decodeBody(t, w)["message"])
}
