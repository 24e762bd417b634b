package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/services"
)

func TestGetPortalConfig(t *testing.T) {
	cc := NewConfigController(config.AppConfig{MaxUploadSizeMB: 5, InstituteEmailDomain: "nitt.edu"})
	r := newTestRouter()
	r.GET("/api/config", cc.GetPortalConfig)

	w := perform(r, http.MethodGet, "/api/config", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(5), body["maxFileSizeMB"])
	assert.Equal(t, "nitt.edu", body["instituteEmailDomain"])
	assert.Equal(t, false, body["captchaEnabled"])
	accepted := body["acceptedTypes"].(map[string]interface{})
	assert.Len(t, accepted, 4)
	assert.Contains(t, accepted["fir"], "application/pdf")
	assert.NotContains(t, accepted["photo"], "application/pdf")
}

func TestClientMessage(t *testing.T) {
	err := fmt.Errorf("update: %w", fmt.Errorf("%w: name is required", services.ErrInvalidArgument))
	assert.Equal(t, "name is required", clientMessage(err, services.ErrInvalidArgument, "invalid request"))
	assert.Equal(t, "invalid request", clientMessage(services.ErrInvalidArgument, services.ErrInvalidArgument, "invalid request"))
	assert.Equal(t, "not found", clientMessage(errors.New("boom"), services.ErrNotFound, "not found"))
}
