package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/utils"
)

// ConfigController serves the public settings the applicant form needs.
type ConfigController struct {
	cfg config.AppConfig
}

func NewConfigController(cfg config.AppConfig) *ConfigController { return &ConfigController{cfg: cfg} }

// GetPortalConfig returns upload limits, accepted types and the institute domain.
func (c *ConfigController) GetPortalConfig(ctx *gin.Context) {
	accepted := make(gin.H, len(models.UploadFields))
	for _, field := range models.UploadFields {
		accepted[field] = services.AcceptedTypes(field)
	}
	utils.Success(ctx, gin.H{
		"maxFileSizeMB":        c.cfg.MaxUploadSizeMB,
		"instituteEmailDomain": c.cfg.InstituteEmailDomain,
		"captchaEnabled":       c.cfg.OTPCaptchaEnabled,
		"acceptedTypes":        accepted,
		"userTypes":            []string{models.UserTypeStudent, models.UserTypeFaculty, models.UserTypeStaff},
	})
}
