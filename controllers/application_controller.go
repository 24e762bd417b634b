package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/utils"
)

// ApplicationController serves the admin application review endpoints.
type ApplicationController struct {
	apps ApplicationManager
}

// NewApplicationController creates an ApplicationController.
func NewApplicationController(apps ApplicationManager) *ApplicationController {
	return &ApplicationController{apps: apps}
}

// ListApplications returns applications filtered by status, userType and search.
func (a *ApplicationController) ListApplications(ctx *gin.Context) {
	apps, err := a.apps.List(ctx.Request.Context(), services.ListFilter{
		Status:   ctx.Query("status"),
		UserType: ctx.Query("userType"),
		Search:   ctx.Query("search"),
	})
	if err != nil {
		respondError(ctx, err, 50010, "list applications")
		return
	}
	utils.Success(ctx, gin.H{
		"applications": apps,
		"count":        len(apps),
	})
}

// GetApplication returns one application by id or applicationId.
func (a *ApplicationController) GetApplication(ctx *gin.Context) {
	app, err := a.apps.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, 50011, "get application")
		return
	}
	utils.Success(ctx, gin.H{"application": app})
}

// UpdateStatus approves, rejects or reopens an application.
func (a *ApplicationController) UpdateStatus(ctx *gin.Context) {
	type request struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	app, err := a.apps.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), req.Status, req.Reason)
	if err != nil {
		respondError(ctx, err, 50012, "update application status")
		return
	}
	utils.Success(ctx, gin.H{
		"message":     "Application " + app.Status,
		"application": app,
	})
}

// DeleteApplication soft deletes by default. A hard delete is requested with
// ?hard=true or a {"hardDelete": true} body and also removes stored files.
func (a *ApplicationController) DeleteApplication(ctx *gin.Context) {
	type request struct {
		HardDelete bool `json:"hardDelete"`
	}

	var req request
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request payload")
			return
		}
	}
	hard := req.HardDelete || strings.EqualFold(ctx.Query("hard"), "true")

	id := ctx.Param("id")
	if hard {
		if err := a.apps.HardDelete(ctx.Request.Context(), id); err != nil {
			respondError(ctx, err, 50013, "hard delete application")
			return
		}
		utils.Success(ctx, gin.H{"message": "Application permanently deleted"})
		return
	}
	if err := a.apps.SoftDelete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, 50014, "soft delete application")
		return
	}
	utils.Success(ctx, gin.H{"message": "Application deleted"})
}

// FileURL signs a short-lived download link for a stored document key.
func (a *ApplicationController) FileURL(ctx *gin.Context) {
	url, ttl, err := a.apps.FileURL(ctx.Request.Context(), ctx.Query("key"))
	if err != nil {
		respondError(ctx, err, 50015, "sign file url")
		return
	}
	utils.Success(ctx, gin.H{
		"url":       url,
		"expiresIn": int(ttl.Seconds()),
	})
}
