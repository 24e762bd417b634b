package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/utils"
)

// StatsController provides the admin dashboard counters.
type StatsController struct {
	apps ApplicationManager
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(apps ApplicationManager) *StatsController {
	return &StatsController{apps: apps}
}

// DashboardStats returns application counts by status and applicant type.
// The counts come from separate queries and may be momentarily inconsistent.
func (s *StatsController) DashboardStats(ctx *gin.Context) {
	stats, err := s.apps.DashboardStats(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, 50020, "dashboard stats")
		return
	}
	utils.Success(ctx, gin.H{"stats": stats})
}
