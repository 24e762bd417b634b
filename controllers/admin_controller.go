package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/middleware"
	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/utils"
)

// AdminController manages admin accounts.
type AdminController struct {
	admins AdminManager
}

func NewAdminController(admins AdminManager) *AdminController {
	return &AdminController{admins: admins}
}

// CreateAdmin registers a new admin account.
func (a *AdminController) CreateAdmin(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	admin, err := a.admins.Create(ctx.Request.Context(), services.CreateAdminInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(ctx, err, 50030, "create admin")
		return
	}
	utils.SuccessStatus(ctx, http.StatusCreated, gin.H{
		"message": "Admin created",
		"admin":   admin,
	})
}

// ListAdmins returns all admins without password hashes.
func (a *AdminController) ListAdmins(ctx *gin.Context) {
	admins, err := a.admins.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, 50031, "list admins")
		return
	}
	utils.Success(ctx, gin.H{"admins": admins})
}

// DeleteAdmin removes another admin. Deleting one's own account is refused.
func (a *AdminController) DeleteAdmin(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40007, "invalid admin id")
		return
	}
	actingID, ok := middleware.AdminID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "authentication required")
		return
	}
	if err := a.admins.Delete(ctx.Request.Context(), actingID, uint(id)); err != nil {
		respondError(ctx, err, 50032, "delete admin")
		return
	}
	utils.Success(ctx, gin.H{"message": "Admin deleted"})
}
