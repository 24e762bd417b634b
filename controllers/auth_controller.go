package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/middleware"
	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/utils"
)

// AdminTokenTTL is the lifetime of an admin session token.
const AdminTokenTTL = 12 * time.Hour

// AuthController handles applicant e-mail verification and admin sessions.
type AuthController struct {
	verifier  Verifier
	admins    AdminManager
	tokens    *utils.TokenIssuer
	blacklist *utils.TokenBlacklist
	captcha   *utils.Captcha
}

// NewAuthController creates an AuthController. captcha may be nil when captchas are disabled.
func NewAuthController(verifier Verifier, admins AdminManager, tokens *utils.TokenIssuer, blacklist *utils.TokenBlacklist, captcha *utils.Captcha) *AuthController {
	return &AuthController{
		verifier:  verifier,
		admins:    admins,
		tokens:    tokens,
		blacklist: blacklist,
		captcha:   captcha,
	}
}

func setTokenCookie(ctx *gin.Context, token string, ttl time.Duration) {
	secure := ctx.Request.TLS != nil || ctx.GetHeader("X-Forwarded-Proto") == "https"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// Captcha issues a digit captcha guarding OTP requests.
func (a *AuthController) Captcha(ctx *gin.Context) {
	if a.captcha == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "captcha disabled")
		return
	}
	id, b64, err := a.captcha.Generate()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"captchaId": id, "image": b64})
}

// SendOTP mails a verification code to the applicant's institute address.
func (a *AuthController) SendOTP(ctx *gin.Context) {
	type request struct {
		Email         string `json:"email"`
		RollNo        string `json:"rollNo"`
		UserType      string `json:"userType" binding:"required"`
		CaptchaID     string `json:"captchaId"`
		CaptchaAnswer string `json:"captchaAnswer"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	email, err := a.verifier.SendOTP(ctx.Request.Context(), services.SendOTPInput{
		Email:         req.Email,
		RollNo:        req.RollNo,
		UserType:      req.UserType,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
	})
	if err != nil {
		respondError(ctx, err, 50002, "send otp")
		return
	}
	utils.Success(ctx, gin.H{
		"message": "OTP sent to " + email,
		"email":   email,
	})
}

// VerifyEmail exchanges a valid OTP for an applicant token.
func (a *AuthController) VerifyEmail(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		OTP      string `json:"otp" binding:"required"`
		UserType string `json:"userType" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	token, err := a.verifier.VerifyOTP(ctx.Request.Context(), req.Email, req.OTP, req.UserType)
	if err != nil {
		respondError(ctx, err, 50003, "verify otp")
		return
	}
	setTokenCookie(ctx, token, services.ApplicantTokenTTL)
	utils.Success(ctx, gin.H{
		"message":  "Email verified",
		"token":    token,
		"userType": req.UserType,
	})
}

// AdminLogin verifies admin credentials and issues an admin token.
func (a *AuthController) AdminLogin(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	identity, err := a.admins.VerifyCredential(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, err, 50004, "admin login")
		return
	}

	token, err := a.tokens.Generate(utils.Claims{
		Kind:     utils.TokenKindAdmin,
		AdminID:  identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
		Email:    identity.Email,
	}, AdminTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to generate token")
		return
	}
	setTokenCookie(ctx, token, AdminTokenTTL)
	utils.Success(ctx, gin.H{
		"token": token,
		"admin": gin.H{
			"id":       identity.ID,
			"username": identity.Username,
			"email":    identity.Email,
			"role":     identity.Role,
		},
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, ok := middleware.Claims(ctx)
	if token == "" || !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "authentication required")
		return
	}

	expiresAt := time.Now().Add(AdminTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt)
	setTokenCookie(ctx, "", -time.Second)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated admin.
func (a *AuthController) Me(ctx *gin.Context) {
	adminID, ok := middleware.AdminID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "authentication required")
		return
	}
	admin, err := a.admins.Get(ctx.Request.Context(), adminID)
	if err != nil {
		respondError(ctx, err, 50006, "get current admin")
		return
	}
	utils.Success(ctx, gin.H{"admin": admin})
}
