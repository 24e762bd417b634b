package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/controllers"
	"github.com/cppla/idportal/metrics"
	"github.com/cppla/idportal/middleware"
	"github.com/cppla/idportal/utils"
)

// Dependencies are the services and helpers the HTTP surface is built from.
type Dependencies struct {
	Applications controllers.ApplicationManager
	Admins       controllers.AdminManager
	Submissions  controllers.Submitter
	Verifier     controllers.Verifier
	Tokens       *utils.TokenIssuer
	Blacklist    *utils.TokenBlacklist
	// Captcha is nil when OTP captchas are disabled.
	Captcha *utils.Captcha
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Dependencies) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file, not the application log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(utils.RecoveryWithZap(utils.Logger, true))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDKey},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDKey},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// Browsers refuse credentials with a wildcard origin.
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestMetrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.NewAuthenticator(deps.Tokens, deps.Blacklist, deps.Admins)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	authController := controllers.NewAuthController(deps.Verifier, deps.Admins, deps.Tokens, deps.Blacklist, deps.Captcha)
	applicationController := controllers.NewApplicationController(deps.Applications)
	statsController := controllers.NewStatsController(deps.Applications)
	adminController := controllers.NewAdminController(deps.Admins)
	submissionController := controllers.NewSubmissionController(deps.Submissions, cfg.MaxUploadBytes())
	configController := controllers.NewConfigController(cfg)

	api := r.Group("/api")
	api.GET("/config", configController.GetPortalConfig)

	authGroup := api.Group("/auth")
	authGroup.GET("/captcha", limiter.Middleware(), authController.Captcha)
	authGroup.POST("/send-otp", limiter.Middleware(), authController.SendOTP)
	authGroup.POST("/verify-email", limiter.Middleware(), authController.VerifyEmail)
	authGroup.POST("/admin-login", limiter.Middleware(), authController.AdminLogin)
	authGroup.POST("/logout", auth.AnyTokenRequired(), authController.Logout)
	authGroup.GET("/me", auth.AdminRequired(), authController.Me)

	applicant := api.Group("/applications")
	applicant.Use(auth.ApplicantRequired())
	applicant.POST("/submit", limiter.Middleware(), submissionController.Submit)
	applicant.GET("/status/:id", submissionController.Status)

	admin := api.Group("/admin")
	admin.Use(auth.AdminRequired())
	admin.GET("/applications", applicationController.ListApplications)
	admin.GET("/applications/:id", applicationController.GetApplication)
	admin.PATCH("/applications/:id/status", applicationController.UpdateStatus)
	admin.DELETE("/applications/:id", applicationController.DeleteApplication)
	admin.GET("/dashboard/stats", statsController.DashboardStats)
	admin.GET("/file-url", applicationController.FileURL)
	admin.POST("/admins", adminController.CreateAdmin)
	admin.GET("/admins", adminController.ListAdmins)
	admin.DELETE("/admins/:id", adminController.DeleteAdmin)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
