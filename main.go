package main

import (
	"context"
	"time"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/repositories"
	"github.com/cppla/idportal/routes"
	"github.com/cppla/idportal/services"
	"github.com/cppla/idportal/storage"
	"github.com/cppla/idportal/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.InitDatabase(cfg, &models.Application{}, &models.Admin{}, &models.StagedUpload{})
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.NewS3Store(bootCtx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("object storage init failed: %v", err)
	}

	rc := utils.NewRedisClient(cfg)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret)
	blacklist := utils.NewTokenBlacklist(rc)

	applicationRepo := repositories.NewApplicationRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	stagedRepo := repositories.NewStagedUploadRepository(db)

	var captcha *utils.Captcha
	var captchaVerifier services.CaptchaVerifier
	if cfg.OTPCaptchaEnabled {
		captcha = utils.NewCaptcha(rc)
		captchaVerifier = captcha
	}

	applicationService := services.NewApplicationService(applicationRepo, store, cfg)
	adminService := services.NewAdminService(adminRepo)
	submissionService := services.NewSubmissionService(applicationRepo, stagedRepo, store, cfg)
	verificationService := services.NewVerificationService(utils.NewCodeStore(rc), utils.NewSMTPMailer(cfg), tokens, captchaVerifier, cfg)

	if err := adminService.EnsureBootstrap(bootCtx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		utils.Sugar.Fatalf("bootstrap admin failed: %v", err)
	}

	cleaner, err := utils.StartUploadCleaner(cfg.UploadCleanerSpec, stagedRepo, store)
	if err != nil {
		utils.Sugar.Fatalf("upload cleaner failed to start: %v", err)
	}

	r := routes.SetupRouter(cfg, routes.Dependencies{
		Applications: applicationService,
		Admins:       adminService,
		Submissions:  submissionService,
		Verifier:     verificationService,
		Tokens:       tokens,
		Blacklist:    blacklist,
		Captcha:      captcha,
	})

	stop := func() {
		<-cleaner.Stop().Done()
		_ = rc.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, stop); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
