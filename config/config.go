package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds file and environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for OTP codes, cooldowns and token revocation
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// SMTP for OTP delivery
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Object storage
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	// Uploads
	MaxUploadSizeMB        int
	SignedURLTTLSeconds    int
	FileURLTTLSeconds      int
	StagedUploadTTLMinutes int
	UploadCleanerSpec      string
	// Applicant verification
	InstituteEmailDomain string
	OTPLength            int
	OTPTTLMinutes        int
	OTPCooldownSeconds   int
	OTPCaptchaEnabled    bool
	// First admin, created when the admins table is empty
	BootstrapAdminUsername string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: .env (if present) -> config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// .env only seeds the process environment; real environment variables win.
	_ = godotenv.Load()

	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Fatalf("invalid config/config.json: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	loaded = true
	return cfg
}

// Validate checks that required keys are present and numeric limits are sane.
func (c AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if strings.TrimSpace(c.S3Bucket) == "" {
		errs = append(errs, errors.New("S3_BUCKET_NAME must be set"))
	}
	if strings.TrimSpace(c.S3Region) == "" {
		errs = append(errs, errors.New("AWS_REGION must be set"))
	}
	if c.MaxUploadSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", c.MaxUploadSizeMB))
	}
	if c.SignedURLTTLSeconds <= 0 || c.FileURLTTLSeconds <= 0 {
		errs = append(errs, errors.New("signed URL TTLs must be positive"))
	}
	if c.InstituteEmailDomain == "" {
		errs = append(errs, errors.New("INSTITUTE_EMAIL_DOMAIN must be set"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes returns the per-file upload limit in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"]; ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.GinMode = getString(app, "GinMode")
		out.GinPath = getString(app, "GinPath")
	}

	if dbs, ok := raw["database"]; ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"]; ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if sm, ok := raw["smtp"]; ok {
		out.SMTPHost = getString(sm, "SMTPHost")
		out.SMTPPort = getInt(sm, "SMTPPort")
		out.SMTPUsername = getString(sm, "SMTPUsername")
		out.SMTPPassword = getString(sm, "SMTPPassword")
		out.SMTPFrom = getString(sm, "SMTPFrom")
		out.SMTPFromName = getString(sm, "SMTPFromName")
		out.SMTPTLS = getBool(sm, "SMTPTLS")
	}

	if lg, ok := raw["log"]; ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if st, ok := raw["storage"]; ok {
		out.S3Region = getString(st, "Region")
		out.S3Bucket = getString(st, "Bucket")
		out.S3AccessKeyID = getString(st, "AccessKeyID")
		out.S3SecretAccessKey = getString(st, "SecretAccessKey")
		out.S3Endpoint = getString(st, "Endpoint")
	}

	if up, ok := raw["upload"]; ok {
		out.MaxUploadSizeMB = getInt(up, "MaxFileSizeMB")
		out.SignedURLTTLSeconds = getInt(up, "SignedURLTTLSeconds")
		out.FileURLTTLSeconds = getInt(up, "FileURLTTLSeconds")
		out.StagedUploadTTLMinutes = getInt(up, "StagedTTLMinutes")
		out.UploadCleanerSpec = getString(up, "CleanerSpec")
	}

	if otp, ok := raw["otp"]; ok {
		out.InstituteEmailDomain = getString(otp, "InstituteEmailDomain")
		out.OTPLength = getInt(otp, "Length")
		out.OTPTTLMinutes = getInt(otp, "TTLMinutes")
		out.OTPCooldownSeconds = getInt(otp, "CooldownSeconds")
		out.OTPCaptchaEnabled = getBool(otp, "CaptchaEnabled")
	}

	if adm, ok := raw["admin"]; ok {
		out.BootstrapAdminUsername = getString(adm, "BootstrapUsername")
		out.BootstrapAdminEmail = getString(adm, "BootstrapEmail")
		out.BootstrapAdminPassword = getString(adm, "BootstrapPassword")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "idportal"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.MaxUploadSizeMB == 0 {
		c.MaxUploadSizeMB = 5
	}
	if c.SignedURLTTLSeconds == 0 {
		c.SignedURLTTLSeconds = 3600
	}
	if c.FileURLTTLSeconds == 0 {
		c.FileURLTTLSeconds = 300
	}
	if c.StagedUploadTTLMinutes == 0 {
		c.StagedUploadTTLMinutes = 60
	}
	if c.UploadCleanerSpec == "" {
		c.UploadCleanerSpec = "@every 5m"
	}
	if c.InstituteEmailDomain == "" {
		c.InstituteEmailDomain = "nitt.edu"
	}
	if c.OTPLength == 0 {
		c.OTPLength = 6
	}
	if c.OTPTTLMinutes == 0 {
		c.OTPTTLMinutes = 10
	}
	if c.OTPCooldownSeconds == 0 {
		c.OTPCooldownSeconds = 60
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("SMTP_HOST", ""); v != "" {
		c.SMTPHost = v
	}
	if v := getEnv("SMTP_PORT", ""); v != "" {
		c.SMTPPort = mustParseInt(v)
	}
	if v := getEnv("SMTP_USERNAME", ""); v != "" {
		c.SMTPUsername = v
	}
	if v := getEnv("SMTP_PASSWORD", ""); v != "" {
		c.SMTPPassword = v
	}
	if v := getEnv("SMTP_FROM", ""); v != "" {
		c.SMTPFrom = v
	}
	if v := getEnv("SMTP_FROM_NAME", ""); v != "" {
		c.SMTPFromName = v
	}
	if v := getEnv("SMTP_TLS", ""); v != "" {
		c.SMTPTLS = v == "true"
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("AWS_REGION", ""); v != "" {
		c.S3Region = v
	}
	if v := getEnv("AWS_ACCESS_KEY_ID", ""); v != "" {
		c.S3AccessKeyID = v
	}
	if v := getEnv("AWS_SECRET_ACCESS_KEY", ""); v != "" {
		c.S3SecretAccessKey = v
	}
	if v := getEnv("S3_BUCKET_NAME", ""); v != "" {
		c.S3Bucket = v
	}
	if v := getEnv("S3_ENDPOINT", ""); v != "" {
		c.S3Endpoint = v
	}
	if v := getEnv("MAX_FILE_SIZE_MB", ""); v != "" {
		c.MaxUploadSizeMB = mustParseInt(v)
	}
	if v := getEnv("SIGNED_URL_TTL_SECONDS", ""); v != "" {
		c.SignedURLTTLSeconds = mustParseInt(v)
	}
	if v := getEnv("FILE_URL_TTL_SECONDS", ""); v != "" {
		c.FileURLTTLSeconds = mustParseInt(v)
	}
	if v := getEnv("STAGED_UPLOAD_TTL_MINUTES", ""); v != "" {
		c.StagedUploadTTLMinutes = mustParseInt(v)
	}
	if v := getEnv("UPLOAD_CLEANER_SPEC", ""); v != "" {
		c.UploadCleanerSpec = v
	}
	if v := getEnv("INSTITUTE_EMAIL_DOMAIN", ""); v != "" {
		c.InstituteEmailDomain = strings.ToLower(strings.TrimPrefix(v, "@"))
	}
	if v := getEnv("OTP_LENGTH", ""); v != "" {
		c.OTPLength = mustParseInt(v)
	}
	if v := getEnv("OTP_TTL_MINUTES", ""); v != "" {
		c.OTPTTLMinutes = mustParseInt(v)
	}
	if v := getEnv("OTP_COOLDOWN_SECONDS", ""); v != "" {
		c.OTPCooldownSeconds = mustParseInt(v)
	}
	if v := getEnv("OTP_CAPTCHA_ENABLED", ""); v != "" {
		c.OTPCaptchaEnabled = v == "true"
	}
	if v := getEnv("BOOTSTRAP_ADMIN_USERNAME", ""); v != "" {
		c.BootstrapAdminUsername = v
	}
	if v := getEnv("BOOTSTRAP_ADMIN_EMAIL", ""); v != "" {
		c.BootstrapAdminEmail = v
	}
	if v := getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""); v != "" {
		c.BootstrapAdminPassword = v
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
