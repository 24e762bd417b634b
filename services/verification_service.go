package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/metrics"
	"github.com/cppla/idportal/models"
	"github.com/cppla/idportal/utils"
)

// ApplicantTokenTTL is the lifetime of the token issued after e-mail verification.
const ApplicantTokenTTL = 24 * time.Hour

var rollNoPattern = regexp.MustCompile(`^[A-Za-z0-9]{3,32}$`)

// CodeStore keeps one-time codes and per-address send cooldowns.
type CodeStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration)
	VerifyAndConsume(ctx context.Context, email, code string) bool
	CooldownTrySet(ctx context.Context, email string, cooldown time.Duration) bool
}

// Mailer delivers a plain text message.
type Mailer interface {
	Send(to, subject, body string) error
}

// CaptchaVerifier checks and consumes a captcha answer.
type CaptchaVerifier interface {
	Verify(id, answer string) bool
}

// SendOTPInput identifies the applicant requesting a code. Students may give
// their roll number instead of an address.
type SendOTPInput struct {
	Email         string
	RollNo        string
	UserType      string
	CaptchaID     string
	CaptchaAnswer string
}

// VerificationService proves an applicant owns an institute e-mail address.
type VerificationService struct {
	codes   CodeStore
	mailer  Mailer
	tokens  *utils.TokenIssuer
	captcha CaptchaVerifier

	domain         string
	codeLength     int
	codeTTL        time.Duration
	cooldown       time.Duration
	captchaEnabled bool
}

// NewVerificationService builds the service. captcha may be nil when captchas are disabled.
func NewVerificationService(codes CodeStore, mailer Mailer, tokens *utils.TokenIssuer, captcha CaptchaVerifier, cfg config.AppConfig) *VerificationService {
	return &VerificationService{
		codes:          codes,
		mailer:         mailer,
		tokens:         tokens,
		captcha:        captcha,
		domain:         strings.ToLower(cfg.InstituteEmailDomain),
		codeLength:     cfg.OTPLength,
		codeTTL:        time.Duration(cfg.OTPTTLMinutes) * time.Minute,
		cooldown:       time.Duration(cfg.OTPCooldownSeconds) * time.Second,
		captchaEnabled: cfg.OTPCaptchaEnabled && captcha != nil,
	}
}

// resolveEmail returns the institute address a code should be sent to.
func (s *VerificationService) resolveEmail(in SendOTPInput) (string, error) {
	userType := strings.ToLower(strings.TrimSpace(in.UserType))
	if !models.ValidUserType(userType) {
		return "", fmt.Errorf("%w: invalid userType", ErrInvalidArgument)
	}
	if userType == models.UserTypeStudent {
		if rollNo := strings.TrimSpace(in.RollNo); rollNo != "" {
			if !rollNoPattern.MatchString(rollNo) {
				return "", fmt.Errorf("%w: invalid roll number", ErrInvalidArgument)
			}
			return strings.ToLower(rollNo) + "@" + s.domain, nil
		}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if !validEmail(email) || !strings.HasSuffix(email, "@"+s.domain) {
		return "", fmt.Errorf("%w: please use your @%s email", ErrInvalidArgument, s.domain)
	}
	return email, nil
}

// SendOTP mails a fresh code and returns the address it was sent to. The code is
// stored only after the mail server accepted the message.
func (s *VerificationService) SendOTP(ctx context.Context, in SendOTPInput) (string, error) {
	if s.captchaEnabled && !s.captcha.Verify(in.CaptchaID, in.CaptchaAnswer) {
		metrics.RecordOTP("captcha_failed")
		return "", fmt.Errorf("%w: invalid captcha", ErrInvalidArgument)
	}
	email, err := s.resolveEmail(in)
	if err != nil {
		return "", err
	}
	if !s.codes.CooldownTrySet(ctx, email, s.cooldown) {
		metrics.RecordOTP("cooldown")
		return "", fmt.Errorf("%w: please wait before requesting another code", ErrTooManyRequests)
	}

	code := utils.GenerateVerificationCode(s.codeLength)
	body := fmt.Sprintf("Your ID card portal verification code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes()))
	if err := s.mailer.Send(email, "ID card portal verification code", body); err != nil {
		metrics.RecordOTP("mail_failed")
		return "", fmt.Errorf("send otp to %s: %w", email, err)
	}
	s.codes.Save(ctx, email, code, s.codeTTL)
	metrics.RecordOTP("sent")
	return email, nil
}

// VerifyOTP consumes the code for email and issues an applicant token carrying the address.
func (s *VerificationService) VerifyOTP(ctx context.Context, email, code, userType string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	userType = strings.ToLower(strings.TrimSpace(userType))
	if !models.ValidUserType(userType) {
		return "", fmt.Errorf("%w: invalid userType", ErrInvalidArgument)
	}
	if email == "" || strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: email and otp are required", ErrInvalidArgument)
	}
	if !s.codes.VerifyAndConsume(ctx, email, strings.TrimSpace(code)) {
		return "", fmt.Errorf("%w: invalid or expired OTP", ErrInvalidArgument)
	}
	token, err := s.tokens.Generate(utils.Claims{
		Kind:     utils.TokenKindApplicant,
		Email:    email,
		UserType: userType,
	}, ApplicantTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue applicant token: %w", err)
	}
	return token, nil
}
