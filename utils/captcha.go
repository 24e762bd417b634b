package utils

import (
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

// Captcha issues and verifies digit captchas guarding OTP sends.
type Captcha struct {
	store base64Captcha.Store
}

// NewCaptcha keeps answers in Redis when rc is set so captchas work behind a load balancer.
func NewCaptcha(rc *redis.Client) *Captcha {
	if rc == nil {
		return &Captcha{store: base64Captcha.DefaultMemStore}
	}
	return &Captcha{store: newRedisCaptchaStore(rc, 10*time.Minute)}
}

// Generate creates a captcha and returns (id, dataURI) for the frontend to display.
func (c *Captcha) Generate() (string, string, error) {
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	id, b64, _, err := base64Captcha.NewCaptcha(driver, c.store).Generate()
	return id, b64, err
}

// Verify checks the answer and consumes the captcha.
func (c *Captcha) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return c.store.Verify(id, answer, true)
}
