package utils

import (
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cppla/idportal/config"
)

// ErrMailNotConfigured is returned when SMTP host or sender is missing.
var ErrMailNotConfigured = errors.New("smtp not configured")

// SMTPMailer sends plain text mail using the SMTP settings from config.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	startTLS bool
}

// NewSMTPMailer builds a mailer from cfg.
func NewSMTPMailer(cfg config.AppConfig) *SMTPMailer {
	fromName := cfg.SMTPFromName
	if fromName == "" {
		fromName = "ID Card Portal"
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: fromName,
		startTLS: cfg.SMTPTLS,
	}
}

func (m *SMTPMailer) message(to, subject, body string) []byte {
	headers := []string{
		"From: " + fmt.Sprintf("%s <%s>", mime.BEncoding.Encode("UTF-8", m.fromName), m.from),
		"To: " + to,
		"Subject: " + mime.BEncoding.Encode("UTF-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

// Send delivers a single message to one recipient.
func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.host == "" || m.from == "" {
		return ErrMailNotConfigured
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	msg := m.message(to, subject, body)

	if !m.startTLS {
		return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
	}

	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	// ensure we don't hang forever
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))
	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}
