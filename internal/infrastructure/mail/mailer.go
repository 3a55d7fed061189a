// Package mail implements the outbound notification transport over SMTP.
// The core never talks to this package directly; it only sees the
// ports.Notifier capability check and send call.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/onekingdom/assessment-system/internal/core/ports"
)

// exchangeTimeout bounds the whole SMTP conversation. net/smtp has no
// context support, so the connection deadline is what stops an abandoned
// send from hanging forever.
const exchangeTimeout = 15 * time.Second

// Config carries the SMTP transport settings.
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends coach notification emails through a plain SMTP relay.
type Mailer struct {
	cfg     Config
	logger  zerolog.Logger
	timeout time.Duration

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg Config, logger zerolog.Logger) *Mailer {
	m := &Mailer{cfg: cfg, logger: logger, timeout: exchangeTimeout}
	m.send = m.sendMail
	return m
}

// Configured reports whether the transport can be used at all. The
// notification gate consults this before accepting a notification.
func (m *Mailer) Configured() bool {
	return m.cfg.Enabled && m.cfg.Host != "" && m.cfg.From != ""
}

// Send delivers the notification email. The ctx deadline bounds the SMTP
// exchange: delivery runs in a goroutine and is abandoned on expiry.
func (m *Mailer) Send(ctx context.Context, n ports.Notification) error {
	if !m.Configured() {
		return fmt.Errorf("smtp transport not configured")
	}

	msg := m.compose(n)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, []string{n.RecipientEmail}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		m.logger.Info().Str("assessment_id", n.AssessmentID).Msg("notification email sent")
		return nil
	case <-ctx.Done():
		// The goroutine finishes on its own: the connection deadline inside
		// sendMail caps how long it can linger.
		return ctx.Err()
	}
}

// sendMail is smtp.SendMail with a dial timeout and a hard deadline on the
// connection, so the exchange can never outlive exchangeTimeout.
func (m *Mailer) sendMail(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, m.timeout)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(m.timeout)); err != nil {
		conn.Close()
		return err
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		conn.Close()
		return err
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *Mailer) compose(n ports.Notification) []byte {
	subject := fmt.Sprintf("Assessment %q is ready for your review", n.AssessmentName)
	body := fmt.Sprintf(
		"<html><body><p>Hello %s,</p>"+
			"<p>%s has asked you to review the assessment <strong>%s</strong>.</p>"+
			"<p>Log in to the dashboard to take a look.</p></body></html>",
		n.RecipientName, n.RequestedBy, n.AssessmentName,
	)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", n.RecipientEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
