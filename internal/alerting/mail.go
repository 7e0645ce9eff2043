package alerting

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const smtpTimeout = 30 * time.Second

// Mailer delivers alert batches over SMTP with STARTTLS. It is stateless;
// every send dials fresh because the endpoint can change between ticks.
type Mailer struct{}

func NewMailer() *Mailer {
	return &Mailer{}
}

// SendBatch delivers one subject plus alert lines. (false, nil) means the
// sink is disabled or the batch was empty and no transport was contacted.
func (m *Mailer) SendBatch(ctx context.Context, cfg MailSettings, subject string, lines []string) (bool, error) {
	if !cfg.Enabled || len(lines) == 0 {
		return false, nil
	}
	if err := m.Send(ctx, cfg, subject, lines); err != nil {
		return false, err
	}
	return true, nil
}

// Send bypasses the enable flag; the admin test endpoint calls it directly.
func (m *Mailer) Send(ctx context.Context, cfg MailSettings, subject string, lines []string) error {
	if cfg.Server == "" {
		return configError("missing SMTP server")
	}
	if len(cfg.Recipients) == 0 {
		return configError("missing recipients")
	}

	msg, err := buildMessage(cfg.User, cfg.Recipients, subject, MailHTML(lines))
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(smtpTimeout))

	c, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.StartTLS(&tls.Config{ServerName: cfg.Server}); err != nil {
		return err
	}
	if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Server)); err != nil {
		return err
	}
	if err := c.Mail(cfg.User); err != nil {
		return err
	}
	for _, rcpt := range cfg.Recipients {
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

func buildMessage(from string, to []string, subject, htmlBody string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
