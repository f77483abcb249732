package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/basit/forumfiles-backend/internal/config"
)

// SMTPProvider sends mail over SMTP, with optional implicit TLS.
type SMTPProvider struct {
	host     string
	port     int
	auth     smtp.Auth
	from     string
	fromName string
	useTLS   bool
}

func NewSMTPProvider(cfg *config.Config) *SMTPProvider {
	var auth smtp.Auth
	if cfg.Email.Username != "" && cfg.Email.Password != "" {
		auth = smtp.PlainAuth("", cfg.Email.Username, cfg.Email.Password, cfg.Email.SMTPHost)
	}

	return &SMTPProvider{
		host:     cfg.Email.SMTPHost,
		port:     cfg.Email.SMTPPort,
		auth:     auth,
		from:     cfg.Email.FromEmail,
		fromName: cfg.Email.FromName,
		useTLS:   cfg.Email.UseTLS,
	}
}

func (p *SMTPProvider) Send(msg *Message) error {
	if p.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	body := p.buildMessage(msg)
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	if p.useTLS {
		return p.sendTLS(addr, msg.To, body)
	}
	return smtp.SendMail(addr, p.auth, p.from, []string{msg.To}, body)
}

func (p *SMTPProvider) sendTLS(addr, to string, body []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: p.host})
	if err != nil {
		return fmt.Errorf("failed to dial smtp server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if p.auth != nil {
		if err := client.Auth(p.auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}
	if err := client.Mail(p.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (p *SMTPProvider) buildMessage(msg *Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", p.fromName, p.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
