package email

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Provider sends mail. Delivery is best-effort; callers must not treat a send
// failure as fatal to the request that triggered it.
type Provider interface {
	Send(msg *Message) error
}

// LogProvider stands in when SMTP is not configured. The subject and
// recipient are logged; the body (which may carry a login code) is not.
type LogProvider struct {
	Log func(msg string, args ...any)
}

func (p *LogProvider) Send(msg *Message) error {
	p.Log("email delivery skipped, smtp not configured", "to", msg.To, "subject", msg.Subject)
	return nil
}
