package alert

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/errors"
)

// Notifier delivers an alert somewhere.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a Alert) error
}

// =============================================================================
// Log
// =============================================================================

// LogNotifier writes alerts to a logger at error level.
type LogNotifier struct {
	Logger *log.Logger
}

func (LogNotifier) Name() string { return "log" }

func (n LogNotifier) Notify(_ context.Context, a Alert) error {
	l := n.Logger
	if l == nil {
		l = log.Default()
	}
	l.Error(a.Subject(),
		"id", a.Node.ID,
		"cloud", a.CloudName,
		"ip", a.Node.IPAddress,
		"location", a.Node.Location,
		"switches", len(a.Node.ConnectedSwitches),
	)
	return nil
}

// =============================================================================
// SMTP
// =============================================================================

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port" validate:"omitempty,min=1,max=65535"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
	From     string   `koanf:"from" validate:"omitempty,email"`
	To       []string `koanf:"to" validate:"omitempty,dive,email"`
}

// IsConfigured reports whether enough is set to send mail.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.Port > 0 && c.From != "" && len(c.To) > 0
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails alerts through an SMTP relay. The relay is expected to
// offer STARTTLS; credentials are only sent over TLS or to localhost.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTPNotifier validates cfg and returns a notifier for it.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if !cfg.IsConfigured() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "smtp alerts need host, port, from and at least one recipient")
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}, nil
}

func (*SMTPNotifier) Name() string { return "smtp" }

// Notify sends a. The context only guards the start of delivery; the SMTP
// exchange itself is bounded by the relay's own timeouts.
func (n *SMTPNotifier) Notify(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := n.send(n.cfg.Addr(), auth, n.cfg.From, n.cfg.To, n.message(a)); err != nil {
		return fmt.Errorf("send mail via %s: %w", n.cfg.Addr(), err)
	}
	return nil
}

func (n *SMTPNotifier) message(a Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(a.Subject()))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(a.Body(), "\n", "\r\n"))
	return []byte(b.String())
}

// sanitizeHeader strips line breaks so node names cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
