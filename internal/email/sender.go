package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/config"
)

// Message is one outbound email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers email messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type smtpSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
	// envelopeFrom is the bare addr-spec for MAIL FROM; from keeps the
	// display-name form for the header.
	envelopeFrom string
	logger       *zap.Logger
}

// NewSMTPSender creates a Sender that delivers over SMTP with PLAIN auth
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &smtpSender{
		host:         cfg.Host,
		port:         cfg.Port,
		user:         cfg.User,
		password:     cfg.Password,
		from:         cfg.From,
		envelopeFrom: envelopeAddress(cfg.From),
		logger:       logger,
	}
}

// envelopeAddress extracts the addr-spec from a possibly display-named
// address ("Job Board <a@b>" -> "a@b")
func envelopeAddress(from string) string {
	parsed, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	return parsed.Address
}

// Send delivers one message. The context bounds connection establishment
// and, through a connection deadline, the SMTP exchange itself.
func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n",
		s.from, msg.To, msg.Subject)

	s.logger.Info("sending email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)

	if err := s.deliver(ctx, msg.To, []byte(headers+msg.HTML)); err != nil {
		s.logger.Error("email send failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *smtpSender) deliver(ctx context.Context, to string, body []byte) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.host, s.port))
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}
	if s.user != "" {
		auth := smtp.PlainAuth("", s.user, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(s.envelopeFrom); err != nil {
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
