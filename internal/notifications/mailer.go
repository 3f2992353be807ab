package notifications

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Message is one rendered HTML email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer when a relay is configured and a
// log-only mailer otherwise.
func NewMailer(cfg config.MailConfig, logg *logger.Logger) Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg)
	}
	return &LogMailer{logg: logg}
}

const defaultSendTimeout = 10 * time.Second

type deliverFunc func(ctx context.Context, client *mail.Client, msg *mail.Msg) error

func dialAndSend(ctx context.Context, client *mail.Client, msg *mail.Msg) error {
	return client.DialAndSendWithContext(ctx, msg)
}

// SMTPMailer sends mail through an SMTP relay, upgrading to TLS when the
// relay offers it. Every send is bounded by the caller's context and the
// configured send timeout.
type SMTPMailer struct {
	cfg     config.MailConfig
	timeout time.Duration
	dialer  net.Dialer
	deliver deliverFunc
	now     func() time.Time
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &SMTPMailer{cfg: cfg, timeout: timeout, deliver: dialAndSend, now: time.Now}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient address required")
	}
	mailMsg, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := m.newClient(ctx)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := m.deliver(ctx, client, mailMsg); err != nil {
		if ctxErr := contextErr(ctx); ctxErr != nil {
			return fmt.Errorf("smtp send: %w: %w", ctxErr, err)
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// contextErr also reports a passed deadline whose timer has not fired yet,
// since the socket deadline can trip first.
func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

func (m *SMTPMailer) newClient(ctx context.Context) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithTimeout(m.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithDialContextFunc(m.dialFor(ctx)),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return mail.NewClient(strings.TrimSpace(m.cfg.SMTPHost), opts...)
}

// dialFor ties the connection to ctx: its deadline becomes the socket
// deadline and cancelling ctx unblocks any pending read or write.
func (m *SMTPMailer) dialFor(ctx context.Context) mail.DialContextFunc {
	return func(dialCtx context.Context, network, address string) (net.Conn, error) {
		conn, err := m.dialer.DialContext(dialCtx, network, address)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		context.AfterFunc(ctx, func() {
			_ = conn.SetDeadline(time.Now())
		})
		return conn, nil
	}
}

func (m *SMTPMailer) buildMessage(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.FromAddress, err)
	}
	to := strings.TrimSpace(msg.To)
	if err := out.AddToFormat(msg.ToName, to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	if support := strings.TrimSpace(m.cfg.SupportEmail); support != "" {
		if err := out.ReplyTo(support); err != nil {
			return nil, fmt.Errorf("invalid reply-to %q: %w", support, err)
		}
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(m.now().UTC())
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return out, nil
}

// LogMailer records messages in the log instead of sending them.
type LogMailer struct {
	logg *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if m.logg == nil {
		return nil
	}
	logCtx := m.logg.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	m.logg.Info(logCtx, "smtp not configured, email logged only")
	return nil
}
