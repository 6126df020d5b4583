// AngelaMos | 2026
// mailer.go

package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/Dramos02/employee-directory/internal/config"
)

// Mailer sends account lifecycle mail over SMTP. When disabled in
// config it logs the would-be delivery instead, which is what local
// development runs on.
type Mailer struct {
	client  *mail.Client
	from    string
	baseURL string
	enabled bool
	logger  *slog.Logger
}

func New(
	cfg config.MailConfig,
	baseURL string,
	logger *slog.Logger,
) (*Mailer, error) {
	m := &Mailer{
		from:    cfg.From,
		baseURL: baseURL,
		enabled: cfg.Enabled,
		logger:  logger,
	}

	if !cfg.Enabled {
		return m, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	m.client = client
	return m, nil
}

func (m *Mailer) SendVerificationMail(
	ctx context.Context,
	to, name, token string,
) error {
	link := fmt.Sprintf("%s/v1/auth/verify-email?token=%s", m.baseURL, token)

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Welcome to the employee directory. Confirm your email address "+
			"by opening the link below:\n\n%s\n\n"+
			"If you did not create this account, ignore this message.\n",
		name, link,
	)

	return m.send(ctx, to, "Verify your email address", body)
}

func (m *Mailer) SendPasswordResetMail(
	ctx context.Context,
	to, name, token string,
) error {
	link := fmt.Sprintf("%s/v1/auth/reset-password?token=%s", m.baseURL, token)

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"A password reset was requested for your account. Open the link "+
			"below to choose a new password:\n\n%s\n\n"+
			"The link expires shortly. If you did not request this, your "+
			"password is unchanged and you can ignore this message.\n",
		name, link,
	)

	return m.send(ctx, to, "Reset your password", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if !m.enabled {
		m.logger.Info("mail delivery disabled, skipping send",
			"to", to,
			"subject", subject,
		)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
