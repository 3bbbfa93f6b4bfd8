package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/alokah-labs/superapp-backend/internal/config"
	"github.com/alokah-labs/superapp-backend/internal/service"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    {{if .LogoCID}}<img src="cid:{{.LogoCID}}" alt="Alokah" height="48" />{{end}}
    <h2>Your verification code</h2>
    {{if .Username}}<p>Hi {{.Username}},</p>{{end}}
    <p>Use this code to continue signing in to Alokah:</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>The code expires at {{.ExpiresAt.Format "15:04 MST"}}. If you did not
    request it, you can ignore this email.</p>
  </body>
</html>`))

// SMTPOTPNotifier delivers one time codes over SMTP.
type SMTPOTPNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	logoPath string
}

func NewSMTPOTPNotifier(cfg *config.Config) (*SMTPOTPNotifier, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPOTPNotifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		logoPath: cfg.SMTPLogoPath,
	}, nil
}

func (n *SMTPOTPNotifier) SendOTP(ctx context.Context, notification service.OTPNotification) error {
	msg := mail.NewMsg()
	if n.fromName != "" {
		if err := msg.FromFormat(n.fromName, n.from); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(n.from); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}
	if err := msg.To(notification.Destination); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject("Your Alokah verification code")

	logoCID := ""
	if n.logoPath != "" {
		logoCID = "alokah-logo"
		msg.EmbedFile(n.logoPath, mail.WithFileContentID(logoCID))
	}

	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, map[string]any{
		"Code":      notification.Code,
		"Username":  notification.Username,
		"ExpiresAt": notification.ExpiresAt,
		"LogoCID":   logoCID,
	}); err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	opts := []mail.Option{
		mail.WithPort(n.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	// Port 465 speaks implicit TLS; everything else negotiates STARTTLS.
	if n.port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	if n.username != "" && n.password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.username),
			mail.WithPassword(n.password),
		)
	}

	client, err := mail.NewClient(n.host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
