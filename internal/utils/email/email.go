package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/config"
	"github.com/muniwatch/debt-service/internal/models"
)

// Sender handles sending alert emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendFallbackAlert notifies the operator that every live rate source failed
// and the ledger was updated with the static fallback rate.
func (s *Sender) SendFallbackAlert(obs models.Observation, date string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AlertEmail}
	e.Subject = "Bond Yield Fallback In Use"

	body := fmt.Sprintf(
		"All live bond yield sources failed on %s.\n"+
			"The ledger entry for that day was computed from the static fallback rate of %.3f%%.\n"+
			"Check the rate source endpoints before the next scheduled run.\n",
		date, obs.Value,
	)
	body += "\nBest regards,\nDebt Service Monitor"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send alert to %s: %v", s.cfg.AlertEmail, err)
		return fmt.Errorf("failed to send alert: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.AlertEmail, e.Subject)
	return nil
}
