package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"eventhub/internal/dto"
)

type Mailer struct {
	host     string
	port     int
	username string
	password string
	sender   string
	log      *zerolog.Logger
}

func New(host string, port int, username, password, sender string, log *zerolog.Logger) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		sender:   sender,
		log:      log,
	}
}

// SendNotification formats and delivers one queued notification.
func (m *Mailer) SendNotification(msg *dto.NotificationMessage) error {
	if len(msg.Emails) == 0 {
		return nil
	}

	var subject, body string
	switch msg.Kind {
	case dto.NotifyActivation:
		subject = "Activate your Event Hub account"
		body = fmt.Sprintf("Welcome to Event Hub!\n\nUse the token below to activate your account:\n\n%s\n\nThe token expires at %s.",
			msg.Token, msg.ExpiresAt.Format("Jan 2, 2006 15:04 MST"))
	case dto.NotifyApplicationCreated:
		subject = fmt.Sprintf("You are registered for %s", msg.EventName)
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" on %s is confirmed. See you there!",
			msg.EventName, msg.EventDate.Format("Jan 2, 2006 15:04"))
	case dto.NotifyApplicationRemoved:
		subject = fmt.Sprintf("Registration for %s removed", msg.EventName)
		body = fmt.Sprintf("Hello!\n\nYour registration for \"%s\" has been removed.", msg.EventName)
	case dto.NotifyEventCancelled:
		subject = fmt.Sprintf("%s has been cancelled", msg.EventName)
		body = fmt.Sprintf("Hello!\n\nWe are sorry: \"%s\" has been cancelled and your registration no longer applies.",
			msg.EventName)
	case dto.NotifyEventAnnouncement:
		subject = fmt.Sprintf("New %s event: %s", strings.ToLower(msg.Category), msg.EventName)
		body = fmt.Sprintf("Hello!\n\nA new event you may like was just published: \"%s\" on %s.",
			msg.EventName, msg.EventDate.Format("Jan 2, 2006 15:04"))
	case dto.NotifySubscribed:
		subject = "Subscription confirmed"
		body = fmt.Sprintf("Hello!\n\nYou are now subscribed to the %q mailing list.", msg.Category)
	default:
		return fmt.Errorf("unknown notification kind %q", msg.Kind)
	}

	return m.Send(msg.Emails, subject, body)
}

func (m *Mailer) Send(to []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.sender, strings.Join(to, ", "), subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.sender, to, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", strings.Join(to, ", "), err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("email sent to %s (subject: %s)", strings.Join(to, ", "), subject)
	return nil
}
