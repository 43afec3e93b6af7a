// Package mailer отправляет подписчикам приветственное письмо по событию subscriber.created.
package mailer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/lib/smtp"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
)

const welcomeSubject = "Добро пожаловать в рассылку Techblog"

type Service struct {
	transport smtp.TransportInterface
	siteURL   string
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, transport smtp.TransportInterface, siteURL string) *Service {
	return &Service{
		transport: transport,
		siteURL:   strings.TrimRight(siteURL, "/"),
		log:       log,
	}
}

// SendWelcome разбирает blog.SubscriberEvent и отправляет приветствие.
// Сообщение без email считается обработанным, чтобы не зациклить очередь.
func (s *Service) SendWelcome(body []byte) error {
	const op = "services.mailer.SendWelcome"
	var event blog.SubscriberEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if event.Email == "" {
		s.log.Warn("subscriber event without email, skipping", slog.Int64("id", event.ID))
		return nil
	}

	text := fmt.Sprintf("Здравствуйте!\r\n\r\n"+
		"Вы подписались на рассылку Techblog адресом %s.\r\n"+
		"Новые статьи всегда доступны на %s.\r\n",
		event.Email, s.siteURL)

	if err := s.sendEmail([]string{event.Email}, welcomeSubject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.Sender()
	envelopeFrom := from
	if addr, err := mail.ParseAddress(from); err == nil {
		envelopeFrom = addr.Address
	}

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(envelopeFrom); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", envelopeFrom), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("welcome email sent", slog.Int("recipients", len(to)))
	return nil
}
