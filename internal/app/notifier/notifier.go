// Package notifier собирает воркер приветственных писем: очередь подписчиков RabbitMQ и SMTP.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/techblog/internal/config"
	"github.com/magabrotheeeer/techblog/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/lib/smtp"
	"github.com/magabrotheeeer/techblog/internal/services/mailer"
)

// ErrNotConfigured возвращается, если не задан брокер или SMTP-сервер.
var ErrNotConfigured = errors.New("amqp url and smtp host are required")

type App struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	mailer      *mailer.Service
	concurrency int
	logger      *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"
	if cfg.AMQP.URL == "" || cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.AMQP.URL, cfg.AMQP.Retries, cfg.AMQP.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.AMQP.Exchange, rabbitmq.GetBlogQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.Qos(cfg.SMTP.Concurrency, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:        conn,
		ch:          ch,
		mailer:      mailer.New(logger, transport, cfg.SMTP.SiteURL),
		concurrency: cfg.SMTP.Concurrency,
		logger:      logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	wait, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueSubscribers, a.concurrency, a.logger, a.mailer.SendWelcome)
	if err != nil {
		a.logger.Error("failed to start subscribers consumer", sl.Err(err))
		return err
	}
	a.logger.Info("notifier consuming", slog.String("queue", rabbitmq.QueueSubscribers))

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	wait()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
