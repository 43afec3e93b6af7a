package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

// Subscribe добавляет email в рассылку. Повторная подписка даёт ErrAlreadySubscribed,
// в том числе когда параллельный запрос успел раньше.
func (s *Service) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "services.blog.Subscribe"
	email = strings.TrimSpace(email)

	sub, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*models.Subscriber, error) {
		_, err := st.GetSubscriberByEmail(ctx, email)
		if err == nil {
			return nil, ErrAlreadySubscribed
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return st.CreateSubscriber(ctx, models.NewSubscriber{Email: email})
	})
	if errors.Is(err, storage.ErrConflict) {
		err = ErrAlreadySubscribed
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("new subscriber", slog.Int64("id", sub.ID))
	s.publish(ctx, sub)
	return sub, nil
}

func (s *Service) publish(ctx context.Context, sub *models.Subscriber) {
	if s.events == nil {
		return
	}
	event := SubscriberEvent{ID: sub.ID, Email: sub.Email, CreatedAt: sub.CreatedAt}
	if err := s.events.Publish(ctx, s.routingKey, event); err != nil {
		s.log.Warn("failed to publish subscriber event", slog.Int64("id", sub.ID), sl.Err(err))
	}
}

// Subscribers возвращает всех подписчиков.
func (s *Service) Subscribers(ctx context.Context) ([]models.Subscriber, error) {
	const op = "services.blog.Subscribers"
	subs, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) ([]models.Subscriber, error) {
		return st.GetAllSubscribers(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Dashboard — сводка для панели администратора.
type Dashboard struct {
	TotalPosts     int          `json:"totalPosts"`
	PublishedPosts int          `json:"publishedPosts"`
	DraftPosts     int          `json:"draftPosts"`
	Subscribers    int          `json:"subscribers"`
	Backend        storage.Kind `json:"backend"`
}

// Dashboard считает посты по статусам и подписчиков.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "services.blog.Dashboard"
	d, err := supervisor.Data(ctx, s.backend, s.timeout, func(ctx context.Context, st storage.Storage) (*Dashboard, error) {
		published, err := st.GetPostCount(ctx, storage.CountOptions{Status: models.StatusPublished})
		if err != nil {
			return nil, err
		}
		drafts, err := st.GetPostCount(ctx, storage.CountOptions{Status: models.StatusDraft})
		if err != nil {
			return nil, err
		}
		subs, err := st.GetAllSubscribers(ctx)
		if err != nil {
			return nil, err
		}
		return &Dashboard{
			TotalPosts:     published + drafts,
			PublishedPosts: published,
			DraftPosts:     drafts,
			Subscribers:    len(subs),
			Backend:        st.Kind(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}
