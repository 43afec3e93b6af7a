package mongodb

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/techblog/internal/models"
)

// GetSubscriber возвращает подписчика по id.
func (s *Storage) GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error) {
	const op = "storage.mongodb.GetSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var sub models.Subscriber
	if err := s.subscribers.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return nil, wrapErr(op, err)
	}
	return &sub, nil
}

// GetSubscriberByEmail ищет подписчика без учёта регистра.
func (s *Storage) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.mongodb.GetSubscriberByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var sub models.Subscriber
	err := s.subscribers.FindOne(ctx, bson.M{"email": strings.TrimSpace(email)},
		options.FindOne().SetCollation(caseInsensitive)).Decode(&sub)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &sub, nil
}

// CreateSubscriber добавляет подписчика. Повторный email даёт storage.ErrConflict.
func (s *Storage) CreateSubscriber(ctx context.Context, ns models.NewSubscriber) (*models.Subscriber, error) {
	const op = "storage.mongodb.CreateSubscriber"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	id, err := s.nextID(ctx, collSubscribers)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	sub := models.Subscriber{ID: id, Email: strings.TrimSpace(ns.Email), CreatedAt: s.timestamp()}
	if _, err = s.subscribers.InsertOne(ctx, sub); err != nil {
		return nil, wrapErr(op, err)
	}
	return &sub, nil
}

// GetAllSubscribers возвращает подписчиков в порядке регистрации.
func (s *Storage) GetAllSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	const op = "storage.mongodb.GetAllSubscribers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	cur, err := s.subscribers.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	subs := make([]models.Subscriber, 0)
	if err = cur.All(ctx, &subs); err != nil {
		return nil, wrapErr(op, err)
	}
	return subs, nil
}
