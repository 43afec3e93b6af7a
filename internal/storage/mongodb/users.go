package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.mongodb.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

// GetUserByUsername ищет пользователя без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.mongodb.GetUserByUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"username": username},
		options.FindOne().SetCollation(caseInsensitive)).Decode(&u)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

// CreateUser создаёт пользователя. Занятое имя даёт storage.ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	const op = "storage.mongodb.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	id, err := s.nextID(ctx, collUsers)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	u := nu.Build(id)
	if _, err = s.users.InsertOne(ctx, u); err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

// UpdateUser меняет отображаемое имя, аватар или пароль.
func (s *Storage) UpdateUser(ctx context.Context, id int64, update models.UserUpdate) (*models.User, error) {
	const op = "storage.mongodb.UpdateUser"

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	update.Apply(u)

	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": id}, u)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return u, nil
}
