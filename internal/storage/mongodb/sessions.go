package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magabrotheeeer/techblog/internal/models"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// SessionStore хранит сессии в коллекции с TTL-индексом по expiresAt.
type SessionStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ storage.SessionStore = (*SessionStore)(nil)

// Get возвращает действующую сессию. TTL-монитор MongoDB запускается раз в минуту,
// поэтому срок проверяется и в запросе.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.mongodb.SessionStore.Get"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var sess models.Session
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "expiresAt": bson.M{"$gt": s.now().UTC()}}).Decode(&sess)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &sess, nil
}

// Set создаёт или продлевает сессию.
func (s *SessionStore) Set(ctx context.Context, sess models.Session) error {
	const op = "storage.mongodb.SessionStore.Set"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	sess.ExpiresAt = sess.ExpiresAt.UTC()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID}, sess, options.Replace().SetUpsert(true))
	return wrapErr(op, err)
}

// Destroy удаляет сессию.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	const op = "storage.mongodb.SessionStore.Destroy"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return wrapErr(op, err)
}

// Prune удаляет истёкшие сессии, не дожидаясь TTL-монитора.
func (s *SessionStore) Prune(ctx context.Context) (int, error) {
	const op = "storage.mongodb.SessionStore.Prune"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	res, err := s.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": s.now().UTC()}})
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return int(res.DeletedCount), nil
}
