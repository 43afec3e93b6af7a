// Package mongodb реализует хранилище блога поверх MongoDB.
//
// Идентификаторы int64 выдаются из коллекции counters, поэтому документы
// выглядят для HTTP-слоя так же, как строки реляционного бэкенда.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/magabrotheeeer/techblog/internal/storage"
)

// DefaultDatabase используется, если имя базы не задано ни в конфиге, ни в URI.
const DefaultDatabase = "techblog"

const (
	collUsers       = "users"
	collPosts       = "posts"
	collSubscribers = "subscribers"
	collSessions    = "sessions"
	collCounters    = "counters"
)

// caseInsensitive сравнивает имена и email без учёта регистра.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// Config — параметры подключения к MongoDB.
type Config struct {
	URI      string
	Database string
	Admin    storage.Admin
	Listener storage.ConnectionListener
}

// Storage реализует storage.Storage поверх коллекций MongoDB.
type Storage struct {
	client      *mongo.Client
	db          *mongo.Database
	users       *mongo.Collection
	posts       *mongo.Collection
	subscribers *mongo.Collection
	counters    *mongo.Collection
	sessions    *SessionStore

	log      *slog.Logger
	listener storage.ConnectionListener
	now      func() time.Time

	ready   atomic.Bool
	started atomic.Bool

	healthMu  sync.Mutex
	healthErr error
	reported  bool
	changed   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ storage.Storage = (*Storage)(nil)

// New подключается к MongoDB, создаёт индексы и администратора.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Storage, error) {
	const op = "storage.mongodb.New"

	s := &Storage{
		log:      log.With(slog.String("storage", string(storage.KindMongo))),
		listener: cfg.Listener,
		now:      time.Now,
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	monitor := &event.ServerMonitor{
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) { s.observe(e.NewDescription) },
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetServerMonitor(monitor)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, storage.Unavailable(op, err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storage.Unavailable(op, err)
	}

	s.attach(client, databaseName(cfg))

	if err = s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrapErr(op, err)
	}
	if _, err = storage.EnsureAdmin(ctx, s, cfg.Admin); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.ready.Store(true)
	s.reported = true
	s.started.Store(true)
	go s.watch()
	return s, nil
}

func (s *Storage) attach(client *mongo.Client, dbName string) {
	s.client = client
	s.db = client.Database(dbName)
	s.users = s.db.Collection(collUsers)
	s.posts = s.db.Collection(collPosts)
	s.subscribers = s.db.Collection(collSubscribers)
	s.counters = s.db.Collection(collCounters)
	s.sessions = &SessionStore{coll: s.db.Collection(collSessions), now: s.now}
}

// databaseName берёт базу из конфига, затем из пути URI.
func databaseName(cfg Config) string {
	if cfg.Database != "" {
		return cfg.Database
	}
	if cs, err := connstring.ParseAndValidate(cfg.URI); err == nil && cs.Database != "" {
		return cs.Database
	}
	return DefaultDatabase
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
	}); err != nil {
		return err
	}
	if _, err := s.subscribers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
	}); err != nil {
		return err
	}
	if _, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "publishedAt", Value: -1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}); err != nil {
		return err
	}
	// истёкшие сессии MongoDB удаляет сама
	_, err := s.sessions.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// nextID атомарно увеличивает счётчик коллекции.
func (s *Storage) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

// Kind возвращает вид бэкенда.
func (s *Storage) Kind() storage.Kind {
	return storage.KindMongo
}

// Sessions возвращает хранилище сессий в коллекции sessions.
func (s *Storage) Sessions() storage.SessionStore {
	return s.sessions
}

// Ready сообщает, есть ли в топологии сервер, принимающий запись.
func (s *Storage) Ready() bool {
	return s.ready.Load()
}

// Ping проверяет доступность primary.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.mongodb.Ping"
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return storage.Unavailable(op, err)
	}
	return nil
}

// Close останавливает наблюдение за топологией и отключает клиента.
func (s *Storage) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.done != nil {
			close(s.done)
		}
	})
	return s.client.Disconnect(ctx)
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
