// Package postgresql реализует хранилище блога поверх PostgreSQL
// (database/sql с драйвером pgx). Схема накатывается встроенными миграциями,
// администратор создаётся при первом подключении, а фоновый ping сообщает
// супервизору о потере и восстановлении связи.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/migrations"
	"github.com/magabrotheeeer/techblog/internal/storage"
)

// Config — параметры подключения к PostgreSQL.
type Config struct {
	URL               string
	MaxOpenConns      int
	HeartbeatInterval time.Duration
	Admin             storage.Admin
	Listener          storage.ConnectionListener
}

// Storage инкапсулирует пул соединений и реализует storage.Storage.
type Storage struct {
	DB       *sql.DB
	log      *slog.Logger
	listener storage.ConnectionListener
	sessions *SessionStore
	now      func() time.Time

	ready    atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var _ storage.Storage = (*Storage)(nil)

// New подключается к PostgreSQL, применяет миграции и создаёт администратора.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, storage.Unavailable(op, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storage.Unavailable(op, err)
	}
	if err = migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, storage.Unavailable(op, err)
	}

	s := newStorage(db, log)
	s.listener = cfg.Listener

	if _, err = storage.EnsureAdmin(ctx, s, cfg.Admin); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.startHeartbeat(cfg.HeartbeatInterval)
	return s, nil
}

func newStorage(db *sql.DB, log *slog.Logger) *Storage {
	s := &Storage{
		DB:   db,
		log:  log.With(slog.String("storage", string(storage.KindPostgres))),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	s.sessions = &SessionStore{db: db, now: s.now}
	s.ready.Store(true)
	return s
}

// Kind возвращает вид бэкенда.
func (s *Storage) Kind() storage.Kind {
	return storage.KindPostgres
}

// Sessions возвращает хранилище сессий в таблице sessions.
func (s *Storage) Sessions() storage.SessionStore {
	return s.sessions
}

// Ready сообщает результат последней проверки соединения.
func (s *Storage) Ready() bool {
	return s.ready.Load()
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.postgresql.Ping"
	if err := s.DB.PingContext(ctx); err != nil {
		return storage.Unavailable(op, err)
	}
	return nil
}

// Close останавливает фоновую проверку и закрывает пул.
func (s *Storage) Close(context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	return s.DB.Close()
}

func (s *Storage) startHeartbeat(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("heartbeat panic", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				s.observe(s.DB.PingContext(ctx))
				cancel()
			}
		}
	}()
}

// observe обновляет признак готовности и уведомляет слушателя только при смене состояния.
func (s *Storage) observe(err error) {
	if err != nil {
		if s.ready.CompareAndSwap(true, false) {
			s.log.Warn("database connection lost", sl.Err(err))
			if s.listener != nil {
				s.listener.Disconnected(err)
			}
		}
		return
	}
	if s.ready.CompareAndSwap(false, true) {
		s.log.Info("database connection restored")
		if s.listener != nil {
			s.listener.Reconnected()
		}
	}
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}
