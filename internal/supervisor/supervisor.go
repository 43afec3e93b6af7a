// Package supervisor владеет активным бэкендом хранилища и правилами его смены.
//
// Супервизор пробует подключиться к основному хранилищу из конфига, а при
// любой недоступности переключает процесс на свежее хранилище в памяти.
// Данные и сессии отслеживаются как две независимые возможности.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/storage/memory"
)

// State — состояние супервизора.
type State string

const (
	StateUnconfigured  State = "unconfigured"
	StateProbing       State = "probing"
	StatePrimaryActive State = "primary"
	StateMemoryActive  State = "memory"
)

// Capability — независимо отказывающая часть хранилища.
type Capability string

const (
	CapabilityData     Capability = "data"
	CapabilitySessions Capability = "sessions"
)

const (
	kindMemory   = string(storage.KindMemory)
	kindMongo    = string(storage.KindMongo)
	kindPostgres = string(storage.KindPostgres)
)

var (
	// ErrNotReady возвращается, когда основное хранилище сообщило о потере соединения.
	ErrNotReady = errors.New("primary storage is not ready")
	// ErrProbeTimeout возвращается, если подключение не уложилось в отведённое время.
	ErrProbeTimeout = errors.New("storage probe timed out")
)

// Primary — основное хранилище, умеющее сообщать о готовности соединения.
type Primary interface {
	storage.Storage
	Ready() bool
}

// Connector подключает основное хранилище. listener получает события соединения.
type Connector func(ctx context.Context, url string, listener storage.ConnectionListener) (Primary, error)

// MemoryFactory создаёт свежее заполненное хранилище в памяти.
type MemoryFactory func(ctx context.Context) (storage.Storage, error)

// Config — параметры выбора хранилища.
type Config struct {
	URL             string
	ConnectAttempts int
	RetryDelay      time.Duration
	ProbeTimeout    time.Duration
	Admin           storage.Admin
}

// Option настраивает Supervisor.
type Option func(*Supervisor)

// WithConnector регистрирует подключение для вида бэкенда.
func WithConnector(kind storage.Kind, c Connector) Option {
	return func(s *Supervisor) { s.connectors[kind] = c }
}

// WithMemoryFactory подменяет создание хранилища в памяти.
func WithMemoryFactory(f MemoryFactory) Option {
	return func(s *Supervisor) { s.memoryFactory = f }
}

// WithMetrics включает метрики переключений.
func WithMetrics(m *Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// OnSwitch добавляет обработчик смены активного бэкенда.
func OnSwitch(fn func(c Capability, kind storage.Kind)) Option {
	return func(s *Supervisor) { s.onSwitch = append(s.onSwitch, fn) }
}

// Supervisor хранит текущий бэкенд и переключает его при отказах.
type Supervisor struct {
	cfg           Config
	log           *slog.Logger
	connectors    map[storage.Kind]Connector
	memoryFactory MemoryFactory
	metrics       *Metrics
	onSwitch      []func(Capability, storage.Kind)
	now           func() time.Time

	mu          sync.RWMutex
	configured  storage.Kind
	states      map[Capability]State
	primary     Primary
	data        storage.Storage
	sessions    storage.SessionStore
	fallback    storage.Storage
	connected   bool
	lastErr     error
	lastErrAt   time.Time
	startedAt   time.Time
	switchCount int
}

// New создаёт супервизор в состоянии Unconfigured.
func New(cfg Config, log *slog.Logger, opts ...Option) *Supervisor {
	if cfg.ConnectAttempts < 1 {
		cfg.ConnectAttempts = 1
	}
	s := &Supervisor{
		cfg:        cfg,
		log:        log.With(slog.String("component", "supervisor")),
		connectors: make(map[storage.Kind]Connector),
		now:        time.Now,
		states: map[Capability]State{
			CapabilityData:     StateUnconfigured,
			CapabilitySessions: StateUnconfigured,
		},
	}
	s.memoryFactory = func(ctx context.Context) (storage.Storage, error) {
		return memory.NewSeeded(ctx, s.cfg.Admin)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseKind определяет вид бэкенда по схеме строки подключения.
func ParseKind(url string) (storage.Kind, bool) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return storage.KindMongo, true
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return storage.KindPostgres, true
	case strings.HasPrefix(url, "memory://"):
		return storage.KindMemory, true
	default:
		return "", false
	}
}

// Start выбирает хранилище. Ошибку возвращает только отменённый ctx:
// любой отказ основного хранилища заканчивается работой в памяти.
func (s *Supervisor) Start(ctx context.Context) error {
	const op = "supervisor.Start"
	s.mu.Lock()
	s.startedAt = s.now()
	s.mu.Unlock()

	kind, ok := ParseKind(s.cfg.URL)
	connect := s.connectors[kind]
	switch {
	case !ok:
		if s.cfg.URL != "" {
			s.log.Warn("unrecognised storage url scheme, using in-memory storage")
		} else {
			s.log.Info("storage url is not set, using in-memory storage")
		}
		return s.activateMemory(ctx, nil)
	case kind == storage.KindMemory:
		s.log.Info("in-memory storage requested")
		return s.activateMemory(ctx, nil)
	case connect == nil:
		s.log.Warn("no connector registered, using in-memory storage", slog.String("kind", string(kind)))
		return s.activateMemory(ctx, nil)
	}

	s.mu.Lock()
	s.configured = kind
	s.states[CapabilityData] = StateProbing
	s.states[CapabilitySessions] = StateProbing
	s.mu.Unlock()

	s.log.Info("probing primary storage", slog.String("kind", string(kind)))
	p, err := s.probe(ctx, connect)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		s.log.Warn("primary storage unavailable, using in-memory storage",
			slog.String("kind", string(kind)), sl.Err(err))
		return s.activateMemory(ctx, err)
	}

	s.mu.Lock()
	s.primary = p
	s.data = p
	s.sessions = p.Sessions()
	s.connected = true
	s.states[CapabilityData] = StatePrimaryActive
	s.states[CapabilitySessions] = StatePrimaryActive
	s.mu.Unlock()

	s.metrics.setActive(CapabilityData, string(kind))
	s.metrics.setActive(CapabilitySessions, string(kind))
	s.log.Info("primary storage active", slog.String("kind", string(kind)))
	return nil
}

// probe делает до ConnectAttempts попыток, всё вместе не дольше ProbeTimeout.
// Подключение, успевшее после таймаута, закрывается.
func (s *Supervisor) probe(ctx context.Context, connect Connector) (Primary, error) {
	var (
		probeCtx context.Context
		cancel   context.CancelFunc
	)
	if s.cfg.ProbeTimeout > 0 {
		probeCtx, cancel = context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	} else {
		probeCtx, cancel = context.WithCancel(ctx)
	}

	type result struct {
		p   Primary
		err error
	}
	done := make(chan result, 1)

	go func() {
		var lastErr error
		for attempt := 1; attempt <= s.cfg.ConnectAttempts; attempt++ {
			p, err := connect(probeCtx, s.cfg.URL, s)
			if err == nil {
				done <- result{p: p}
				return
			}
			lastErr = err
			s.log.Warn("storage connection attempt failed",
				slog.Int("attempt", attempt), slog.Int("of", s.cfg.ConnectAttempts), sl.Err(err))
			if attempt == s.cfg.ConnectAttempts {
				break
			}
			select {
			case <-probeCtx.Done():
				done <- result{err: lastErr}
				return
			case <-time.After(s.cfg.RetryDelay):
			}
		}
		done <- result{err: lastErr}
	}()

	select {
	case r := <-done:
		cancel()
		return r.p, r.err
	case <-probeCtx.Done():
		go func() {
			defer cancel()
			if r := <-done; r.p != nil {
				_ = r.p.Close(context.Background())
			}
		}()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrProbeTimeout
	}
}

func (s *Supervisor) activateMemory(ctx context.Context, cause error) error {
	mem := s.newMemory(ctx)

	s.mu.Lock()
	s.fallback = mem
	s.data = mem
	s.sessions = mem.Sessions()
	s.states[CapabilityData] = StateMemoryActive
	s.states[CapabilitySessions] = StateMemoryActive
	if cause != nil {
		s.lastErr = cause
		s.lastErrAt = s.now()
	}
	s.mu.Unlock()

	s.metrics.setActive(CapabilityData, kindMemory)
	s.metrics.setActive(CapabilitySessions, kindMemory)
	return nil
}

// newMemory не возвращает ошибку: при сбое заполнения используется пустое хранилище.
func (s *Supervisor) newMemory(ctx context.Context) storage.Storage {
	mem, err := s.memoryFactory(context.WithoutCancel(ctx))
	if err != nil {
		s.log.Error("failed to seed in-memory storage", sl.Err(err))
		return memory.New()
	}
	return mem
}

// Current возвращает активное хранилище данных.
func (s *Supervisor) Current() storage.Storage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Sessions возвращает активное хранилище сессий.
func (s *Supervisor) Sessions() storage.SessionStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// State возвращает состояние возможности хранения данных.
func (s *Supervisor) State() State {
	return s.CapabilityState(CapabilityData)
}

// CapabilityState возвращает состояние отдельной возможности.
func (s *Supervisor) CapabilityState(c Capability) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[c]
}

// Check выполняется на каждый запрос и ничего не опрашивает: если основное хранилище
// потеряло соединение, процесс переходит на память.
func (s *Supervisor) Check() State {
	s.mu.RLock()
	primary := s.primary
	onPrimary := s.states[CapabilityData] == StatePrimaryActive || s.states[CapabilitySessions] == StatePrimaryActive
	s.mu.RUnlock()

	if onPrimary && primary != nil && !primary.Ready() {
		s.demote(ErrNotReady, CapabilityData, CapabilitySessions)
	}
	return s.State()
}

// IsStorageError сообщает, указывает ли ошибка на недоступность хранилища.
func IsStorageError(err error) bool {
	return errors.Is(err, storage.ErrUnavailable)
}

// ReportFailure переводит возможность c на память, если err является ошибкой хранилища.
// Возвращает true, если ошибка классифицирована как отказ хранилища.
func (s *Supervisor) ReportFailure(c Capability, err error) bool {
	if !IsStorageError(err) {
		return false
	}
	s.demote(err, c)
	return true
}

// ReportRecovery возвращает основное хранилище после явного сигнала о восстановлении.
func (s *Supervisor) ReportRecovery() {
	s.mu.Lock()
	if s.primary == nil {
		s.mu.Unlock()
		return
	}
	s.connected = true
	var switched []Capability
	for _, c := range []Capability{CapabilityData, CapabilitySessions} {
		if s.states[c] == StateMemoryActive {
			s.states[c] = StatePrimaryActive
			switched = append(switched, c)
		}
	}
	if len(switched) > 0 {
		s.data = s.primary
		s.sessions = s.primary.Sessions()
		s.fallback = nil
		s.switchCount++
	}
	kind := s.primary.Kind()
	s.mu.Unlock()

	for _, c := range switched {
		s.log.Info("primary storage restored, in-memory data discarded",
			slog.String("capability", string(c)), slog.String("kind", string(kind)))
		s.metrics.recordSwitch(c, kindMemory, string(kind))
		s.notify(c, kind)
	}
}

// demote переводит возможности caps на свежее хранилище в памяти.
// Всё, что было записано в основное хранилище, процессу больше не видно.
func (s *Supervisor) demote(cause error, caps ...Capability) {
	s.mu.RLock()
	pending := false
	for _, c := range caps {
		if s.states[c] == StatePrimaryActive {
			pending = true
		}
	}
	s.mu.RUnlock()
	if !pending {
		return
	}

	// хранилище строится вне блокировки: хеширование пароля администратора небыстрое
	mem := s.newMemory(context.Background())

	s.mu.Lock()
	var switched []Capability
	for _, c := range caps {
		if s.states[c] != StatePrimaryActive {
			continue
		}
		if s.fallback == nil {
			s.fallback = mem
		}
		s.states[c] = StateMemoryActive
		switch c {
		case CapabilityData:
			s.data = s.fallback
		case CapabilitySessions:
			s.sessions = s.fallback.Sessions()
		}
		switched = append(switched, c)
	}
	if len(switched) > 0 {
		s.lastErr = cause
		s.lastErrAt = s.now()
		s.switchCount++
		if errors.Is(cause, ErrNotReady) || s.primary == nil || !s.primary.Ready() {
			s.connected = false
		}
	}
	from := string(s.configured)
	s.mu.Unlock()

	for _, c := range switched {
		s.log.Warn("switched to in-memory storage, primary data is not available until reconnect",
			slog.String("capability", string(c)), slog.String("from", from), sl.Err(cause))
		s.metrics.recordSwitch(c, from, kindMemory)
		s.notify(c, storage.KindMemory)
	}
}

func (s *Supervisor) notify(c Capability, kind storage.Kind) {
	for _, fn := range s.onSwitch {
		fn(c, kind)
	}
}

// Disconnected реализует storage.ConnectionListener.
func (s *Supervisor) Disconnected(err error) {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.demote(storage.Unavailable("supervisor.Disconnected", err), CapabilityData, CapabilitySessions)
}

// Reconnected реализует storage.ConnectionListener.
func (s *Supervisor) Reconnected() {
	s.ReportRecovery()
}

// Close закрывает основное хранилище.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.RLock()
	p := s.primary
	s.mu.RUnlock()
	if p == nil {
		return nil
	}
	return p.Close(ctx)
}
