package supervisor

import (
	"context"
	"time"

	"github.com/magabrotheeeer/techblog/internal/storage"
)

// Runner — часть Supervisor, через которую сервисы обращаются к хранилищу.
type Runner interface {
	Current() storage.Storage
	Sessions() storage.SessionStore
	ReportFailure(c Capability, err error) bool
}

var _ Runner = (*Supervisor)(nil)

// Data выполняет fn над активным хранилищем данных с таймаутом. Если fn
// упала из-за недоступности хранилища и супервизор переключил бэкенд,
// вызов один раз повторяется на новом бэкенде.
func Data[T any](ctx context.Context, r Runner, timeout time.Duration, fn func(context.Context, storage.Storage) (T, error)) (T, error) {
	return call(ctx, timeout, r.Current, func(err error) bool {
		return r.ReportFailure(CapabilityData, err)
	}, fn)
}

// Session делает то же для хранилища сессий.
func Session[T any](ctx context.Context, r Runner, timeout time.Duration, fn func(context.Context, storage.SessionStore) (T, error)) (T, error) {
	return call(ctx, timeout, r.Sessions, func(err error) bool {
		return r.ReportFailure(CapabilitySessions, err)
	}, fn)
}

func call[S comparable, T any](
	ctx context.Context,
	timeout time.Duration,
	current func() S,
	report func(error) bool,
	fn func(context.Context, S) (T, error),
) (T, error) {
	backend := current()
	res, err := withTimeout(ctx, timeout, backend, fn)
	if err == nil || !report(err) {
		return res, err
	}
	next := current()
	if next == backend || ctx.Err() != nil {
		return res, err
	}
	return withTimeout(ctx, timeout, next, fn)
}

func withTimeout[S, T any](ctx context.Context, timeout time.Duration, backend S, fn func(context.Context, S) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, backend)
}
