// Package server реализует gRPC-сервер проверки здоровья (grpc.health.v1).
//
// Пустое имя сервиса отражает живость процесса, ServiceStorage отражает
// состояние основного хранилища по данным супервизора.
package server

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

// ServiceStorage — имя сервиса для проверки хранилища.
const ServiceStorage = "techblog.storage"

// HealthServer проецирует состояние супервизора на grpc.health.v1.
type HealthServer struct {
	grpcServer *grpc.Server
	health     *health.Server
	log        *slog.Logger
}

// NewHealthServer создает gRPC-сервер с зарегистрированным сервисом здоровья.
func NewHealthServer(log *slog.Logger, opts ...grpc.ServerOption) *HealthServer {
	hs := health.NewServer()
	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceStorage, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		grpcServer: s,
		health:     hs,
		log:        log.With(slog.String("component", "grpc-health")),
	}
}

// StorageStatus переводит состояние супервизора в статус grpc.health.v1.
//
// Работа на памяти без настроенного основного хранилища штатная и даёт SERVING.
// Откат на память после отказа основного хранилища даёт NOT_SERVING.
func StorageStatus(st supervisor.Status) healthpb.HealthCheckResponse_ServingStatus {
	switch st.State {
	case supervisor.StatePrimaryActive:
		return healthpb.HealthCheckResponse_SERVING
	case supervisor.StateMemoryActive:
		if st.Configured == "" || st.Configured == storage.KindMemory {
			return healthpb.HealthCheckResponse_SERVING
		}
		return healthpb.HealthCheckResponse_NOT_SERVING
	default:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
}

// Update выставляет статус ServiceStorage по снимку супервизора.
func (s *HealthServer) Update(st supervisor.Status) {
	status := StorageStatus(st)
	s.health.SetServingStatus(ServiceStorage, status)
	s.log.Debug("storage health updated", slog.String("status", status.String()), slog.String("backend", string(st.Backend)))
}

// Serve обслуживает lis до Stop или ошибки.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.log.Info("gRPC health service listening on", slog.String("address", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// Stop переводит все сервисы в NOT_SERVING и дожидается завершения активных вызовов.
func (s *HealthServer) Stop(ctx context.Context) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}
