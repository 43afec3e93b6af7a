// Command healthcheck опрашивает gRPC health-сервер techblog и завершается с кодом 1,
// если сервис не SERVING. Предназначен для HEALTHCHECK контейнера.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/techblog/internal/config"
	"github.com/magabrotheeeer/techblog/internal/grpc/client"
	"github.com/magabrotheeeer/techblog/internal/grpc/server"
)

func main() {
	storage := flag.Bool("storage", false, "check primary storage instead of process liveness")
	timeout := flag.Duration("timeout", 3*time.Second, "request timeout")
	flag.Parse()

	cfg := config.MustLoad()
	if cfg.GRPCServer.AddressGRPC == "" {
		fmt.Fprintln(os.Stderr, "grpc_server.addressgrpc is not set")
		os.Exit(1)
	}

	c, err := client.NewHealthClient(cfg.GRPCServer.AddressGRPC)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	service := ""
	if *storage {
		service = server.ServiceStorage
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := c.Check(ctx, service)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(st.String())
	if st != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}
