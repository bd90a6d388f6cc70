// Package health exposes the standard gRPC health service for the catalog.
package health

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name orchestrators probe for the catalog.
const ServiceName = "catalog.ProductService"

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// Server wraps a gRPC server that only carries the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger
}

func NewServer(log *slog.Logger) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{grpc: gs, health: hs, log: log}
}

// SetServing flips the catalog and overall status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
}

// Watch runs check every interval and updates the status until ctx ends.
func (s *Server) Watch(ctx context.Context, interval time.Duration, check Checker) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		cctx, cancel := context.WithTimeout(ctx, interval)
		err := check(cctx)
		cancel()
		if err != nil {
			s.log.Warn("health check failed", "error", err)
		}
		s.SetServing(err == nil)

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Server) Serve(l net.Listener) error { return s.grpc.Serve(l) }

// Stop marks every service NOT_SERVING and drains the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
