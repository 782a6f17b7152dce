package handler

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCHealth reports serving status for the whole process and for the named
// service over grpc.health.v1.
type GRPCHealth struct {
	server  *health.Server
	service string
}

func NewGRPCHealth(grpcServer *grpc.Server, service string) *GRPCHealth {
	h := &GRPCHealth{server: health.NewServer(), service: service}
	healthpb.RegisterHealthServer(grpcServer, h.server)
	reflection.Register(grpcServer)
	h.SetServing(false)
	return h
}

func (h *GRPCHealth) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(h.service, status)
}

// Shutdown marks everything NOT_SERVING and ignores later updates.
func (h *GRPCHealth) Shutdown() {
	h.server.Shutdown()
}
