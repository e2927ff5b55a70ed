package gameserver

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key reported for the game server.
const ServiceName = "arena.GameServer"

// NewGRPCServer returns a gRPC server carrying the standard health service.
// Both the overall status and ServiceName start as SERVING.
func NewGRPCServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv, hs
}

// ReportHealth runs check and publishes the result as ServiceName's status.
//
// Postcondition: The status is SERVING iff check returned nil.
func ReportHealth(ctx context.Context, hs *health.Server, check func(context.Context) error, logger *zap.Logger) {
	if err := check(ctx); err != nil {
		logger.Warn("health check failed", zap.Error(err))
		hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}
