package gameserver_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cory-johannsen/arena/internal/gameserver"
)

func TestGRPCServer_HealthReflectsChecks(t *testing.T) {
	srv, hs := gameserver.NewGRPCServer()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: gameserver.ServiceName})
		require.NoError(t, err)
		return resp.GetStatus()
	}
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status())

	gameserver.ReportHealth(ctx, hs, func(context.Context) error { return errors.New("db down") }, zap.NewNop())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status())

	gameserver.ReportHealth(ctx, hs, func(context.Context) error { return nil }, zap.NewNop())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status())
}
