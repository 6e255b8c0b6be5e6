package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/MKhiriev/go-multimatrix/internal/dispatcher"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

type fakeEngine struct {
	accounts    []models.Account
	subscribers []dispatcher.Subscriber
}

func (f *fakeEngine) Accounts() []models.Account { return f.accounts }

func (f *fakeEngine) Subscribe(fn dispatcher.Subscriber) {
	f.subscribers = append(f.subscribers, fn)
}

func (f *fakeEngine) publish(ev models.DomainEvent) {
	for _, fn := range f.subscribers {
		fn(ev)
	}
}

// startHealth serves h over an in-memory listener and returns a client.
func startHealth(t *testing.T, h *Handler) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 16)
	s := grpc.NewServer()
	h.Register(s)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealth_FollowsAccountStatus(t *testing.T) {
	engine := &fakeEngine{accounts: []models.Account{
		{UserID: "@a:example.org", Status: models.StatusSynced},
		{UserID: "@b:example.org", Status: models.StatusConnecting},
	}}
	h := NewHandler(engine, logger.Nop())
	client := startHealth(t, h)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ServiceName("@a:example.org")))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName("@b:example.org")))

	tests := []struct {
		name string
		ev   models.DomainEvent
		want healthpb.HealthCheckResponse_ServingStatus
	}{
		{
			name: "synced",
			ev:   models.DomainEvent{Kind: models.EventAccountStatusChanged, AccountID: "@b:example.org", Status: models.StatusSynced},
			want: healthpb.HealthCheckResponse_SERVING,
		},
		{
			name: "degraded",
			ev:   models.DomainEvent{Kind: models.EventAccountStatusChanged, AccountID: "@b:example.org", Status: models.StatusDegraded},
			want: healthpb.HealthCheckResponse_NOT_SERVING,
		},
		{
			name: "logged out",
			ev:   models.DomainEvent{Kind: models.EventAccountStatusChanged, AccountID: "@b:example.org", Status: models.StatusLoggedOut},
			want: healthpb.HealthCheckResponse_NOT_SERVING,
		},
		{
			name: "removed",
			ev:   models.DomainEvent{Kind: models.EventAccountRemoved, AccountID: "@b:example.org"},
			want: healthpb.HealthCheckResponse_SERVICE_UNKNOWN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine.publish(tt.ev)
			assert.Equal(t, tt.want, check(t, client, ServiceName("@b:example.org")))
		})
	}
}

func TestHealth_UnknownAccount(t *testing.T) {
	client := startHealth(t, NewHandler(&fakeEngine{}, logger.Nop()))

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName("@nobody:example.org")})

	assert.Error(t, err)
}

func TestHealth_Shutdown(t *testing.T) {
	engine := &fakeEngine{accounts: []models.Account{{UserID: "@a:example.org", Status: models.StatusSynced}}}
	h := NewHandler(engine, logger.Nop())
	client := startHealth(t, h)

	h.Shutdown()

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName("@a:example.org")))
}
