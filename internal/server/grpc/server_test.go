package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/metrics"
	"github.com/dmitrijs2005/gophvote/internal/server/config"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophvote/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	client  *api.ProposalServiceClient
	metrics *metrics.Metrics
}

func startServer(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	db, rm, err := repomanager.Open(ctx, ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: time.Hour}
	m := metrics.New(nil)
	ps := services.NewProposalService(db, rm, cfg, services.WithMetrics(m))
	us := services.NewUserService(db, rm, cfg)
	as := services.NewArchiveService(ps, cfg)

	s := NewGRPCServer("bufnet", logging.Nop(), m, us, ps, as, cfg.SecretKey)

	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
		_ = db.Close()
	})

	return &harness{client: api.NewProposalServiceClient(conn), metrics: m}
}

func (h *harness) login(t *testing.T, name string) context.Context {
	t.Helper()
	ctx := context.Background()
	_, err := h.client.Register(ctx, &api.RegisterRequest{Username: name, Password: "password-" + name})
	require.NoError(t, err)
	resp, err := h.client.Login(ctx, &api.LoginRequest{Username: name, Password: "password-" + name})
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, resp.AccessToken)
}

func TestRoundTrip_ProposalLifecycle(t *testing.T) {
	h := startServer(t)
	alice := h.login(t, "alice")
	bob := h.login(t, "bob")

	ping, err := h.client.Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", ping.Status)

	created, err := h.client.CreateProposal(alice, &api.CreateProposalRequest{Title: "Budget", Description: "Q3"})
	require.NoError(t, err)
	id := created.Proposal.ID
	assert.Nil(t, created.Proposal.UpdatedAt)

	_, err = h.client.VoteYes(alice, &api.VoteRequest{ID: id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	voted, err := h.client.VoteNo(bob, &api.VoteRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), voted.Proposal.NoVotes)
	assert.NotNil(t, voted.Proposal.UpdatedAt)

	_, err = h.client.VoteYes(bob, &api.VoteRequest{ID: id})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	assert.Equal(t, "already voted", status.Convert(err).Message())

	_, err = h.client.UpdateProposal(bob, &api.UpdateProposalRequest{ID: id, Title: " ", Description: "x"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.DeleteProposal(bob, &api.DeleteProposalRequest{ID: id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	got, err := h.client.GetProposal(context.Background(), &api.GetProposalRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, "Budget", got.Proposal.Title)
	require.Len(t, got.Proposal.Voters, 1)
	assert.NotEqual(t, got.Proposal.Owner, got.Proposal.Voters[0])

	deleted, err := h.client.DeleteProposal(alice, &api.DeleteProposalRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, deleted.Proposal.ID)

	_, err = h.client.GetProposal(context.Background(), &api.GetProposalRequest{ID: id})
	assert.Equal(t, codes.NotFound, status.Code(err))

	list, err := h.client.ListProposals(context.Background(), &api.ListProposalsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Proposals)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.GrpcRequestTotal.WithLabelValues(api.FullMethod(api.MethodPing), "OK")))
}

func TestRoundTrip_ProtectedNeedsToken(t *testing.T) {
	h := startServer(t)

	_, err := h.client.CreateProposal(context.Background(), &api.CreateProposalRequest{Title: "t", Description: "d"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRoundTrip_ExportDisabled(t *testing.T) {
	h := startServer(t)
	alice := h.login(t, "alice")

	_, err := h.client.ExportProposals(alice, &api.ExportRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestRoundTrip_DuplicateRegistration(t *testing.T) {
	h := startServer(t)
	h.login(t, "alice")

	_, err := h.client.Register(context.Background(), &api.RegisterRequest{Username: "alice", Password: "whatever-1"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}
