package staffcli

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrijs2005/guildgate/internal/common"
	gs "github.com/dmitrijs2005/guildgate/internal/server/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeReview struct {
	token string
	req   *structpb.Struct
	err   error
}

func (f *fakeReview) record(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
			f.token = v[0]
		}
	}
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return structpb.NewStruct(map[string]any{"ok": true})
}

func (f *fakeReview) ListPending(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return f.record(ctx, r)
}
func (f *fakeReview) GetApplication(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return f.record(ctx, r)
}
func (f *fakeReview) Approve(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return f.record(ctx, r)
}
func (f *fakeReview) Reject(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return f.record(ctx, r)
}
func (f *fakeReview) CheckMembership(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return f.record(ctx, r)
}
func (f *fakeReview) Ping(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	return f.record(ctx, r)
}

func newBufClient(t *testing.T, fake *fakeReview, token string) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	gs.RegisterReviewServiceServer(srv, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewClient("passthrough:///bufnet", token, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_SendsTokenAndFields(t *testing.T) {
	fake := &fakeReview{}
	c := newBufClient(t, fake, "tok-123")
	ctx := context.Background()

	_, err := c.Reject(ctx, "app-1", "blurry photos")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", fake.token)
	assert.Equal(t, "app-1", fake.req.GetFields()["id"].GetStringValue())
	assert.Equal(t, "blurry photos", fake.req.GetFields()["reason"].GetStringValue())

	_, err = c.ListPending(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, float64(2), fake.req.GetFields()["page"].GetNumberValue())
	assert.Equal(t, float64(5), fake.req.GetFields()["page_size"].GetNumberValue())

	_, err = c.CheckMembership(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", fake.req.GetFields()["applicant_id"].GetStringValue())

	require.NoError(t, c.Ping(ctx))
}

func TestClient_NoTokenSendsNoMetadata(t *testing.T) {
	fake := &fakeReview{}
	c := newBufClient(t, fake, "")

	_, err := c.GetApplication(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Empty(t, fake.token)
}

func TestClient_MapsStatusCodes(t *testing.T) {
	cases := []struct {
		code codes.Code
		want error
	}{
		{codes.Unauthenticated, common.ErrorUnauthorized},
		{codes.PermissionDenied, common.ErrorPermissionDenied},
		{codes.NotFound, common.ErrorNotFound},
		{codes.FailedPrecondition, common.ErrorAlreadyDecided},
		{codes.Aborted, common.ErrorPhotosPending},
		{codes.InvalidArgument, common.ErrorValidation},
	}
	for _, tc := range cases {
		fake := &fakeReview{err: status.Error(tc.code, "boom")}
		c := newBufClient(t, fake, "tok")
		_, err := c.Approve(context.Background(), "app-1")
		assert.ErrorIs(t, err, tc.want, tc.code.String())
	}
}

func TestMapError_PassesThroughUnknown(t *testing.T) {
	err := status.Error(codes.Internal, "internal error")
	assert.Equal(t, err, mapError(err))
}
