package staffcli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/guildgate/internal/common"
	gs "github.com/dmitrijs2005/guildgate/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a staff session against the review API.
type Client struct {
	conn        *grpc.ClientConn
	review      *gs.ReviewClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = withAccessToken(ctx, c.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewClient connects to endpoint. Extra dial options are appended after the
// defaults (insecure transport, token interceptor).
func NewClient(endpoint, accessToken string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{accessToken: accessToken}
	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.review = gs.NewReviewClient(conn)
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	out, err := c.review.Call(ctx, method, fields)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, gs.MethodPing, nil)
	return err
}

func (c *Client) ListPending(ctx context.Context, page, pageSize int) (*structpb.Struct, error) {
	return c.call(ctx, gs.MethodListPending, map[string]any{"page": page, "page_size": pageSize})
}

func (c *Client) GetApplication(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.call(ctx, gs.MethodGetApplication, map[string]any{"id": id})
}

func (c *Client) Approve(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.call(ctx, gs.MethodApprove, map[string]any{"id": id})
}

func (c *Client) Reject(ctx context.Context, id, reason string) (*structpb.Struct, error) {
	return c.call(ctx, gs.MethodReject, map[string]any{"id": id, "reason": reason})
}

func (c *Client) CheckMembership(ctx context.Context, applicantID string) (*structpb.Struct, error) {
	return c.call(ctx, gs.MethodCheckMembership, map[string]any{"applicant_id": applicantID})
}

// mapError turns gRPC statuses back into the shared sentinel errors.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = common.ErrorUnauthorized
	case codes.PermissionDenied:
		sentinel = common.ErrorPermissionDenied
	case codes.NotFound:
		sentinel = common.ErrorNotFound
	case codes.FailedPrecondition:
		sentinel = common.ErrorAlreadyDecided
	case codes.Aborted:
		sentinel = common.ErrorPhotosPending
	case codes.InvalidArgument:
		sentinel = common.ErrorValidation
	case codes.Unavailable:
		sentinel = common.ErrorTransientDelivery
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
