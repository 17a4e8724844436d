package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/auth"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const reviewerKey ctxKey = "reviewer"

func withReviewer(ctx context.Context, r models.Reviewer) context.Context {
	return context.WithValue(ctx, reviewerKey, r)
}

func reviewerFromContext(ctx context.Context) (models.Reviewer, bool) {
	r, ok := ctx.Value(reviewerKey).(models.Reviewer)
	return r, ok
}

// accessTokenInterceptor authenticates every call except Ping with the
// staff JWT from the access_token metadata.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if info.FullMethod == FullMethod(MethodPing) {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	reviewer, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(withReviewer(ctx, reviewer), req)
}
