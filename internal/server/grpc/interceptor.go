package grpc

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gabenodland/trace-sub002/internal/common"
	"github.com/gabenodland/trace-sub002/internal/server/auth"
	"github.com/gabenodland/trace-sub002/internal/rpc"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// methods callable without an access token
var publicMethods = map[string]struct{}{
	rpc.FullMethod(rpc.MethodRegister):     {},
	rpc.FullMethod(rpc.MethodLogin):        {},
	rpc.FullMethod(rpc.MethodRefreshToken): {},
	rpc.FullMethod(rpc.MethodPing):         {},
}

// UserIDFromContext returns the authenticated user id set by the
// interceptor. Handlers behind auth can rely on it being present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func authenticate(ctx context.Context, jwtSecret []byte) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 || values[0] == "" {
		return nil, status.Error(codes.Unauthenticated, "missing access token")
	}

	userID, err := auth.GetUserIDFromToken(values[0], jwtSecret)
	if err != nil {
		// The expired-token message is part of the contract: clients use it
		// to trigger a refresh instead of failing the call.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return context.WithValue(ctx, userIDKey, userID), nil
}

func (s *GRPCServer) accessTokenInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	ctx, err := authenticate(ctx, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}
