package rpc

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/auth"
	"github.com/dmitrijs2005/usersync/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const peerRoleKey ctxKey = "peerRole"

// PeerRoleFromContext returns the authenticated caller role set by the
// server interceptor.
func PeerRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(peerRoleKey).(string)
	return role, ok
}

func firstValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) protocolVersionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	v := firstValue(ctx, common.ProtocolVersionHeaderName)
	if v != common.ProtocolVersion {
		s.logger.Warn(ctx, "protocol version mismatch", "method", info.FullMethod, "got", v, "want", common.ProtocolVersion)
		return nil, status.Errorf(codes.FailedPrecondition, "unsupported protocol version %q", v)
	}
	return handler(ctx, req)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	accessToken := firstValue(ctx, common.AccessTokenHeaderName)
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	role, err := auth.RoleFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	s.logger.Debug(ctx, "peer call", "method", info.FullMethod, "peer_role", role)
	ctx = context.WithValue(ctx, peerRoleKey, role)

	return handler(ctx, req)
}

// TokenSource yields the access token for an outbound call.
type TokenSource interface {
	Token() (string, error)
}

// outgoingMetadataInterceptor stamps every call with the protocol version
// and a fresh access token.
func outgoingMetadataInterceptor(tokens TokenSource) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		token, err := tokens.Token()
		if err != nil {
			return err
		}

		md, _ := metadata.FromOutgoingContext(ctx)
		md = md.Copy()
		if md == nil {
			md = metadata.MD{}
		}
		md.Set(common.ProtocolVersionHeaderName, common.ProtocolVersion)
		md.Set(common.AccessTokenHeaderName, token)

		return invoker(metadata.NewOutgoingContext(ctx, md), method, req, reply, cc, opts...)
	}
}
