package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

// Validator validates a bearer token. Implemented by TokenManager.
type Validator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func authenticate(ctx context.Context, v Validator) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return ctx, svcErr.Unauthenticated("authorization metadata required")
	}
	token, ok := BearerToken(values[0])
	if !ok {
		return ctx, svcErr.Unauthenticated("invalid authorization format")
	}
	claims, err := v.Validate(ctx, token)
	if err != nil {
		return ctx, svcErr.Map(err)
	}
	return WithIdentity(ctx, Identity{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Token:  token,
		Claims: claims,
	}), nil
}

// UnaryServerInterceptor authenticates every unary call except the public methods
// (full method names, e.g. "/campus.v1.AuthService/SignIn").
func UnaryServerInterceptor(v Validator, public ...string) grpc.UnaryServerInterceptor {
	skip := toSet(public)
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, v)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of UnaryServerInterceptor.
func StreamServerInterceptor(v Validator, public ...string) grpc.StreamServerInterceptor {
	skip := toSet(public)
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(srv, ss)
		}
		ctx, err := authenticate(ss.Context(), v)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
