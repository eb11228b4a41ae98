package interceptor

import (
	"context"
	"strings"

	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type serverIDKey struct{}

// ServerIDFromContext 認証済みのホストサーバーIDを取り出す
func ServerIDFromContext(ctx context.Context) (string, bool) {
	serverID, ok := ctx.Value(serverIDKey{}).(string)
	return serverID, ok
}

// AuthInterceptor ホストサーバーのJWT認証インターセプター
func AuthInterceptor(cfg *config.JWTConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			logger.Warn(ctx, "Missing metadata", nil)
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			logger.Warn(ctx, "Missing authorization header", nil)
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		scheme, tokenString, found := strings.Cut(authHeaders[0], " ")
		if !found || scheme != "Bearer" || tokenString == "" {
			logger.Warn(ctx, "Invalid authorization header format", nil)
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			fields := map[string]interface{}{"method": info.FullMethod}
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.Warn(ctx, "Invalid token", fields)
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		if cfg.Issuer != "" {
			if iss, _ := claims.GetIssuer(); iss != cfg.Issuer {
				logger.Warn(ctx, "Unexpected token issuer", map[string]interface{}{"issuer": iss})
				return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
			}
		}

		serverID, ok := claims["server_id"].(string)
		if !ok || serverID == "" {
			logger.Warn(ctx, "Missing server_id in token claims", nil)
			return nil, status.Error(codes.Unauthenticated, "missing server_id in token")
		}

		return handler(context.WithValue(ctx, serverIDKey{}, serverID), req)
	}
}
