package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidServerID サーバーIDが不正
var ErrInvalidServerID = errors.New("invalid server id")

var serverIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// AuthApplicationService ホストサーバー向けのトークンを発行する
//
// 発行したトークンはRESTのAuthMiddlewareとgRPCのAuthInterceptorが検証する。
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
		tracer:    otel.Tracer("auth-service"),
		now:       time.Now,
	}
}

// IssueServerToken server_idクレームを持つJWTを発行
func (s *AuthApplicationService) IssueServerToken(ctx context.Context, req *IssueTokenRequest) (*IssueTokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthApplicationService.IssueServerToken")
	defer span.End()

	span.SetAttributes(attribute.String("server_id", req.ServerID))

	if !serverIDPattern.MatchString(req.ServerID) {
		err := fmt.Errorf("%w: %q", ErrInvalidServerID, req.ServerID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "Rejected token request", map[string]interface{}{
			"server_id": req.ServerID,
		})
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := jwt.MapClaims{
		"server_id": req.ServerID,
		"iss":       s.jwtConfig.Issuer,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to sign token", err, map[string]interface{}{
			"server_id": req.ServerID,
		})
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info(ctx, "Server token issued", map[string]interface{}{
		"server_id":  req.ServerID,
		"expires_at": expiresAt.Unix(),
	})

	return &IssueTokenResponse{
		Token:     tokenString,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}
