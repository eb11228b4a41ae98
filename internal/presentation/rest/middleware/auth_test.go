package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"skillcoins/internal/infrastructure/config"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret", Issuer: "skillcoins"}
	valid := jwt.MapClaims{
		"server_id": "survival-1",
		"iss":       "skillcoins",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{
			name:           "正常系: 有効なトークン",
			header:         "Bearer " + signToken(t, "test-secret", jwt.SigningMethodHS256, valid),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "異常系: Authorizationヘッダーが無い",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: Bearer形式でない",
			header:         "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 署名できないトークン",
			header:         "Bearer not.a.token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: シークレットが違う",
			header:         "Bearer " + signToken(t, "wrong-secret", jwt.SigningMethodHS256, valid),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れ",
			header: "Bearer " + signToken(t, "test-secret", jwt.SigningMethodHS256, jwt.MapClaims{
				"server_id": "survival-1",
				"iss":       "skillcoins",
				"exp":       time.Now().Add(-time.Minute).Unix(),
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 発行者が違う",
			header: "Bearer " + signToken(t, "test-secret", jwt.SigningMethodHS256, jwt.MapClaims{
				"server_id": "survival-1",
				"iss":       "someone-else",
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: server_idが無い",
			header: "Bearer " + signToken(t, "test-secret", jwt.SigningMethodHS256, jwt.MapClaims{
				"iss": "skillcoins",
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: server_idが文字列でない",
			header: "Bearer " + signToken(t, "test-secret", jwt.SigningMethodHS256, jwt.MapClaims{
				"server_id": 123,
				"iss":       "skillcoins",
			}),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := AuthMiddleware(cfg, logger)(func(c echo.Context) error {
				assert.Equal(t, "survival-1", c.Get(ServerIDKey))
				return c.String(http.StatusOK, "ok")
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	for _, h := range []string{"", "Bearer", "Bearer ", "bearer abc", "Bearer a b"} {
		_, ok := bearerToken(h)
		assert.False(t, ok, h)
	}
}
