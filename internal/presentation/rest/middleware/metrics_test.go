package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// counterTotal 指定カウンターの合計値を返す
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		handler        echo.HandlerFunc
		wantErr        bool
		expectedErrors int64
	}{
		{
			name: "正常系: 200はエラーとして数えない",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
		},
		{
			name: "正常系: 3xxはエラーとして数えない",
			handler: func(c echo.Context) error {
				return c.Redirect(http.StatusFound, "/elsewhere")
			},
		},
		{
			name: "異常系: 書き込み済みの409",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusConflict, ErrorResponse{Error: "insufficient_funds"})
			},
			expectedErrors: 1,
		},
		{
			name: "異常系: 未コミットのHTTPError",
			handler: func(c echo.Context) error {
				return echo.NewHTTPError(http.StatusNotFound)
			},
			wantErr:        true,
			expectedErrors: 1,
		},
		{
			name: "異常系: 未コミットの素のエラーは500扱い",
			handler: func(c echo.Context) error {
				return errors.New("boom")
			},
			wantErr:        true,
			expectedErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

			metrics, err := otelinfra.NewMetrics("test-meter")
			require.NoError(t, err)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/players/x/balance", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/players/:id/balance")

			err = MetricsMiddleware(metrics)(tt.handler)(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, int64(1), counterTotal(t, reader, "requests_total"))
			assert.Equal(t, tt.expectedErrors, counterTotal(t, reader, "errors_total"))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, "", classifyStatus(http.StatusOK))
	assert.Equal(t, "", classifyStatus(http.StatusFound))
	assert.Equal(t, "client_error", classifyStatus(http.StatusBadRequest))
	assert.Equal(t, "server_error", classifyStatus(http.StatusServiceUnavailable))
}
