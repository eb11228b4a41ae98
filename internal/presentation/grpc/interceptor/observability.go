package interceptor

import (
	"context"
	"time"

	otelinfra "skillcoins/internal/infrastructure/observability/otel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// metadataCarrier gRPCメタデータをTextMapCarrierとして扱う
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	values := metadata.MD(c).Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// TracingInterceptor 受信したトレースコンテキストを引き継いでスパンを開始する
func TracingInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer("skillcoins-grpc")

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
		}

		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.method", info.FullMethod),
		)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return resp, err
	}
}

// MetricsInterceptor リクエスト数と応答時間を記録する
func MetricsInterceptor(metrics *otelinfra.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		metrics.RecordRequest(ctx, "GRPC", info.FullMethod)
		metrics.RecordResponseTime(ctx, "GRPC", info.FullMethod, time.Since(start).Seconds())
		if errorType := classifyCode(status.Code(err)); errorType != "" {
			metrics.RecordError(ctx, errorType)
		}
		return resp, err
	}
}

// classifyCode RESTのserver_error/client_errorと同じ分類に寄せる
func classifyCode(code codes.Code) string {
	switch code {
	case codes.OK:
		return ""
	case codes.Internal, codes.Unavailable, codes.Unknown, codes.DataLoss, codes.DeadlineExceeded:
		return "server_error"
	default:
		return "client_error"
	}
}

// LoggingInterceptor 呼び出し結果をログに出す
func LoggingInterceptor(logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		fields := map[string]interface{}{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}
		if serverID, ok := ServerIDFromContext(ctx); ok {
			fields["server_id"] = serverID
		}
		if classifyCode(status.Code(err)) == "server_error" {
			logger.Error(ctx, "gRPC call failed", err, fields)
		} else {
			logger.Info(ctx, "gRPC call completed", fields)
		}
		return resp, err
	}
}
