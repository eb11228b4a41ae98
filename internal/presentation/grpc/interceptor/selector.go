package interceptor

import (
	"context"
	"strings"

	"google.golang.org/grpc"
)

// ForService 指定サービスのメソッドにだけインターセプターを適用する
//
// service は "skillcoins.v1.EconomyService" のような完全修飾名。
func ForService(service string, inner grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	prefix := "/" + service + "/"
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		return inner(ctx, req, info, handler)
	}
}
