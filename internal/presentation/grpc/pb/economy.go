// Package pb skillcoins.v1のgRPCサービス定義
//
// メッセージは全てgoogle.protobuf.Structで、フィールド名はREST APIのJSONと揃える。
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	EconomyServiceName = "skillcoins.v1.EconomyService"
	AdminServiceName   = "skillcoins.v1.AdminService"

	EconomyService_GetBalance_FullMethodName        = "/" + EconomyServiceName + "/GetBalance"
	EconomyService_ReportProgression_FullMethodName = "/" + EconomyServiceName + "/ReportProgression"
	EconomyService_ForwardCommand_FullMethodName    = "/" + EconomyServiceName + "/ForwardCommand"
	AdminService_SetBalance_FullMethodName          = "/" + AdminServiceName + "/SetBalance"
)

// EconomyServiceServer ホストサーバー向けのサービス
type EconomyServiceServer interface {
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReportProgression(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ForwardCommand(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedEconomyServiceServer 未実装のメソッドはUnimplementedを返す
type UnimplementedEconomyServiceServer struct{}

func (UnimplementedEconomyServiceServer) GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBalance not implemented")
}

func (UnimplementedEconomyServiceServer) ReportProgression(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ReportProgression not implemented")
}

func (UnimplementedEconomyServiceServer) ForwardCommand(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ForwardCommand not implemented")
}

// RegisterEconomyServiceServer サービスを登録
func RegisterEconomyServiceServer(s grpc.ServiceRegistrar, srv EconomyServiceServer) {
	s.RegisterService(&EconomyService_ServiceDesc, srv)
}

func unaryHandler(fullMethod string, call func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		})
	}
}

// EconomyService_ServiceDesc EconomyServiceのサービス記述子
var EconomyService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: EconomyServiceName,
	HandlerType: (*EconomyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetBalance",
			Handler: unaryHandler(EconomyService_GetBalance_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(EconomyServiceServer).GetBalance(ctx, in)
			}),
		},
		{
			MethodName: "ReportProgression",
			Handler: unaryHandler(EconomyService_ReportProgression_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(EconomyServiceServer).ReportProgression(ctx, in)
			}),
		},
		{
			MethodName: "ForwardCommand",
			Handler: unaryHandler(EconomyService_ForwardCommand_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(EconomyServiceServer).ForwardCommand(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skillcoins/v1/economy.proto",
}

// AdminServiceServer 管理用のサービス
type AdminServiceServer interface {
	SetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAdminServiceServer サービスを登録
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

// AdminService_ServiceDesc AdminServiceのサービス記述子
var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetBalance",
			Handler: unaryHandler(AdminService_SetBalance_FullMethodName, func(srv interface{}, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(AdminServiceServer).SetBalance(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skillcoins/v1/economy.proto",
}

// EconomyServiceClient ホストサーバー側のクライアント
type EconomyServiceClient interface {
	GetBalance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ReportProgression(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ForwardCommand(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type economyServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewEconomyServiceClient 新しいクライアントを作成
func NewEconomyServiceClient(cc grpc.ClientConnInterface) EconomyServiceClient {
	return &economyServiceClient{cc: cc}
}

func (c *economyServiceClient) GetBalance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, EconomyService_GetBalance_FullMethodName, in, opts...)
}

func (c *economyServiceClient) ReportProgression(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, EconomyService_ReportProgression_FullMethodName, in, opts...)
}

func (c *economyServiceClient) ForwardCommand(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, EconomyService_ForwardCommand_FullMethodName, in, opts...)
}

// AdminServiceClient 管理用クライアント
type AdminServiceClient interface {
	SetBalance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAdminServiceClient 新しい管理用クライアントを作成
func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc: cc}
}

func (c *adminServiceClient) SetBalance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, AdminService_SetBalance_FullMethodName, in, opts...)
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
