// Package rpc carries the replication contract over gRPC.
//
// Messages are protobuf well-known types, so no generated code is needed:
// positional string arguments travel in a structpb.Struct, results as
// wrapperspb values, tuple lists as a structpb.ListValue.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the gRPC service both sides register and call.
const ServiceName = "usersync.replication.v1.Replication"

const (
	MethodAuthenticate        = "Authenticate"
	MethodCreateUser          = "CreateUser"
	MethodDeleteUser          = "DeleteUser"
	MethodChangeSecret        = "ChangeSecret"
	MethodListAllRecords      = "ListAllRecords"
	MethodClearAllRecords     = "ClearAllRecords"
	MethodNotifyUserCreated   = "NotifyUserCreated"
	MethodNotifyUserDeleted   = "NotifyUserDeleted"
	MethodNotifySecretChanged = "NotifySecretChanged"
	MethodAccountExists       = "AccountExists"
)

// FullMethod returns the gRPC method path, e.g.
// "/usersync.replication.v1.Replication/CreateUser".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ReplicationServer is the wire-level handler interface.
type ReplicationServer interface {
	Authenticate(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	CreateUser(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	DeleteUser(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ChangeSecret(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ListAllRecords(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ClearAllRecords(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	NotifyUserCreated(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	NotifyUserDeleted(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	NotifySecretChanged(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	AccountExists(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

// unary builds a MethodDesc that decodes the request, runs it through the
// server's interceptor chain and dispatches to call.
func unary[Req, Resp proto.Message](name string, newReq func() Req, call func(ReplicationServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ReplicationServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the replication service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReplicationServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodAuthenticate, newStruct, ReplicationServer.Authenticate),
		unary(MethodCreateUser, newStruct, ReplicationServer.CreateUser),
		unary(MethodDeleteUser, newStruct, ReplicationServer.DeleteUser),
		unary(MethodChangeSecret, newStruct, ReplicationServer.ChangeSecret),
		unary(MethodListAllRecords, newEmpty, ReplicationServer.ListAllRecords),
		unary(MethodClearAllRecords, newEmpty, ReplicationServer.ClearAllRecords),
		unary(MethodNotifyUserCreated, newStruct, ReplicationServer.NotifyUserCreated),
		unary(MethodNotifyUserDeleted, newStruct, ReplicationServer.NotifyUserDeleted),
		unary(MethodNotifySecretChanged, newStruct, ReplicationServer.NotifySecretChanged),
		unary(MethodAccountExists, newStruct, ReplicationServer.AccountExists),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "usersync/replication/v1/replication.proto",
}

// RegisterReplicationServer registers srv with s.
func RegisterReplicationServer(s grpc.ServiceRegistrar, srv ReplicationServer) {
	s.RegisterService(&ServiceDesc, srv)
}
