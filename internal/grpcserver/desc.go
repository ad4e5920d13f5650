package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// applicationServiceServer is the handler set serviceDesc dispatches to.
type applicationServiceServer interface {
	ListOwner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMine(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reply(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*applicationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListOwner", Handler: unary("ListOwner", applicationServiceServer.ListOwner)},
		{MethodName: "ListMine", Handler: unary("ListMine", applicationServiceServer.ListMine)},
		{MethodName: "SetStatus", Handler: unary("SetStatus", applicationServiceServer.SetStatus)},
		{MethodName: "Reply", Handler: unary("Reply", applicationServiceServer.Reply)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "leja/board/v1/application.proto",
}

type unaryMethod func(applicationServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary adapts a Struct-in, Struct-out method to a grpc.MethodDesc handler.
func unary(name string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(applicationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(applicationServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
