package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name. Messages are
// protobuf well-known types so no generated code is needed.
const ServiceName = "picar.v1.Vehicle"

const (
	methodInfo     = "/" + ServiceName + "/Info"
	methodDoAction = "/" + ServiceName + "/DoAction"
	methodWatch    = "/" + ServiceName + "/Watch"
)

// VehicleServer is the server API of picar.v1.Vehicle.
type VehicleServer interface {
	// Info returns the current snapshot.
	Info(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// DoAction runs the named action.
	DoAction(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// Watch streams the current snapshot and every change after it.
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

func RegisterVehicleServer(s grpc.ServiceRegistrar, srv VehicleServer) {
	s.RegisterService(&VehicleServiceDesc, srv)
}

func infoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VehicleServer).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VehicleServer).Info(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func doActionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VehicleServer).DoAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDoAction}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VehicleServer).DoAction(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(VehicleServer).Watch(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// VehicleServiceDesc describes picar.v1.Vehicle.
var VehicleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VehicleServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Info", Handler: infoHandler},
		{MethodName: "DoAction", Handler: doActionHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "picar/v1/vehicle.proto",
}
