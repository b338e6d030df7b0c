package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/autopeer-io/picar/internal/agent/core"
	"github.com/autopeer-io/picar/internal/car"
	"github.com/autopeer-io/picar/pkg/log"
	"github.com/autopeer-io/picar/pkg/options"
)

type Server struct {
	server  *grpc.Server
	options *options.GrpcOptions
	vehicle core.Vehicle
	watcher core.Watcher
}

var _ VehicleServer = (*Server)(nil)

func NewServer(opts *options.GrpcOptions, v core.Vehicle, w core.Watcher) *Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	srv := &Server{
		server:  s,
		options: opts,
		vehicle: v,
		watcher: w,
	}
	RegisterVehicleServer(s, srv)
	reflection.Register(s) // Enable grpc_cli support
	return srv
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve runs on an existing listener until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	log.Info("Starting gRPC Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		stopped := make(chan struct{})
		go func() {
			s.server.GracefulStop()
			close(stopped)
		}()
		// Watch streams only end when their clients leave.
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			s.server.Stop()
		}
		return nil
	}
}

func (s *Server) Info(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	st, err := SnapshotToStruct(s.vehicle.Info())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func (s *Server) DoAction(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name := req.GetValue()
	if !s.vehicle.IsAction(name) {
		return nil, status.Errorf(codes.InvalidArgument, "unknown action %q", name)
	}
	if err := s.vehicle.DoAction(name); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	sub := s.watcher.Subscribe()
	defer sub.Close()

	select {
	case <-sub.C():
	default:
	}
	if err := s.send(stream, s.vehicle.Info()); err != nil {
		return err
	}
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case snap := <-sub.C():
			if err := s.send(stream, snap); err != nil {
				return err
			}
		}
	}
}

func (s *Server) send(stream grpc.ServerStreamingServer[structpb.Struct], snap car.Snapshot) error {
	st, err := SnapshotToStruct(snap)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.Send(st)
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		log.Warn("gRPC call failed", "method", info.FullMethod, "code", status.Code(err).String(), "latency", time.Since(start))
	} else {
		log.Debug("gRPC call", "method", info.FullMethod, "latency", time.Since(start))
	}
	return resp, err
}
