package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/autopeer-io/picar/internal/car"
	grpcmw "github.com/autopeer-io/picar/internal/pkg/middleware/grpc"
)

// Client talks to a running agent over picar.v1.Vehicle.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr. Unary calls without a deadline are bounded by
// timeout.
func Dial(addr string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpcmw.WithUnaryTimeout(timeout)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Info(ctx context.Context) (car.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodInfo, &emptypb.Empty{}, out); err != nil {
		return car.Snapshot{}, err
	}
	return StructToSnapshot(out)
}

func (c *Client) DoAction(ctx context.Context, name string) error {
	return c.conn.Invoke(ctx, methodDoAction, wrapperspb.String(name), new(emptypb.Empty))
}

// Watch calls fn with every snapshot the agent streams until ctx is done,
// the stream ends or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(car.Snapshot) error) error {
	cs, err := c.conn.NewStream(ctx, &VehicleServiceDesc.Streams[0], methodWatch)
	if err != nil {
		return err
	}
	stream := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: cs}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		st, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		snap, err := StructToSnapshot(st)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}
