package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
)

func TestWithUnaryTimeout(t *testing.T) {
	var got time.Duration
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		dl, ok := ctx.Deadline()
		if !ok {
			t.Fatal("no deadline set")
		}
		got = time.Until(dl)
		return nil
	}

	if err := WithUnaryTimeout(time.Second)(context.Background(), "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if got <= 0 || got > time.Second {
		t.Errorf("deadline in %v, want within 1s", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	if err := UnaryTimeoutInterceptor(ctx, "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if got < time.Minute {
		t.Errorf("caller deadline overridden: %v", got)
	}
}
