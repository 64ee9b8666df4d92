package actuator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	logx "ampsched/pkg/logx"
)

type countingGateway struct {
	on  atomic.Int64
	off atomic.Int64
}

func (c *countingGateway) SendOn(context.Context) error  { c.on.Add(1); return nil }
func (c *countingGateway) SendOff(context.Context) error { c.off.Add(1); return nil }
func (c *countingGateway) Close() error                  { return nil }

func TestOpenNoneDriver(t *testing.T) {
	t.Parallel()
	gw, err := Open(Config{Driver: "none"}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer gw.Close()
	if err := gw.SendOn(context.Background()); err != nil {
		t.Fatalf("SendOn: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "smoke-signals"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestRateGuardDropsBurst(t *testing.T) {
	t.Parallel()
	inner := &countingGateway{}
	gw := &limited{
		next:    inner,
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		log:     logx.Nop(),
	}

	ctx := context.Background()
	var throttled int
	for i := 0; i < 10; i++ {
		if err := gw.SendOn(ctx); errors.Is(err, ErrThrottled) {
			throttled++
		}
	}
	if got := inner.on.Load(); got > 3 {
		t.Fatalf("rate guard let %d sends through", got)
	}
	if throttled == 0 {
		t.Fatal("expected some sends to be throttled")
	}
}

// wedgedGateway blocks until its context is cancelled, like hardware that
// accepted the write and never came back.
type wedgedGateway struct{}

func (wedgedGateway) SendOn(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (wedgedGateway) SendOff(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (wedgedGateway) Close() error { return nil }

func TestSendTimeoutUnblocksWedgedBackend(t *testing.T) {
	t.Parallel()
	gw := &limited{
		next:    wedgedGateway{},
		limiter: rate.NewLimiter(rate.Inf, 1),
		timeout: 50 * time.Millisecond,
		log:     logx.Nop(),
	}

	start := time.Now()
	err := gw.SendOn(context.Background())
	took := time.Since(start)
	if err == nil {
		t.Fatal("expected an error from the deadline")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if took > 2*time.Second {
		t.Fatalf("send blocked %v past the 50ms timeout", took)
	}
}

func TestOpenAppliesDefaultSendTimeout(t *testing.T) {
	t.Parallel()
	gw, err := Open(Config{Driver: "none"}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer gw.Close()
	lim, ok := gw.(*limited)
	if !ok {
		t.Fatalf("Open returned %T, want *limited", gw)
	}
	if lim.timeout != 2*time.Second {
		t.Fatalf("default send timeout = %v, want 2s", lim.timeout)
	}
}
