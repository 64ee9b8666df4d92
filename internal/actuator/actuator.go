// Package actuator is the seam between the engine and the amplifier
// hardware. The engine only ever calls SendOn/SendOff; serial and GPIO
// details stay behind the Gateway interface.
package actuator

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "ampsched/pkg/logx"
)

var (
	// ErrDeviceUnavailable marks a gateway whose hardware can't be reached.
	// Sends are best-effort; the engine logs and moves on.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrThrottled marks a send dropped by the rate guard.
	ErrThrottled = errors.New("actuation throttled")
)

// Gateway drives the amplifier. Implementations must be safe for concurrent
// use; sends are fire-and-forget and must not block past their context.
type Gateway interface {
	SendOn(ctx context.Context) error
	SendOff(ctx context.Context) error
	Close() error
}

// Config selects and tunes the backend. See config.ActuatorConfig for the
// raw file shape; this is the parsed form.
type Config struct {
	Driver string

	SerialPort string
	BaudRate   int

	GPIOPin   string
	ActiveLow bool

	RatePerSec  int
	Burst       int
	SendTimeout time.Duration
}

// Open initializes the configured gateway, wrapped in the rate guard.
func Open(cfg Config, log logx.Logger) (Gateway, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	var (
		gw  Gateway
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		gw = &nopGateway{log: log}
	case "serial":
		gw, err = openSerial(cfg, log)
	case "gpio":
		gw, err = openGPIO(cfg, log)
	default:
		return nil, errors.New("unknown actuator driver: " + cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 2
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &limited{
		next:    gw,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
		log:     log,
	}, nil
}

// limited drops sends above the configured rate and bounds each send with
// the configured timeout. A corrupted index or a tick storm must not
// translate into relay chatter, and wedged hardware must not stall the
// tick loop.
type limited struct {
	next    Gateway
	limiter *rate.Limiter
	timeout time.Duration
	log     logx.Logger
}

func (l *limited) SendOn(ctx context.Context) error {
	if !l.limiter.Allow() {
		l.log.Warn("amplifier ON dropped by rate guard")
		return ErrThrottled
	}
	ctx, cancel := l.sendContext(ctx)
	defer cancel()
	return l.next.SendOn(ctx)
}

func (l *limited) SendOff(ctx context.Context) error {
	if !l.limiter.Allow() {
		l.log.Warn("amplifier OFF dropped by rate guard")
		return ErrThrottled
	}
	ctx, cancel := l.sendContext(ctx)
	defer cancel()
	return l.next.SendOff(ctx)
}

func (l *limited) Close() error { return l.next.Close() }

// sendContext bounds a single send so stuck hardware can't hold the caller.
func (l *limited) sendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.timeout)
}

// nopGateway logs instead of actuating. Default for development boxes.
type nopGateway struct {
	log logx.Logger
}

func (g *nopGateway) SendOn(context.Context) error {
	g.log.Info("amplifier ON (no actuator configured)")
	return nil
}

func (g *nopGateway) SendOff(context.Context) error {
	g.log.Info("amplifier OFF (no actuator configured)")
	return nil
}

func (g *nopGateway) Close() error { return nil }
