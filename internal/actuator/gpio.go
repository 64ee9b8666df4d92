package actuator

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	logx "ampsched/pkg/logx"
)

// gpioGateway drives a relay pin directly (typical on Pi-class boxes where
// the amplifier hangs off a relay board instead of an Arduino).
type gpioGateway struct {
	log       logx.Logger
	activeLow bool

	mu  sync.Mutex
	pin gpio.PinOut
}

var hostInitOnce sync.Once
var hostInitErr error

func openGPIO(cfg Config, log logx.Logger) (Gateway, error) {
	if cfg.GPIOPin == "" {
		return nil, fmt.Errorf("actuator.gpio.pin is required")
	}
	hostInitOnce.Do(func() { _, hostInitErr = host.Init() })
	if hostInitErr != nil {
		return nil, fmt.Errorf("%w: periph init: %v", ErrDeviceUnavailable, hostInitErr)
	}
	pin := gpioreg.ByName(cfg.GPIOPin)
	if pin == nil {
		return nil, fmt.Errorf("%w: no such pin %q", ErrDeviceUnavailable, cfg.GPIOPin)
	}
	g := &gpioGateway{log: log, activeLow: cfg.ActiveLow, pin: pin}
	// Start with the amplifier off.
	if err := g.set(false); err != nil {
		return nil, err
	}
	log.Info("gpio actuator opened", logx.String("pin", cfg.GPIOPin), logx.Bool("active_low", cfg.ActiveLow))
	return g, nil
}

func (g *gpioGateway) SendOn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return g.set(true)
}

func (g *gpioGateway) SendOff(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return g.set(false)
}

func (g *gpioGateway) set(on bool) error {
	level := gpio.Level(on != g.activeLow)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pin == nil {
		return ErrDeviceUnavailable
	}
	if err := g.pin.Out(level); err != nil {
		return fmt.Errorf("%w: pin out: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

func (g *gpioGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pin == nil {
		return nil
	}
	err := g.pin.Out(gpio.Level(g.activeLow)) // leave the relay released
	g.pin = nil
	return err
}
