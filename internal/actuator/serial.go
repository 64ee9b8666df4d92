package actuator

import (
	"context"
	"fmt"
	"sync"

	"go.bug.st/serial"

	logx "ampsched/pkg/logx"
)

// serialGateway speaks the Arduino relay protocol: a single line per
// command, "1" for ON and "0" for OFF.
//
// Writes are serialized through sem rather than a mutex so a caller whose
// deadline expires can walk away; the in-flight write keeps the slot until
// it actually finishes. Close bypasses the slot on purpose, since closing
// the port is what unwedges a stuck write.
type serialGateway struct {
	log logx.Logger
	sem chan struct{}

	mu   sync.Mutex // guards the port field, not the writes
	port serial.Port
}

func openSerial(cfg Config, log logx.Logger) (Gateway, error) {
	if cfg.SerialPort == "" {
		return nil, fmt.Errorf("actuator.serial.port is required")
	}
	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	port, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, cfg.SerialPort, err)
	}
	log.Info("serial actuator opened", logx.String("port", cfg.SerialPort), logx.Int("baud", cfg.BaudRate))
	return &serialGateway{log: log, sem: make(chan struct{}, 1), port: port}, nil
}

func (g *serialGateway) SendOn(ctx context.Context) error  { return g.write(ctx, "1\n") }
func (g *serialGateway) SendOff(ctx context.Context) error { return g.write(ctx, "0\n") }

func (g *serialGateway) write(ctx context.Context, line string) error {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: busy: %v", ErrDeviceUnavailable, ctx.Err())
	}

	g.mu.Lock()
	port := g.port
	g.mu.Unlock()
	if port == nil {
		<-g.sem
		return ErrDeviceUnavailable
	}

	done := make(chan error, 1)
	go func() {
		_, err := port.Write([]byte(line))
		done <- err
		<-g.sem
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: write: %v", ErrDeviceUnavailable, err)
		}
		return nil
	case <-ctx.Done():
		g.log.Warn("serial write abandoned at deadline")
		return fmt.Errorf("%w: write: %v", ErrDeviceUnavailable, ctx.Err())
	}
}

func (g *serialGateway) Close() error {
	g.mu.Lock()
	port := g.port
	g.port = nil
	g.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}
