package history

import (
	"context"
	"errors"
	"strings"

	logx "ampsched/pkg/logx"
)

// Store is the minimal trigger-log API used by the engine.
type Store interface {
	AppendTrigger(ctx context.Context, e TriggerEntry) error
	RecentTriggers(ctx context.Context, limit int) ([]TriggerEntry, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + cfg.Driver)
	}
}
