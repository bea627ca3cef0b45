// Package store persists automation flows and their schedule bookkeeping.
//
// Two backends are provided:
//   - "sqlite": SQLite database file (default)
//   - "memory": process-local, for tests and ephemeral runs
//
// Writes validate cron expressions strictly (cronspec.Validate); whatever is
// already stored is still evaluated with the tolerant runtime matcher.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowcron/internal/cronspec"
	"flowcron/internal/flow"
	logx "flowcron/pkg/logx"
)

var (
	ErrNotFound = errors.New("flow not found")
	ErrClosed   = errors.New("store closed")
)

// Config configures the flow store.
//
// Backend values:
//   - "sqlite" (or empty): SQLite database file at Path
//   - "memory": no persistence
type Config struct {
	Backend     string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API consumed by the scheduler driver and the host.
type Store interface {
	Create(ctx context.Context, f flow.Flow) (flow.Flow, error)
	Update(ctx context.Context, f flow.Flow) (flow.Flow, error)
	Get(ctx context.Context, id string) (flow.Flow, error)
	List(ctx context.Context, filter flow.Filter) ([]flow.Flow, error)
	SetStatus(ctx context.Context, id string, status flow.Status) error
	SetScheduleState(ctx context.Context, id string, st flow.ScheduleState) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory", "mem":
		return newMemory(), nil
	default:
		return nil, errors.New("unknown store backend: " + backend)
	}
}

// prepareCreate normalizes and validates a flow about to be inserted.
// Shared by both backends so the write-time policy lives in one place.
func prepareCreate(f flow.Flow, now time.Time) (flow.Flow, error) {
	if strings.TrimSpace(f.ID) == "" {
		f.ID = uuid.NewString()
	}
	if f.TriggerType == "" {
		f.TriggerType = flow.TriggerManual
	}
	if f.Status == "" {
		f.Status = flow.StatusActive
	}
	if err := validateFlow(f); err != nil {
		return flow.Flow{}, err
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return f, nil
}

func validateFlow(f flow.Flow) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("flow name required")
	}
	if strings.TrimSpace(f.Action) == "" {
		return fmt.Errorf("flow action required")
	}
	switch f.TriggerType {
	case flow.TriggerSchedule:
		if err := cronspec.Validate(f.Trigger.Cron); err != nil {
			return err
		}
	case flow.TriggerManual:
		// no trigger config
	default:
		return fmt.Errorf("unknown trigger type %q", f.TriggerType)
	}
	switch f.Status {
	case flow.StatusActive, flow.StatusPaused:
	default:
		return fmt.Errorf("unknown status %q", f.Status)
	}
	return nil
}
