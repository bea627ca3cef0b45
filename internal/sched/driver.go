// Package sched decides when schedule-triggered flows fire.
//
// The Driver is the pure part: one Tick evaluates every active
// schedule-triggered flow against the current minute, with the stored
// minute key as the only duplicate-firing guard. The Service wraps a Driver
// in a minute-aligned ticker for the daemon.
package sched

import (
	"context"
	"strings"
	"time"

	"flowcron/internal/cronspec"
	"flowcron/internal/flow"
	logx "flowcron/pkg/logx"
)

// TriggeredBySchedule marks executions started by the cron driver (as
// opposed to manual or API-triggered runs).
const TriggeredBySchedule = "schedule"

// Store is the slice of the flow store the driver needs.
type Store interface {
	List(ctx context.Context, filter flow.Filter) ([]flow.Flow, error)
	SetScheduleState(ctx context.Context, id string, st flow.ScheduleState) error
}

// Executor invokes one flow execution and reports back. A non-empty
// Result.Errors is a flow-level failure; a returned error is an execution
// failure. Both are recorded the same way in schedule state.
type Executor interface {
	Execute(ctx context.Context, f flow.Flow, trigger flow.TriggerData, triggeredBy string) (flow.Result, error)
}

// Report summarizes one tick for logs.
type Report struct {
	At        time.Time
	MinuteKey string
	Evaluated int
	Skipped   int // empty/invalid/not-due cron
	Deduped   int // already fired this minute
	Completed int
	Failed    int
}

// Fired is the number of executions actually invoked this tick.
func (r Report) Fired() int { return r.Completed + r.Failed }

type Driver struct {
	store Store
	exec  Executor
	log   logx.Logger

	// now is swappable for tests; it must return a time already located in
	// the wanted timezone, since matching and minute keys use wall-clock
	// components.
	now func() time.Time
}

func NewDriver(store Store, exec Executor, log logx.Logger) *Driver {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Driver{
		store: store,
		exec:  exec,
		log:   log,
		now:   time.Now,
	}
}

// Tick evaluates all active schedule-triggered flows once.
//
// Flows are handled strictly sequentially and every per-flow failure is
// isolated: it is recorded in that flow's schedule state and the loop moves
// on. Only a store List failure (nothing to evaluate) or a cancelled context
// aborts the tick.
func (d *Driver) Tick(ctx context.Context) (Report, error) {
	now := d.now()
	nowKey := cronspec.MinuteKey(now)
	rep := Report{At: now, MinuteKey: nowKey}

	flows, err := d.store.List(ctx, flow.Filter{
		TriggerType: flow.TriggerSchedule,
		Status:      flow.StatusActive,
	})
	if err != nil {
		return rep, err
	}

	for _, f := range flows {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Evaluated++

		cron := strings.TrimSpace(f.Trigger.Cron)
		if cron == "" || !cronspec.Matches(cron, now) {
			rep.Skipped++
			continue
		}
		if f.Schedule != nil && f.Schedule.LastRunMinuteKey == nowKey {
			// Already fired this minute (overlapping or re-entrant tick).
			rep.Deduped++
			continue
		}

		trigger := flow.TriggerData{Cron: cron, RunAt: now, MinuteKey: nowKey}
		res, execErr := d.exec.Execute(ctx, f, trigger, TriggeredBySchedule)

		state := flow.ScheduleState{
			LastRunMinuteKey: nowKey,
			LastRunAt:        now,
		}
		switch {
		case execErr != nil:
			d.log.Error("flow execution failed",
				logx.String("flow", f.ID),
				logx.String("minute_key", nowKey),
				logx.Err(execErr))
			state.LastStatus = flow.RunFailed
			state.LastError = execErr.Error()
			rep.Failed++
		case len(res.Errors) > 0:
			state.LastStatus = flow.RunFailed
			state.LastError = "workflow execution returned errors"
			rep.Failed++
		default:
			state.LastStatus = flow.RunCompleted
			state.LastExecutionID = res.ExecutionID
			rep.Completed++
		}

		if err := d.store.SetScheduleState(ctx, f.ID, state); err != nil {
			// The flow may double-fire next tick; nothing better to do here.
			d.log.Error("persisting schedule state failed",
				logx.String("flow", f.ID),
				logx.Err(err))
		}
	}

	return rep, nil
}
