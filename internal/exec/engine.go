// Package exec runs flow actions. It is the execution-invoker side of the
// scheduler: the driver decides WHEN a flow fires, this engine decides HOW.
package exec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"flowcron/internal/flow"
	logx "flowcron/pkg/logx"
)

type Config struct {
	Timeout     time.Duration // per-run cap; 0 disables
	RatePerSec  int           // global execution rate; 0 = unlimited
	HistorySize int
}

// Invocation is everything an action receives about one execution.
type Invocation struct {
	ExecutionID string
	Flow        flow.Flow
	Trigger     flow.TriggerData
	TriggeredBy string
	Log         logx.Logger
}

// ActionFunc implements one named action. A returned error is the
// exceptional channel; return ReportedErrors to fail the flow without
// tripping it.
type ActionFunc func(ctx context.Context, inv Invocation) error

// ReportedErrors carries flow-level failures back through Result.Errors
// instead of the exceptional error channel.
type ReportedErrors []string

func (e ReportedErrors) Error() string {
	return "flow reported errors: " + strings.Join(e, "; ")
}

type HistoryItem struct {
	ExecutionID string
	FlowID      string
	Action      string
	TriggeredBy string
	Started     time.Time
	Duration    time.Duration
	Error       string
}

// Engine dispatches executions to registered actions with a per-run timeout,
// a global rate limit and a bounded history ring.
type Engine struct {
	log logx.Logger
	cfg Config

	mu      sync.RWMutex
	actions map[string]ActionFunc

	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	e := &Engine{
		log:     log,
		cfg:     cfg,
		actions: map[string]ActionFunc{},
	}
	if cfg.RatePerSec > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return e
}

// Register installs an action under its name. Registering the same name
// twice is a programming error.
func (e *Engine) Register(name string, fn ActionFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("action name required")
	}
	if fn == nil {
		return errors.New("action func required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.actions[name]; exists {
		return fmt.Errorf("action %q already registered", name)
	}
	e.actions[name] = fn
	return nil
}

// Actions returns the registered action names (for logs and diagnostics).
func (e *Engine) Actions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.actions))
	for name := range e.actions {
		out = append(out, name)
	}
	return out
}

// Execute runs one flow. The two failure channels mirror the driver's
// contract: Result.Errors for flow-reported failures (including an unknown
// action), a returned error for execution failures (action error, panic,
// cancelled context).
func (e *Engine) Execute(ctx context.Context, f flow.Flow, trigger flow.TriggerData, triggeredBy string) (flow.Result, error) {
	id := uuid.NewString()
	start := time.Now()

	e.mu.RLock()
	fn, ok := e.actions[f.Action]
	e.mu.RUnlock()
	if !ok {
		msg := fmt.Sprintf("unknown action %q", f.Action)
		e.record(HistoryItem{ExecutionID: id, FlowID: f.ID, Action: f.Action, TriggeredBy: triggeredBy, Started: start, Error: msg})
		return flow.Result{ExecutionID: id, Errors: []string{msg}}, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return flow.Result{ExecutionID: id}, err
		}
	}

	runCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	inv := Invocation{
		ExecutionID: id,
		Flow:        f,
		Trigger:     trigger,
		TriggeredBy: triggeredBy,
		Log:         e.log.With(logx.String("flow", f.ID), logx.String("exec", id)),
	}
	err := runAction(runCtx, fn, inv)

	item := HistoryItem{
		ExecutionID: id,
		FlowID:      f.ID,
		Action:      f.Action,
		TriggeredBy: triggeredBy,
		Started:     start,
		Duration:    time.Since(start),
	}

	var reported ReportedErrors
	if errors.As(err, &reported) {
		item.Error = reported.Error()
		e.record(item)
		return flow.Result{ExecutionID: id, Errors: reported}, nil
	}
	if err != nil {
		item.Error = err.Error()
		e.record(item)
		return flow.Result{ExecutionID: id}, err
	}
	e.record(item)
	return flow.Result{ExecutionID: id}, nil
}

func runAction(ctx context.Context, fn ActionFunc, inv Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return fn(ctx, inv)
}

func (e *Engine) record(item HistoryItem) {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	e.history = append(e.history, item)
	if e.cfg.HistorySize > 0 && len(e.history) > e.cfg.HistorySize {
		e.history = e.history[len(e.history)-e.cfg.HistorySize:]
	}
}

// History returns a snapshot of recent executions, oldest first.
func (e *Engine) History() []HistoryItem {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	out := make([]HistoryItem, len(e.history))
	copy(out, e.history)
	return out
}
