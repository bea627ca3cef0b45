package exec

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowcron/internal/flow"
	logx "flowcron/pkg/logx"
)

func testFlow(action string) flow.Flow {
	return flow.Flow{
		ID:          "f1",
		Name:        "test",
		TriggerType: flow.TriggerSchedule,
		Status:      flow.StatusActive,
		Action:      action,
	}
}

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()
	e := New(Config{HistorySize: 10}, logx.Nop())

	var got Invocation
	if err := e.Register("ok", func(_ context.Context, inv Invocation) error {
		got = inv
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	trigger := flow.TriggerData{Cron: "* * * * *", MinuteKey: "2026-08-29T14:30"}
	res, err := e.Execute(context.Background(), testFlow("ok"), trigger, "schedule")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExecutionID == "" {
		t.Fatal("Execute must mint an execution ID")
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if got.ExecutionID != res.ExecutionID {
		t.Fatalf("invocation execution ID %q != result %q", got.ExecutionID, res.ExecutionID)
	}
	if got.Trigger.MinuteKey != "2026-08-29T14:30" || got.TriggeredBy != "schedule" {
		t.Fatalf("trigger metadata not propagated: %+v", got)
	}

	hist := e.History()
	if len(hist) != 1 || hist[0].Error != "" || hist[0].FlowID != "f1" {
		t.Fatalf("history = %+v", hist)
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	t.Parallel()
	e := New(Config{}, logx.Nop())

	res, err := e.Execute(context.Background(), testFlow("missing"), flow.TriggerData{}, "schedule")
	if err != nil {
		t.Fatalf("unknown action must use the non-exceptional channel, got err: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want one entry", res.Errors)
	}
	if res.ExecutionID == "" {
		t.Fatal("execution ID expected even for unknown action")
	}
}

func TestExecuteReportedErrors(t *testing.T) {
	t.Parallel()
	e := New(Config{}, logx.Nop())
	if err := e.Register("flaky", func(context.Context, Invocation) error {
		return ReportedErrors{"step 1 failed", "step 3 failed"}
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := e.Execute(context.Background(), testFlow("flaky"), flow.TriggerData{}, "schedule")
	if err != nil {
		t.Fatalf("reported errors must not surface as execution error: %v", err)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("Errors = %v, want two entries", res.Errors)
	}
}

func TestExecuteActionError(t *testing.T) {
	t.Parallel()
	e := New(Config{}, logx.Nop())
	boom := errors.New("db timeout")
	if err := e.Register("bad", func(context.Context, Invocation) error {
		return boom
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := e.Execute(context.Background(), testFlow("bad"), flow.TriggerData{}, "schedule")
	if !errors.Is(err, boom) {
		t.Fatalf("Execute err = %v, want %v", err, boom)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	t.Parallel()
	e := New(Config{}, logx.Nop())
	if err := e.Register("panicky", func(context.Context, Invocation) error {
		panic("boom")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := e.Execute(context.Background(), testFlow("panicky"), flow.TriggerData{}, "schedule")
	if err == nil {
		t.Fatal("expected panic to surface as execution error")
	}
}

func TestExecuteTimeout(t *testing.T) {
	t.Parallel()
	e := New(Config{Timeout: 20 * time.Millisecond}, logx.Nop())
	if err := e.Register("slow", func(ctx context.Context, _ Invocation) error {
		<-ctx.Done()
		return ctx.Err()
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := e.Execute(context.Background(), testFlow("slow"), flow.TriggerData{}, "schedule")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Execute err = %v, want deadline exceeded", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()
	e := New(Config{}, logx.Nop())
	fn := func(context.Context, Invocation) error { return nil }
	if err := e.Register("dup", fn); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := e.Register("dup", fn); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestHistoryBounded(t *testing.T) {
	t.Parallel()
	e := New(Config{HistorySize: 3}, logx.Nop())
	if err := e.Register("ok", func(context.Context, Invocation) error { return nil }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := e.Execute(context.Background(), testFlow("ok"), flow.TriggerData{}, "manual"); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if got := len(e.History()); got != 3 {
		t.Fatalf("history length = %d, want 3", got)
	}
}
