// Package actions holds the built-in flow actions. Hosts embedding flowcron
// as a library register their own via exec.Engine.Register; the daemon ships
// these few so a fresh install has something to schedule.
package actions

import (
	"context"
	"fmt"

	"flowcron/internal/exec"
	logx "flowcron/pkg/logx"
)

// RegisterBuiltins installs the built-in actions on the engine.
func RegisterBuiltins(e *exec.Engine) error {
	if err := e.Register("noop", Noop); err != nil {
		return err
	}
	if err := e.Register("log.message", LogMessage); err != nil {
		return err
	}
	return nil
}

// Noop does nothing; useful for testing schedules end to end.
func Noop(context.Context, exec.Invocation) error { return nil }

// LogMessage writes the flow's "message" param to the log.
func LogMessage(_ context.Context, inv exec.Invocation) error {
	msg, _ := inv.Flow.Params["message"].(string)
	if msg == "" {
		return exec.ReportedErrors{fmt.Sprintf("flow %s: missing string param %q", inv.Flow.ID, "message")}
	}
	inv.Log.Info(msg,
		logx.String("flow_name", inv.Flow.Name),
		logx.String("minute_key", inv.Trigger.MinuteKey))
	return nil
}
