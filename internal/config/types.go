// Package config loads and watches the flowcron config file.
//
// The file is JSON or YAML (by extension); YAML is coerced to JSON so one
// strict decoder (DisallowUnknownFields) covers both formats.
package config

import "time"

type Config struct {
	Log       LogConfig       `json:"log"`
	Store     StoreConfig     `json:"store"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Exec      ExecConfig      `json:"exec"`
}

type LogConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type StoreConfig struct {
	Backend       string `json:"backend"`
	Path          string `json:"path"`
	BusyTimeoutMS int    `json:"busy_timeout_ms"`
}

type SchedulerConfig struct {
	Enabled  bool   `json:"enabled"`
	Timezone string `json:"timezone"`
	// TickSeconds overrides the one-minute cadence; meant for tests and
	// debugging only.
	TickSeconds int `json:"tick_seconds"`
}

type ExecConfig struct {
	TimeoutMS   int `json:"timeout_ms"`
	RatePerSec  int `json:"rate_per_sec"`
	HistorySize int `json:"history_size"`
}

// Default returns the baseline config the file is decoded over, so absent
// keys keep sane values.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Store: StoreConfig{
			Backend:       "sqlite",
			Path:          "./data/flows.db",
			BusyTimeoutMS: 5000,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
		Exec: ExecConfig{
			TimeoutMS:   60_000,
			HistorySize: 200,
		},
	}
}

func (c StoreConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

func (c SchedulerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

func (c ExecConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
