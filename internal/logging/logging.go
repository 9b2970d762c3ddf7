// Package logging sets up the leveled, colorized stderr logger shared by
// every package and cmd/ binary in this module.
package logging

import (
	"os"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} %{level:.4s} ▶%{color:reset} %{message}`,
)

var initialized = false

// MustGetLogger returns a logger for module, wiring up the shared backend on
// first call.
func MustGetLogger(module string) *logging.Logger {
	if !initialized {
		setup()
		initialized = true
	}
	return logging.MustGetLogger(module)
}

// setup configures the process-wide backend once: stderr, colorized,
// leveled by PSI_LOG_LEVEL (default NOTICE).
func setup() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, stderrFormat)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(levelFromEnv(), "")
	logging.SetBackend(leveled)
}

func levelFromEnv() logging.Level {
	switch os.Getenv("PSI_LOG_LEVEL") {
	case "CRITICAL":
		return logging.CRITICAL
	case "ERROR":
		return logging.ERROR
	case "WARNING":
		return logging.WARNING
	case "INFO":
		return logging.INFO
	case "DEBUG":
		return logging.DEBUG
	default:
		return logging.NOTICE
	}
}
