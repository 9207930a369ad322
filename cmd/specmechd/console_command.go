package main

import (
	"github.com/stlalpha/specmech/internal/bus"
	"github.com/stlalpha/specmech/internal/logging"
)

// consoleCommand is a bus.Command that writes to the daemon's own log
// instead of a real operator channel. It stands in until specmechd is
// wired into an actor process that owns the real command bus.
type consoleCommand struct{}

func (consoleCommand) Debug(format string, args ...any)   { logging.Debug(format, args...) }
func (consoleCommand) Info(format string, args ...any)    { logging.Info(format, args...) }
func (consoleCommand) Warning(format string, args ...any) { logging.Warn(format, args...) }
func (consoleCommand) Error(format string, args ...any)   { logging.Error(format, args...) }
func (consoleCommand) Fail(format string, args ...any)    { logging.Error(format, args...) }
func (consoleCommand) Finish(format string, args ...any)  { logging.Info(format, args...) }

func (consoleCommand) Keyword(severity bus.Severity, key string, value any) {
	logging.Info("%s=%v", key, value)
}

func (consoleCommand) SendCommand(target, text string) error {
	logging.Debug("SendCommand(%s, %q) is a no-op outside an actor process", target, text)
	return nil
}
