package common

import "log/slog"

// SlogResetLevel sets the default logger level and returns a function restoring the previous one.
// Pairs well with defer, or TestMain:
//
//	defer common.SlogResetLevel(slog.LevelWarn + 1)()
func SlogResetLevel(level slog.Level) (reset func()) {
	oldLevel := slog.SetLogLoggerLevel(level)
	return func() {
		slog.SetLogLoggerLevel(oldLevel)
	}
}
