package clog

import "log/slog"

// HTTPStatusToLevel maps a response status to the level the access log is
// written at. Client disconnects (499) are not warnings.
func HTTPStatusToLevel(status int) slog.Level {
	switch {
	case status == 499:
		return slog.LevelInfo
	case status >= 100 && status < 400:
		return slog.LevelInfo
	case status >= 400 && status < 500:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
