package engine

import "log/slog"

// LoggingObserver writes every run event to structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer; nil uses the default logger
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Debug("pipeline_lifecycle",
		slog.String("event", string(event.Type)),
		slog.String("run_id", event.RunID),
		slog.Int("step", event.Step),
		slog.Time("timestamp", event.Timestamp),
		slog.Any("data", event.Data),
	)
}
