package bot

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spigell/fl-bidder/internal/logger"
	"github.com/spigell/fl-bidder/internal/store"
)

// activity writes an entry to the session log and to the recorder.
// Recorder failures are only logged.
func (l *Loop) activity(ctx context.Context, level, message string, projectID int64, data map[string]any) {
	fields := make([]zap.Field, 0, len(data)+1)
	if projectID != 0 {
		fields = append(fields, logger.Project(projectID))
	}
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	if ce := l.log.Check(zapLevel(level), message); ce != nil {
		ce.Write(fields...)
	}

	if l.deps.Recorder == nil {
		return
	}

	err := l.deps.Recorder.LogActivity(ctx, store.ActivityEntry{
		SessionID: l.ID(),
		Time:      l.now(),
		Level:     level,
		Message:   message,
		ProjectID: projectID,
		Data:      data,
	})
	if err != nil {
		l.log.Warn("recording activity failed", zap.Error(err))
	}
}

func (l *Loop) persistSession(ctx context.Context) {
	if l.deps.Recorder == nil {
		return
	}

	if err := l.deps.Recorder.SaveSession(ctx, l.State().record(configurationJSON(l.settings))); err != nil {
		l.log.Warn("saving session failed", zap.Error(err))
	}
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case store.LevelError:
		return zapcore.ErrorLevel
	case store.LevelWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
