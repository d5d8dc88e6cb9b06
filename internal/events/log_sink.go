package events

import (
	"context"

	zap "go.uber.org/zap"
	zapcore "go.uber.org/zap/zapcore"
)

// LogSink writes events as structured log entries
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink writing to l
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) Name() string { return "log" }

// Handle logs e at a level matching its type
func (s *LogSink) Handle(ctx context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("event", string(e.Type)),
		zap.String("run_id", e.RunID),
	}
	if e.Phase != "" {
		fields = append(fields, zap.String("phase", e.Phase))
	}
	if e.Cycle > 0 {
		fields = append(fields, zap.Int("cycle", e.Cycle))
	}
	if e.Iteration > 0 {
		fields = append(fields, zap.Int("iteration", e.Iteration))
	}
	if e.Poll != "" {
		fields = append(fields, zap.String("poll", e.Poll))
	}
	if e.Outcome != "" {
		fields = append(fields, zap.String("outcome", e.Outcome))
	}
	if e.Reading != nil {
		fields = append(fields,
			zap.String("region", e.Reading.Region),
			zap.String("text", e.Reading.Text),
			zap.Bool("has_pair", e.Reading.HasPair),
		)
		if e.Reading.HasPair {
			fields = append(fields, zap.Stringer("pair", e.Reading.Pair))
		}
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}

	if ce := s.log.Check(levelFor(e.Type), msg); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

func levelFor(t Type) zapcore.Level {
	switch t {
	case TypePoll, TypeDispatched:
		return zapcore.DebugLevel
	case TypeGateFailed:
		return zapcore.WarnLevel
	case TypeFatal:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
