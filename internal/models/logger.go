package models

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gorm_logger "gorm.io/gorm/logger"
)

// slowQuery is the duration after which a query is logged as a warning.
const slowQuery = 200 * time.Millisecond

// logger writes gorm's log output to zerolog.
type logger struct {
	Logger zerolog.Logger
	Level  gorm_logger.LogLevel
}

func newLogger(l zerolog.Logger) *logger {
	return &logger{
		Logger: l.With().Str("component", "database").Logger(),
		Level:  gorm_logger.Warn,
	}
}

func (l *logger) LogMode(level gorm_logger.LogLevel) gorm_logger.Interface {
	return &logger{
		Logger: l.Logger,
		Level:  level,
	}
}

func (l *logger) Info(_ context.Context, s string, args ...any) {
	if l.Level >= gorm_logger.Info {
		l.Logger.Info().Msgf(s, args...)
	}
}

func (l *logger) Warn(_ context.Context, s string, args ...any) {
	if l.Level >= gorm_logger.Warn {
		l.Logger.Warn().Msgf(s, args...)
	}
}

func (l *logger) Error(_ context.Context, s string, args ...any) {
	if l.Level >= gorm_logger.Error {
		l.Logger.Error().Msgf(s, args...)
	}
}

// Trace logs every statement at debug level. Failed statements are errors
// unless nothing was found, which is an expected outcome for lookups.
func (l *logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level == gorm_logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	event := func(e *zerolog.Event) *zerolog.Event {
		return e.Str("sql", sql).Int64("rows", rows).Dur("duration", elapsed)
	}

	switch {
	case err != nil && !errors.Is(err, ErrResourceNotFound) && !errors.Is(err, gorm_logger.ErrRecordNotFound):
		event(l.Logger.Error().Err(err)).Msg("query failed")
	case elapsed > slowQuery:
		event(l.Logger.Warn()).Msg("slow query")
	default:
		event(l.Logger.Debug()).Msg("query")
	}
}
