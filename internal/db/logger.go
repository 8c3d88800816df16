package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends gorm's query log to zap.
type gormLogger struct {
	log   *zap.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger adapts a zap logger to gorm. Record-not-found is not logged
// as an error; queries slower than 200ms are logged at warn.
func NewGormLogger(log *zap.Logger, level logger.LogLevel) logger.Interface {
	if log == nil {
		log = zap.NewNop()
	}
	return &gormLogger{log: log.Named("gorm"), level: level, slow: slowQueryThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.log.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error("query failed", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > l.slow && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warn("slow query", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.Debug("query", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	}
}
