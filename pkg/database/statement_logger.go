package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stratacms/strata/internal/logger"
)

// statementLogger is the gorm logger. It counts every traced statement and,
// when tracing is on, writes the SQL through the strata logger.
type statementLogger struct {
	count atomic.Int64
	trace atomic.Bool
}

func newStatementLogger(trace bool) *statementLogger {
	l := &statementLogger{}
	l.trace.Store(trace)
	return l
}

func (l *statementLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *statementLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	logger.DebugCtx(ctx, fmt.Sprintf(msg, data...))
}

func (l *statementLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	logger.WarnCtx(ctx, fmt.Sprintf(msg, data...))
}

func (l *statementLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	logger.ErrorCtx(ctx, fmt.Sprintf(msg, data...))
}

func (l *statementLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	l.count.Add(1)

	if !l.trace.Load() || !logger.Enabled(logger.LevelDebug) {
		return
	}

	sql, rows := fc()
	args := []any{logger.SQL(sql), logger.Rows(rows), logger.DurationMs(time.Since(begin))}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		args = append(args, logger.Err(err))
	}
	logger.DebugCtx(ctx, "sql", args...)
}
