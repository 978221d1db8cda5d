package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// maxLoggedSQL caps how much of a statement lands in a log line; the
// middle is elided. Batch vector updates otherwise dominate debug logs.
const maxLoggedSQL = 200

// gormLogAdapter routes GORM's logger.Interface onto slog. SQL tracing
// goes to Debug, so the formatting callback never runs unless the
// configured level allows it.
type gormLogAdapter struct{}

// LogMode is a no-op; slog owns level filtering.
func (l gormLogAdapter) LogMode(logger.LogLevel) logger.Interface { return l }

func (l gormLogAdapter) Info(_ context.Context, msg string, args ...any) {
	slog.Info(fmt.Sprintf(msg, args...))
}

func (l gormLogAdapter) Warn(_ context.Context, msg string, args ...any) {
	slog.Warn(fmt.Sprintf(msg, args...))
}

func (l gormLogAdapter) Error(_ context.Context, msg string, args ...any) {
	slog.Error(fmt.Sprintf(msg, args...))
}

// Trace runs after every SQL operation. ErrRecordNotFound is the normal
// "no rows" outcome of First() and is treated like a successful query.
func (l gormLogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		slog.Error("query failed",
			"sql", elideSQL(sql),
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	slog.Debug("query",
		"sql", elideSQL(sql),
		"rows", rows,
		"duration", elapsed,
	)
}

func elideSQL(sql string) string {
	if len(sql) <= maxLoggedSQL {
		return sql
	}
	half := (maxLoggedSQL - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}
