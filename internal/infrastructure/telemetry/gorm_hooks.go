package telemetry

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type startTimeKey struct{ plugin string }

// registerTimedHooks installs before/after callbacks around every GORM
// processor. The before hook stamps the statement context with a start time
// that elapsedSince reads back for the same plugin.
func registerTimedHooks(db *gorm.DB, plugin string, after func(db *gorm.DB, operation string)) error {
	key := startTimeKey{plugin: plugin}
	before := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
	afterOp := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			op := operation
			if op == "" {
				op = detectOperationType(db.Statement.SQL.String())
			}
			after(db, op)
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(plugin+":before_create", before),
		cb.Query().Before("gorm:query").Register(plugin+":before_query", before),
		cb.Update().Before("gorm:update").Register(plugin+":before_update", before),
		cb.Delete().Before("gorm:delete").Register(plugin+":before_delete", before),
		cb.Row().Before("gorm:row").Register(plugin+":before_row", before),
		cb.Raw().Before("gorm:raw").Register(plugin+":before_raw", before),

		cb.Create().After("gorm:create").Register(plugin+":after_create", afterOp("INSERT")),
		cb.Query().After("gorm:query").Register(plugin+":after_query", afterOp("SELECT")),
		cb.Update().After("gorm:update").Register(plugin+":after_update", afterOp("UPDATE")),
		cb.Delete().After("gorm:delete").Register(plugin+":after_delete", afterOp("DELETE")),
		cb.Row().After("gorm:row").Register(plugin+":after_row", afterOp("")),
		cb.Raw().After("gorm:raw").Register(plugin+":after_raw", afterOp("")),
	)
}

// elapsedSince returns how long the statement has been running according to
// the start time stamped by plugin's before hook.
func elapsedSince(ctx context.Context, plugin string) (time.Duration, bool) {
	if ctx == nil {
		return 0, false
	}
	start, ok := ctx.Value(startTimeKey{plugin: plugin}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
