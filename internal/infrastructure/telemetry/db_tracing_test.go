package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type telemetryTestRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&telemetryTestRow{}))
	return db
}

func setupSpanRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.NotNil(t, p.logger)
}

func TestDBTracingPlugin_RegisterOtelGorm(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		p := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())

		require.NoError(t, p.RegisterOtelGorm(db))
		assert.Nil(t, db.Callback().Query().Get(dbTracingPlugin+":after_query"))
	})

	t.Run("enabled registers callbacks", func(t *testing.T) {
		db := setupTestDB(t)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())

		require.NoError(t, p.RegisterOtelGorm(db))
		assert.NotNil(t, db.Callback().Query().Get(dbTracingPlugin+":after_query"))
		assert.NotNil(t, db.Callback().Raw().Get(dbTracingPlugin+":before_raw"))
	})
}

func TestDBTracingPlugin_EmitsQuerySpans(t *testing.T) {
	tp, sr := setupSpanRecorder(t)
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	db := setupTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, p.RegisterOtelGorm(db))

	require.NoError(t, db.WithContext(context.Background()).Create(&telemetryTestRow{Name: "a"}).Error)

	assert.NotEmpty(t, sr.Ended())
}

func TestDBTracingPlugin_Annotate(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&telemetryTestRow{Name: "seed"}).Error)

	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 10 * time.Millisecond}, zap.NewNop())

	t.Run("slow query is marked", func(t *testing.T) {
		tp, sr := setupSpanRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "slow")
		ctx = context.WithValue(ctx, startTimeKey{plugin: dbTracingPlugin}, time.Now().Add(-time.Second))

		var rows []telemetryTestRow
		tx := db.WithContext(ctx).Find(&rows)
		p.annotate(tx, "SELECT")
		span.End()

		ended := sr.Ended()
		require.Len(t, ended, 1)
		slow, ok := attrValue(ended[0].Attributes(), "db.slow_query")
		require.True(t, ok)
		assert.True(t, slow.AsBool())
		table, ok := attrValue(ended[0].Attributes(), "db.sql.table")
		require.True(t, ok)
		assert.Equal(t, "telemetry_test_rows", table.AsString())

		require.Len(t, ended[0].Events(), 1)
		assert.Equal(t, "slow_query_warning", ended[0].Events()[0].Name)
	})

	t.Run("fast query is not marked", func(t *testing.T) {
		tp, sr := setupSpanRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "fast")
		ctx = context.WithValue(ctx, startTimeKey{plugin: dbTracingPlugin}, time.Now())

		var rows []telemetryTestRow
		tx := db.WithContext(ctx).Find(&rows)
		p.annotate(tx, "SELECT")
		span.End()

		_, ok := attrValue(sr.Ended()[0].Attributes(), "db.slow_query")
		assert.False(t, ok)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		tp, sr := setupSpanRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "missing")

		var row telemetryTestRow
		tx := db.WithContext(ctx).First(&row, 99999)
		require.ErrorIs(t, tx.Error, gorm.ErrRecordNotFound)
		p.annotate(tx, "SELECT")
		span.End()

		assert.NotEqual(t, codes.Error, sr.Ended()[0].Status().Code)
	})

	t.Run("statement error marks the span", func(t *testing.T) {
		tp, sr := setupSpanRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "broken")

		tx := db.WithContext(ctx).Exec("SELECT * FROM no_such_table")
		require.Error(t, tx.Error)
		p.annotate(tx, "SELECT")
		span.End()

		assert.Equal(t, codes.Error, sr.Ended()[0].Status().Code)
	})

	t.Run("non-recording span is ignored", func(t *testing.T) {
		var rows []telemetryTestRow
		tx := db.WithContext(context.Background()).Find(&rows)
		assert.NotPanics(t, func() { p.annotate(tx, "SELECT") })
	})
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM stores":                 "SELECT",
		"  insert into stores values (1)":      "INSERT",
		"UPDATE user_quotas SET version = 2":   "UPDATE",
		"delete from sync_previews":            "DELETE",
		"WITH x AS (SELECT 1) SELECT * FROM x": "SELECT",
		"CREATE TABLE t (id int)":              "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, detectOperationType(sql), sql)
	}
}
