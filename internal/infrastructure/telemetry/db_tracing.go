// Package telemetry attaches OpenTelemetry instrumentation to the
// database connection the pipeline runs on.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/amws/backend/internal/infrastructure/config"
)

type contextKey int

const queryStartKey contextKey = iota

// DBTracing wires the otelgorm plugin into a GORM connection and
// annotates the resulting spans with row counts, errors and slow
// query markers.
type DBTracing struct {
	cfg    config.TracingConfig
	logger *zap.Logger
}

// NewDBTracing creates database tracing with the given configuration
func NewDBTracing(cfg config.TracingConfig, logger *zap.Logger) *DBTracing {
	return &DBTracing{cfg: cfg, logger: logger}
}

// Register attaches the tracing plugin and callbacks to db. It is a
// no-op when tracing is disabled.
func (t *DBTracing) Register(db *gorm.DB) error {
	if !t.cfg.Enabled {
		t.logger.Debug("database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(t.cfg.DBSystem),
	}
	if !t.cfg.LogFullSQL {
		// Query parameters carry customer addresses, keep them out of
		// spans unless full SQL logging is requested.
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := t.registerTiming(db); err != nil {
		return err
	}
	if err := t.registerAnnotations(db); err != nil {
		return err
	}

	t.logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", t.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", t.cfg.SlowQueryThresh))
	return nil
}

// registerTiming records the start time of every operation so the
// after callbacks can measure elapsed time.
func (t *DBTracing) registerTiming(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
		}
	}
	if err := db.Callback().Create().Before("gorm:create").Register("tracing:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("tracing:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tracing:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tracing:before_delete", before); err != nil {
		return err
	}
	return nil
}

func (t *DBTracing) registerAnnotations(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("tracing:after_create", t.annotate); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("tracing:after_query", t.annotate); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("tracing:after_update", t.annotate); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("tracing:after_delete", t.annotate); err != nil {
		return err
	}
	return nil
}

// annotate runs after each operation, on the span otelgorm opened for
// it.
func (t *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > t.cfg.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		t.logger.Warn("slow database query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed))
	}
}
