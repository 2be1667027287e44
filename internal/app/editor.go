// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture: it drives the domain
// record and reports what happened through ports.
//
// Application Layer Responsibilities:
//   - Run mutation scripts against a record
//   - Coordinate cross-cutting concerns (logging, tracing, metrics)
//
// What does NOT belong here:
//   - Record invariants (that's the domain layer)
//   - Output encodings or Prometheus types (that's adapters and platform)
package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/certrecord/internal/domain"
	"github.com/jsamuelsen/certrecord/internal/platform/logging"
	"github.com/jsamuelsen/certrecord/internal/ports"
)

// RecordEditor applies mutations to a record and reports each outcome.
// It never changes the record's own semantics: every call delegates to the
// matching domain method.
//
// Example usage:
//
//	rec := domain.NewRecord(domain.RecordParams{HoldsCNIL: true})
//	editor := app.NewRecordEditor(rec, &app.EditorConfig{Observer: recorder})
//	editor.AddBrevet(ctx)
type RecordEditor struct {
	record   *domain.Record
	observer ports.MutationObserver
	tracer   trace.Tracer
	logger   *slog.Logger
}

// EditorConfig holds optional collaborators for the editor.
type EditorConfig struct {
	Observer ports.MutationObserver
	Tracer   trace.Tracer
	Logger   *slog.Logger
}

// NewRecordEditor creates an editor for record.
// Nil collaborators fall back to a noop observer, the global tracer and the
// default logger.
func NewRecordEditor(record *domain.Record, cfg *EditorConfig) *RecordEditor {
	e := &RecordEditor{
		record:   record,
		observer: ports.NoopObserver{},
		tracer:   otel.Tracer("github.com/jsamuelsen/certrecord/app"),
		logger:   slog.Default(),
	}

	if cfg != nil {
		if cfg.Observer != nil {
			e.observer = cfg.Observer
		}
		if cfg.Tracer != nil {
			e.tracer = cfg.Tracer
		}
		if cfg.Logger != nil {
			e.logger = cfg.Logger
		}
	}

	return e
}

// Record returns the edited record.
func (e *RecordEditor) Record() *domain.Record { return e.record }

// AddBaccalaureate adds the baccalaureate with an optional mention.
func (e *RecordEditor) AddBaccalaureate(ctx context.Context, mention string) {
	name := domain.BaccalaureateNameWithMention(mention)
	e.add(ctx, ports.DiplomaKindBaccalaureate, name, func() { e.record.AddBaccalaureate(mention) })
}

// AddBrevet adds the brevet des colleges.
func (e *RecordEditor) AddBrevet(ctx context.Context) {
	e.add(ctx, ports.DiplomaKindBrevet, domain.BrevetName, e.record.AddBrevet)
}

// AddDiploma adds a diploma by name.
func (e *RecordEditor) AddDiploma(ctx context.Context, name string) {
	e.add(ctx, ports.DiplomaKindGeneric, name, func() { e.record.AddDiploma(name) })
}

// RemoveDiploma removes a diploma and reports whether it was present.
func (e *RecordEditor) RemoveDiploma(ctx context.Context, name string) bool {
	logger := e.loggerFor(ctx)

	removed := e.record.RemoveDiploma(name)
	e.observer.DiplomaRemoved(removed)

	if removed {
		logger.InfoContext(ctx, "diploma removed", slog.String("diploma", name))
	} else {
		logger.DebugContext(ctx, "diploma not present, nothing removed", slog.String("diploma", name))
	}

	return removed
}

// SetSkillLevel replaces the skill level.
func (e *RecordEditor) SetSkillLevel(ctx context.Context, level string) {
	e.record.SetSkillLevel(level)
	e.observer.SkillLevelChanged(false)

	e.loggerFor(ctx).InfoContext(ctx, "skill level set", slog.String("skill_level", level))
}

// ClearSkillLevel unsets the skill level.
func (e *RecordEditor) ClearSkillLevel(ctx context.Context) {
	e.record.ClearSkillLevel()
	e.observer.SkillLevelChanged(true)

	e.loggerFor(ctx).InfoContext(ctx, "skill level cleared")
}

// add classifies the outcome from the state before the mutation, then
// delegates to the domain method.
func (e *RecordEditor) add(ctx context.Context, kind ports.DiplomaKind, name string, mutate func()) {
	logger := e.loggerFor(ctx).With(slog.String("kind", string(kind)))

	var reason ports.SkipReason
	switch {
	case name == "":
		reason = ports.SkipReasonEmpty
	case e.record.HasDiploma(name):
		reason = ports.SkipReasonDuplicate
	}

	mutate()

	if reason != "" {
		e.observer.DiplomaSkipped(kind, reason)
		logger.DebugContext(ctx, "diploma not added",
			slog.String("diploma", name),
			slog.String("reason", string(reason)),
		)
		return
	}

	e.observer.DiplomaAdded(kind)
	logger.InfoContext(ctx, "diploma added",
		slog.String("diploma", name),
		slog.Int("count", e.record.Len()),
	)
}

// loggerFor prefers a logger carried by ctx (it may hold a run or trace ID).
func (e *RecordEditor) loggerFor(ctx context.Context) *slog.Logger {
	return e.baseLogger(ctx).With(slog.String("component", "app.RecordEditor"))
}

func (e *RecordEditor) baseLogger(ctx context.Context) *slog.Logger {
	if logger, ok := logging.LoggerFromContext(ctx); ok {
		return logger
	}
	return e.logger
}

// withTraceLogger stores the editor's logger in ctx, tagged with the trace ID
// of the active span.
func (e *RecordEditor) withTraceLogger(ctx context.Context) context.Context {
	return logging.WithTraceID(logging.WithContext(ctx, e.baseLogger(ctx)))
}
