package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jsamuelsen/certrecord/internal/domain"
)

// Op names a record mutation in a script.
type Op string

// Supported script operations.
const (
	OpAddBaccalaureate Op = "add_baccalaureate"
	OpAddBrevet        Op = "add_brevet"
	OpAddDiploma       Op = "add_diploma"
	OpRemoveDiploma    Op = "remove_diploma"
	OpSetSkillLevel    Op = "set_skill_level"
	OpClearSkillLevel  Op = "clear_skill_level"
)

var knownOps = []Op{
	OpAddBaccalaureate,
	OpAddBrevet,
	OpAddDiploma,
	OpRemoveDiploma,
	OpSetSkillLevel,
	OpClearSkillLevel,
}

// Step is one mutation in a script. Arg is the mention, diploma name or
// skill level depending on Op, and is ignored by add_brevet and
// clear_skill_level.
type Step struct {
	Op  Op
	Arg string
}

// String renders the step for logs.
func (s Step) String() string {
	if s.Arg == "" {
		return string(s.Op)
	}
	return fmt.Sprintf("%s(%q)", s.Op, s.Arg)
}

// ValidateSteps checks every step before anything is applied.
// Returns a domain validation error naming the first bad step.
func ValidateSteps(steps []Step) error {
	for i, step := range steps {
		if !slices.Contains(knownOps, step.Op) {
			return domain.NewValidationErrorWithValue(
				fmt.Sprintf("steps[%d].op", i),
				fmt.Sprintf("unknown operation %q, expected one of %v", step.Op, knownOps),
				string(step.Op),
			)
		}
	}
	return nil
}

// Apply validates steps, then runs them in order.
// Nothing is applied when validation fails.
func (e *RecordEditor) Apply(ctx context.Context, steps []Step) error {
	ctx, span := e.tracer.Start(ctx, "record.apply")
	defer span.End()

	// Step spans share this trace, so the ID is attached once here.
	ctx = e.withTraceLogger(ctx)

	span.SetAttributes(attribute.Int("record.steps", len(steps)))

	if err := ValidateSteps(steps); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid script")
		e.loggerFor(ctx).WarnContext(ctx, "rejected mutation script", slog.Any("error", err))
		return fmt.Errorf("validating script: %w", err)
	}

	for i, step := range steps {
		e.applyStep(ctx, i, step)
	}

	span.SetAttributes(attribute.Int("record.diplomas", e.record.Len()))
	e.loggerFor(ctx).InfoContext(ctx, "mutation script applied",
		slog.Int("steps", len(steps)),
		slog.Int("diplomas", e.record.Len()),
	)

	return nil
}

func (e *RecordEditor) applyStep(ctx context.Context, index int, step Step) {
	ctx, span := e.tracer.Start(ctx, "record.step")
	defer span.End()

	span.SetAttributes(
		attribute.Int("step.index", index),
		attribute.String("step.op", string(step.Op)),
	)

	e.loggerFor(ctx).DebugContext(ctx, "applying step",
		slog.Int("index", index),
		slog.String("step", step.String()),
	)

	switch step.Op {
	case OpAddBaccalaureate:
		e.AddBaccalaureate(ctx, step.Arg)
	case OpAddBrevet:
		e.AddBrevet(ctx)
	case OpAddDiploma:
		e.AddDiploma(ctx, step.Arg)
	case OpRemoveDiploma:
		span.SetAttributes(attribute.Bool("step.removed", e.RemoveDiploma(ctx, step.Arg)))
	case OpSetSkillLevel:
		e.SetSkillLevel(ctx, step.Arg)
	case OpClearSkillLevel:
		e.ClearSkillLevel(ctx)
	}
}
