package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/certrecord/internal/domain"
	"github.com/jsamuelsen/certrecord/internal/platform/logging"
	"github.com/jsamuelsen/certrecord/internal/ports"
)

// recordingObserver implements ports.MutationObserver for testing.
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) DiplomaAdded(kind ports.DiplomaKind) {
	r.events = append(r.events, "added:"+string(kind))
}

func (r *recordingObserver) DiplomaSkipped(kind ports.DiplomaKind, reason ports.SkipReason) {
	r.events = append(r.events, "skipped:"+string(kind)+":"+string(reason))
}

func (r *recordingObserver) DiplomaRemoved(found bool) {
	if found {
		r.events = append(r.events, "removed")
		return
	}
	r.events = append(r.events, "absent")
}

func (r *recordingObserver) SkillLevelChanged(cleared bool) {
	if cleared {
		r.events = append(r.events, "skill:cleared")
		return
	}
	r.events = append(r.events, "skill:set")
}

func newTestEditor(record *domain.Record) (*RecordEditor, *recordingObserver, *bytes.Buffer) {
	observer := &recordingObserver{}
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	editor := NewRecordEditor(record, &EditorConfig{Observer: observer, Logger: logger})
	return editor, observer, buf
}

func TestNewRecordEditor_NilConfig(t *testing.T) {
	r := domain.NewRecord(domain.RecordParams{})
	editor := NewRecordEditor(r, nil)

	require.NotNil(t, editor)
	assert.Same(t, r, editor.Record())

	// Defaults must be usable without panicking.
	editor.AddBrevet(context.Background())
	assert.Equal(t, []string{domain.BrevetName}, r.Diplomas())
}

func TestRecordEditor_AddOutcomes(t *testing.T) {
	r := domain.NewRecord(domain.RecordParams{})
	editor, observer, _ := newTestEditor(r)
	ctx := context.Background()

	editor.AddBaccalaureate(ctx, "")
	editor.AddBaccalaureate(ctx, "Bien")
	editor.AddBaccalaureate(ctx, "Bien")
	editor.AddBrevet(ctx)
	editor.AddBrevet(ctx)
	editor.AddDiploma(ctx, "")
	editor.AddDiploma(ctx, "Master")

	assert.Equal(t, []string{
		"added:baccalaureate",
		"added:baccalaureate",
		"skipped:baccalaureate:duplicate",
		"added:brevet",
		"skipped:brevet:duplicate",
		"skipped:generic:empty",
		"added:generic",
	}, observer.events)

	assert.Equal(t, []string{
		"Baccalaureate",
		"Baccalaureate (Bien)",
		domain.BrevetName,
		"Master",
	}, r.Diplomas())
}

func TestRecordEditor_RemoveDiploma(t *testing.T) {
	r := domain.NewRecord(domain.RecordParams{Diplomas: []string{"Licence", "Master"}})
	editor, observer, _ := newTestEditor(r)
	ctx := context.Background()

	assert.False(t, editor.RemoveDiploma(ctx, "Doctorat"))
	assert.True(t, editor.RemoveDiploma(ctx, "Licence"))
	assert.False(t, editor.RemoveDiploma(ctx, "Licence"))

	assert.Equal(t, []string{"absent", "removed", "absent"}, observer.events)
	assert.Equal(t, []string{"Master"}, r.Diplomas())
}

func TestRecordEditor_SkillLevel(t *testing.T) {
	r := domain.NewRecord(domain.RecordParams{})
	editor, observer, _ := newTestEditor(r)
	ctx := context.Background()

	editor.SetSkillLevel(ctx, "Intermediate")
	level, ok := r.SkillLevel()
	require.True(t, ok)
	assert.Equal(t, "Intermediate", level)

	editor.ClearSkillLevel(ctx)
	_, ok = r.SkillLevel()
	assert.False(t, ok)

	assert.Equal(t, []string{"skill:set", "skill:cleared"}, observer.events)
}

func TestRecordEditor_Logging(t *testing.T) {
	r := domain.NewRecord(domain.RecordParams{})
	editor, _, buf := newTestEditor(r)
	ctx := context.Background()

	editor.AddDiploma(ctx, "Master")
	editor.AddDiploma(ctx, "Master")

	output := buf.String()
	assert.Contains(t, output, `"msg":"diploma added"`)
	assert.Contains(t, output, `"msg":"diploma not added"`)
	assert.Contains(t, output, `"reason":"duplicate"`)
	assert.Contains(t, output, `"component":"app.RecordEditor"`)
}

func TestRecordEditor_PrefersContextLogger(t *testing.T) {
	r := domain.NewRecord(domain.RecordParams{})
	editor, _, ownBuf := newTestEditor(r)

	ctxBuf := &bytes.Buffer{}
	ctxLogger := slog.New(slog.NewJSONHandler(ctxBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logging.WithRunID(logging.WithContext(context.Background(), ctxLogger), "run-42")

	editor.SetSkillLevel(ctx, "Expert")

	assert.Empty(t, ownBuf.String())
	assert.Contains(t, ctxBuf.String(), `"run_id":"run-42"`)
	assert.Contains(t, ctxBuf.String(), `"msg":"skill level set"`)
}
