package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingObserver implements MutationObserver for testing.
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) DiplomaAdded(kind DiplomaKind) {
	r.events = append(r.events, "added:"+string(kind))
}

func (r *recordingObserver) DiplomaSkipped(kind DiplomaKind, reason SkipReason) {
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

func TestMultiObserver_FansOutInOrder(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	multi := MultiObserver{first, NoopObserver{}, second}

	multi.DiplomaAdded(DiplomaKindBrevet)
	multi.DiplomaSkipped(DiplomaKindGeneric, SkipReasonEmpty)
	multi.DiplomaRemoved(true)
	multi.DiplomaRemoved(false)
	multi.SkillLevelChanged(false)
	multi.SkillLevelChanged(true)

	want := []string{
		"added:brevet",
		"skipped:generic:empty",
		"removed",
		"absent",
		"skill:set",
		"skill:cleared",
	}
	assert.Equal(t, want, first.events)
	assert.Equal(t, want, second.events)
}

func TestMultiObserver_Empty(t *testing.T) {
	var multi MultiObserver

	assert.NotPanics(t, func() {
		multi.DiplomaAdded(DiplomaKindGeneric)
		multi.DiplomaRemoved(true)
	})
}
