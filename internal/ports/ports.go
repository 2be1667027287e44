// Package ports defines interfaces for the record's collaborators.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Accept and return domain types, never encoder- or metrics-specific types
//   - Keep interfaces small and focused
//   - Observers never influence record state
package ports

import (
	"io"

	"github.com/jsamuelsen/certrecord/internal/domain"
)

// RecordEncoder writes a record snapshot in one output format.
//
// Example implementation:
//
//	type csvEncoder struct{}
//
//	func (csvEncoder) Format() string { return "csv" }
//
//	func (csvEncoder) Encode(w io.Writer, s domain.Snapshot) error { ... }
type RecordEncoder interface {
	// Format returns the format name used for selection (e.g. "json").
	Format() string

	// Encode writes the snapshot to w.
	Encode(w io.Writer, s domain.Snapshot) error
}

// DiplomaKind identifies which mutator added a diploma.
type DiplomaKind string

const (
	// DiplomaKindBaccalaureate is reported by AddBaccalaureate.
	DiplomaKindBaccalaureate DiplomaKind = "baccalaureate"

	// DiplomaKindBrevet is reported by AddBrevet.
	DiplomaKindBrevet DiplomaKind = "brevet"

	// DiplomaKindGeneric is reported by AddDiploma.
	DiplomaKindGeneric DiplomaKind = "generic"
)

// SkipReason explains why an add left the diploma list unchanged.
type SkipReason string

const (
	// SkipReasonDuplicate means the name was already present.
	SkipReasonDuplicate SkipReason = "duplicate"

	// SkipReasonEmpty means the name was empty.
	SkipReasonEmpty SkipReason = "empty"
)

// MutationObserver is notified of record mutations after they are applied.
// Implementations must not block; they run inline with the mutation.
type MutationObserver interface {
	DiplomaAdded(kind DiplomaKind)
	DiplomaSkipped(kind DiplomaKind, reason SkipReason)
	DiplomaRemoved(found bool)
	SkillLevelChanged(cleared bool)
}

// NoopObserver ignores every notification.
type NoopObserver struct{}

func (NoopObserver) DiplomaAdded(DiplomaKind)               {}
func (NoopObserver) DiplomaSkipped(DiplomaKind, SkipReason) {}
func (NoopObserver) DiplomaRemoved(bool)                    {}
func (NoopObserver) SkillLevelChanged(bool)                 {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []MutationObserver

// DiplomaAdded implements MutationObserver.
func (m MultiObserver) DiplomaAdded(kind DiplomaKind) {
	for _, o := range m {
		o.DiplomaAdded(kind)
	}
}

// DiplomaSkipped implements MutationObserver.
func (m MultiObserver) DiplomaSkipped(kind DiplomaKind, reason SkipReason) {
	for _, o := range m {
		o.DiplomaSkipped(kind, reason)
	}
}

// DiplomaRemoved implements MutationObserver.
func (m MultiObserver) DiplomaRemoved(found bool) {
	for _, o := range m {
		o.DiplomaRemoved(found)
	}
}

// SkillLevelChanged implements MutationObserver.
func (m MultiObserver) SkillLevelChanged(cleared bool) {
	for _, o := range m {
		o.SkillLevelChanged(cleared)
	}
}
