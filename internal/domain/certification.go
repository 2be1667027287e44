// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"slices"
)

// Canonical diploma names added by the dedicated mutators.
const (
	// BaccalaureateName is the base name used by AddBaccalaureate.
	BaccalaureateName = "Baccalaureate"

	// BrevetName is the name used by AddBrevet.
	BrevetName = "Brevet des colleges"
)

// RecordParams holds the initial values for a Record.
// The zero value yields a record with both flags false, no skill level
// and no diplomas.
type RecordParams struct {
	// HoldsCNIL reports whether the CNIL certification is held.
	HoldsCNIL bool

	// HoldsANSSI reports whether the ANSSI certification is held.
	HoldsANSSI bool

	// SkillLevel is the PIX proficiency label. Nil means unset.
	SkillLevel *string

	// Diplomas is the initial diploma list. It is copied, never retained.
	Diplomas []string
}

// Record holds a person's certifications and diplomas.
//
// Diploma names are kept in insertion order and the mutators never add an
// entry that is already present. A Record is not safe for concurrent use.
type Record struct {
	holdsCNIL  bool
	holdsANSSI bool
	skillLevel *string
	diplomas   []string
}

// NewRecord creates a record from the given params.
func NewRecord(p RecordParams) *Record {
	r := &Record{
		holdsCNIL:  p.HoldsCNIL,
		holdsANSSI: p.HoldsANSSI,
		diplomas:   make([]string, 0, len(p.Diplomas)),
	}
	r.diplomas = append(r.diplomas, p.Diplomas...)

	if p.SkillLevel != nil {
		level := *p.SkillLevel
		r.skillLevel = &level
	}

	return r
}

// HoldsCNIL reports whether the CNIL certification is held.
func (r *Record) HoldsCNIL() bool { return r.holdsCNIL }

// HoldsANSSI reports whether the ANSSI certification is held.
func (r *Record) HoldsANSSI() bool { return r.holdsANSSI }

// SkillLevel returns the skill level and whether one is set.
func (r *Record) SkillLevel() (string, bool) {
	if r.skillLevel == nil {
		return "", false
	}
	return *r.skillLevel, true
}

// Diplomas returns a copy of the diploma names in insertion order.
func (r *Record) Diplomas() []string {
	return slices.Clone(r.diplomas)
}

// HasDiploma reports whether name is present, by exact match.
func (r *Record) HasDiploma(name string) bool {
	return slices.Contains(r.diplomas, name)
}

// Len returns the number of diplomas held.
func (r *Record) Len() int { return len(r.diplomas) }

// AddBaccalaureate adds the baccalaureate, suffixed with "(mention)" when
// mention is not empty. The plain and mentioned variants are distinct entries.
func (r *Record) AddBaccalaureate(mention string) {
	r.appendUnique(BaccalaureateNameWithMention(mention))
}

// AddBrevet adds the brevet des colleges.
func (r *Record) AddBrevet() {
	r.appendUnique(BrevetName)
}

// AddDiploma adds name unless it is empty or already present.
func (r *Record) AddDiploma(name string) {
	if name == "" {
		return
	}
	r.appendUnique(name)
}

// RemoveDiploma removes the first occurrence of name.
// It reports whether an entry was removed.
func (r *Record) RemoveDiploma(name string) bool {
	i := slices.Index(r.diplomas, name)
	if i < 0 {
		return false
	}
	r.diplomas = slices.Delete(r.diplomas, i, i+1)
	return true
}

// SetSkillLevel replaces the skill level. Any label is accepted.
func (r *Record) SetSkillLevel(level string) {
	r.skillLevel = &level
}

// ClearSkillLevel unsets the skill level.
func (r *Record) ClearSkillLevel() {
	r.skillLevel = nil
}

// Snapshot returns a detached copy of the record's state.
func (r *Record) Snapshot() Snapshot {
	s := Snapshot{
		CNIL:     r.holdsCNIL,
		ANSSI:    r.holdsANSSI,
		Diplomas: r.Diplomas(),
	}
	if level, ok := r.SkillLevel(); ok {
		s.PIX = &level
	}
	return s
}

// ToMap exports the record as a plain mapping with the keys cnil, anssi,
// pix and diplomas. pix is nil when no skill level is set.
func (r *Record) ToMap() map[string]any {
	var pix any
	if level, ok := r.SkillLevel(); ok {
		pix = level
	}

	return map[string]any{
		"cnil":     r.holdsCNIL,
		"anssi":    r.holdsANSSI,
		"pix":      pix,
		"diplomas": r.Diplomas(),
	}
}

// String returns a human-readable form for logs and debugging.
// The format is not stable.
func (r *Record) String() string {
	pix := "nil"
	if level, ok := r.SkillLevel(); ok {
		pix = fmt.Sprintf("%q", level)
	}

	return fmt.Sprintf("CertificationRecord(cnil=%t, anssi=%t, pix=%s, diplomas=%q)",
		r.holdsCNIL, r.holdsANSSI, pix, r.diplomas)
}

func (r *Record) appendUnique(name string) {
	if slices.Contains(r.diplomas, name) {
		return
	}
	r.diplomas = append(r.diplomas, name)
}

// BaccalaureateNameWithMention builds the diploma name AddBaccalaureate uses.
func BaccalaureateNameWithMention(mention string) string {
	if mention == "" {
		return BaccalaureateName
	}
	return BaccalaureateName + " (" + mention + ")"
}

// Snapshot is the exported shape of a Record.
type Snapshot struct {
	CNIL     bool     `json:"cnil"     yaml:"cnil"`
	ANSSI    bool     `json:"anssi"    yaml:"anssi"`
	PIX      *string  `json:"pix"      yaml:"pix"`
	Diplomas []string `json:"diplomas" yaml:"diplomas"`
}
