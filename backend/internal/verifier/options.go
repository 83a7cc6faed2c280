package verifier

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	apperrors "lineage-verifier/backend/pkg/errors"
)

// SoftViolationPolicy decides what happens to escalatable violations
type SoftViolationPolicy int

const (
	// Escalate turns a soft violation into a hard failure. It is the zero
	// value, matching RAISE_EXCEPTION=true.
	Escalate SoftViolationPolicy = iota
	// LogOnly writes the violation to the error stream and continues
	LogOnly
)

func (p SoftViolationPolicy) String() string {
	if p == LogOnly {
		return "log-only"
	}
	return "escalate"
}

// ParseSoftViolationPolicy accepts "escalate" or "log-only"
func ParseSoftViolationPolicy(s string) (SoftViolationPolicy, error) {
	switch s {
	case "escalate", "":
		return Escalate, nil
	case "log-only", "log":
		return LogOnly, nil
	}
	return Escalate, apperrors.NewConfigValidationFailed("on-soft-violation", fmt.Sprintf("unknown policy %q", s))
}

// Stage names one step of the pipeline
type Stage string

const (
	StageUniqueness           Stage = "uniqueness"
	StageStructural           Stage = "structural"
	StageParentSibling        Stage = "parent-sibling"
	StageIdentityClusters     Stage = "identity-clusters"
	StageDuplicateDescription Stage = "duplicate-description"
	StageChildWithParent      Stage = "child-with-parent"
	StageGrandparentIsParent  Stage = "grandparent-is-parent"
	StagePrefixCollisions     Stage = "prefix-collisions"
	StageKidsWithCousins      Stage = "kids-with-cousins"
	StageStripLegacy          Stage = "strip-legacy-attributes"
	StageSubgraphGuard        Stage = "subgraph-guard"
	StageFamilySize           Stage = "family-size"
	StageCousinMarriages      Stage = "cousin-marriages"
	StageSimilarPersons       Stage = "similar-persons"
	StageMysteryAncestors     Stage = "mystery-ancestors"
	StageNamingConvention     Stage = "naming-convention"
)

// StageInfo describes a stage for listings
type StageInfo struct {
	Stage       Stage
	Default     bool
	Toggleable  bool
	Description string
}

// Stages returns every stage in execution order
func Stages() []StageInfo {
	out := make([]StageInfo, len(pipeline))
	for i, st := range pipeline {
		out[i] = StageInfo{
			Stage:       st.stage,
			Default:     st.enabled,
			Toggleable:  !st.fixed,
			Description: st.description,
		}
	}
	return out
}

// ParseStage validates a stage name
func ParseStage(name string) (Stage, error) {
	for _, st := range pipeline {
		if string(st.stage) == name {
			if st.fixed {
				return "", apperrors.NewConfigValidationFailed("stage", fmt.Sprintf("stage %q cannot be toggled", name))
			}
			return st.stage, nil
		}
	}
	return "", apperrors.NewConfigValidationFailed("stage", fmt.Sprintf("unknown stage %q", name))
}

// Options configures one verification run. The zero value is usable and
// matches DefaultOptions except for the output writers, which fall back to
// the process streams.
type Options struct {
	// Verbose turns on cousin-marriage analysis unless Stages disables it
	Verbose bool

	// KnownProblemCases exempts persons from the lineage-cycle checks when
	// their name, or the colliding person's name, contains an entry.
	KnownProblemCases []string

	// SimilarPersonExceptions lists exact labels exempt from the
	// same-lifespan check.
	SimilarPersonExceptions []string

	OnSoftViolation SoftViolationPolicy

	// Stages overrides per-stage defaults
	Stages map[Stage]bool

	// CousinLevels are the ancestor depths analysed by cousin-marriages
	CousinLevels []int

	// MysteryCheckLevel caps descendant paths for mystery-ancestors
	MysteryCheckLevel int

	RunID  string
	Out    io.Writer
	Err    io.Writer
	Logger *zap.Logger
}

const defaultMysteryCheckLevel = 8

// DefaultOptions returns the options of a plain verification run
func DefaultOptions() Options {
	return Options{
		KnownProblemCases:       []string{},
		SimilarPersonExceptions: []string{},
		OnSoftViolation:         Escalate,
		Stages:                  map[Stage]bool{},
		CousinLevels:            []int{1, 2},
		MysteryCheckLevel:       defaultMysteryCheckLevel,
		Out:                     os.Stdout,
		Err:                     os.Stderr,
	}
}

// Enable switches stages on
func (o *Options) Enable(stages ...Stage) {
	o.set(true, stages)
}

// Disable switches stages off
func (o *Options) Disable(stages ...Stage) {
	o.set(false, stages)
}

func (o *Options) set(on bool, stages []Stage) {
	if o.Stages == nil {
		o.Stages = map[Stage]bool{}
	}
	for _, s := range stages {
		o.Stages[s] = on
	}
}

// Enabled reports whether a stage runs under these options
func (o Options) Enabled(s Stage) bool {
	for _, st := range pipeline {
		if st.stage != s {
			continue
		}
		if st.fixed {
			return true
		}
		if on, ok := o.Stages[s]; ok {
			return on
		}
		if s == StageCousinMarriages && o.Verbose {
			return true
		}
		return st.enabled
	}
	return false
}

// normalize fills in defaults so checks never see nil collections
func (o Options) normalize() Options {
	if o.KnownProblemCases == nil {
		o.KnownProblemCases = []string{}
	}
	if o.SimilarPersonExceptions == nil {
		o.SimilarPersonExceptions = []string{}
	}
	levels := make([]int, 0, len(o.CousinLevels))
	for _, l := range o.CousinLevels {
		if l >= 1 {
			levels = append(levels, l)
		}
	}
	if o.CousinLevels == nil {
		levels = []int{1, 2}
	}
	o.CousinLevels = levels
	if o.MysteryCheckLevel <= 0 {
		o.MysteryCheckLevel = defaultMysteryCheckLevel
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	return o
}
