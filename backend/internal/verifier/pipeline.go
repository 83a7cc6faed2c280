// Package verifier checks a lineage chart for data-entry errors before it is
// published. Verify runs a fixed sequence of stages; the first hard failure
// stops the run and is returned as *errors.StructuralViolation. Advisory
// findings are written to Options.Out, warnings and soft violations to
// Options.Err.
package verifier

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lineage-verifier/backend/internal/label"
	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
	"lineage-verifier/backend/pkg/logger"
)

// Collision is a pair of labels where Shorter is a prefix of Longer
type Collision struct {
	Shorter string `json:"shorter"`
	Longer  string `json:"longer"`
}

type stageDef struct {
	stage       Stage
	run         func(*run) error
	enabled     bool
	fixed       bool
	description string
}

// pipeline is the execution order. Changing it changes which violation a
// broken chart reports first.
var pipeline = []stageDef{
	{StageUniqueness, checkUniqueNames, true, false, "display labels are unique"},
	{StageStructural, checkStructure, true, false, "at most two parents, no nested elements"},
	{StageParentSibling, reportParentIsGrandparent, true, false, "advisory: a parent is also a grandparent"},
	{StageIdentityClusters, reportIdentityClusters, true, false, "advisory: persons sharing a name+year signature"},
	{StageDuplicateDescription, checkDuplicateDescriptions, true, false, "no two persons share a description"},
	{StageChildWithParent, checkChildWithParent, true, false, "no child shares a parent with its own parent"},
	{StageGrandparentIsParent, checkGrandparentIsParent, true, false, "a grandparent is not also a parent"},
	{StagePrefixCollisions, collectPrefixCollisions, true, false, "labels that are prefixes of other labels"},
	{StageKidsWithCousins, reportKidsWithCousins, true, false, "advisory: children shared with cousins"},
	{StageStripLegacy, stripLegacyAttributes, true, true, "remove year_of_birth attributes"},
	{StageSubgraphGuard, guardSubgraphs, true, false, "bounded neighborhood walk, never fails"},
	{StageFamilySize, checkFamilySize, true, false, "at most three other parents per family"},
	{StageCousinMarriages, reportCousinMarriages, false, false, "advisory: parents with a common ancestor"},
	{StageSimilarPersons, checkSimilarPersons, false, false, "no two persons share a lifespan"},
	{StageMysteryAncestors, reportMysteryAncestors, false, false, "advisory: closely linked persons lacking details"},
	{StageNamingConvention, checkNamingConventions, false, false, "label micro-format rules"},
}

// Verify runs every enabled stage over g in order. It returns the prefix
// collisions on success. g loses its year_of_birth attributes once the run
// gets past the lineage checks.
func Verify(g *lineage.Graph, opts Options) ([]Collision, error) {
	opts = opts.normalize()
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	log := opts.Logger
	if log == nil {
		log = logger.ForRun(opts.RunID)
	} else {
		log = log.With(zap.String("run_id", opts.RunID))
	}

	r := &run{
		g:    g,
		opts: opts,
		out:  opts.Out,
		errw: opts.Err,
		log:  log,
	}

	log.Debug("Verification started",
		zap.Int("persons", g.Len()),
		zap.String("on_soft_violation", opts.OnSoftViolation.String()),
	)

	for _, st := range pipeline {
		if !opts.Enabled(st.stage) {
			log.Debug("Stage skipped", zap.String("stage", string(st.stage)))
			continue
		}
		if err := st.run(r); err != nil {
			log.Debug("Stage failed", zap.String("stage", string(st.stage)), zap.Error(err))
			return nil, err
		}
		log.Debug("Stage passed", zap.String("stage", string(st.stage)))
	}

	collisions := r.collisions
	if collisions == nil {
		collisions = []Collision{}
	}
	log.Debug("Verification passed", zap.Int("collisions", len(collisions)))
	return collisions, nil
}

// run is the state of one Verify call
type run struct {
	g    *lineage.Graph
	opts Options
	out  io.Writer
	errw io.Writer
	log  *zap.Logger

	labels     []label.Label
	kin        *kinshipIndex
	collisions []Collision
}

// label parses every label once per run
func (r *run) label(id lineage.ID) label.Label {
	if r.labels == nil {
		r.labels = make([]label.Label, r.g.Len())
		for _, i := range r.g.IDs() {
			r.labels[i] = label.Parse(r.g.Name(i))
		}
	}
	return r.labels[id]
}

func (r *run) name(id lineage.ID) string {
	return r.g.Name(id)
}

// printf writes advisory output
func (r *run) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// warnf writes to the error stream
func (r *run) warnf(format string, args ...any) {
	fmt.Fprintf(r.errw, format, args...)
}

// soft reports an escalatable violation and escalates it when configured
func (r *run) soft(v *apperrors.SoftViolation) error {
	r.warnf("%s\n", v.Message)
	if r.opts.OnSoftViolation == Escalate {
		return v.Escalate()
	}
	r.log.Warn("Soft violation not escalated",
		zap.String("check", v.Check),
		zap.String("person", v.Name),
	)
	return nil
}

// knownProblem reports whether any name contains an allow-listed substring
func (r *run) knownProblem(names ...string) bool {
	for _, known := range r.opts.KnownProblemCases {
		for _, name := range names {
			if strings.Contains(name, known) {
				return true
			}
		}
	}
	return false
}

func containsID(ids []lineage.ID, id lineage.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// orderedSet collects ids once each, in first-seen order
type orderedSet struct {
	seen map[lineage.ID]struct{}
	ids  []lineage.ID
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[lineage.ID]struct{}{}}
}

func (s *orderedSet) add(id lineage.ID) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *orderedSet) has(id lineage.ID) bool {
	_, ok := s.seen[id]
	return ok
}

func stripLegacyAttributes(r *run) error {
	removed := r.g.StripAttr(lineage.AttrYearOfBirth)
	r.log.Debug("Legacy attributes stripped", zap.Int("removed", removed))
	return nil
}
