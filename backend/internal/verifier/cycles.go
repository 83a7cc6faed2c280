package verifier

import (
	"fmt"
	"strings"

	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
)

// reportParentIsGrandparent lists persons whose parent's parent is one of
// their own parents. It only prints; the hard checks below decide.
func reportParentIsGrandparent(r *run) error {
	var issues []lineage.ID
	for _, id := range r.g.IDs() {
		parents := r.g.Outgoing(id)
		for _, parent := range parents {
			for _, grandparent := range r.g.Outgoing(parent) {
				if containsID(parents, grandparent) {
					issues = append(issues, id)
				}
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	r.printf("Found issues with parent == parents.parent\n")
	for _, id := range issues {
		r.printf("    %s: parents [%s]\n", r.name(id), strings.Join(r.g.Names(r.g.Outgoing(id)), ", "))
	}
	return nil
}

// checkChildWithParent fails when a child of p has a parent that is also p's
// parent, i.e. p is listed together with its own parent as parents of c.
func checkChildWithParent(r *run) error {
	for _, id := range r.g.IDs() {
		parents := r.g.Outgoing(id)
		for _, child := range r.g.Incoming(id) {
			for _, other := range r.g.Outgoing(child) {
				if !containsID(parents, other) {
					continue
				}
				if r.knownProblem(r.name(id), r.name(other)) {
					continue
				}
				return apperrors.NewStructuralViolation(string(StageChildWithParent),
					fmt.Sprintf("child with a parent: %s parent=%s", r.name(id), r.name(other)),
					r.name(id), r.name(other),
				)
			}
		}
	}
	return nil
}

// checkGrandparentIsParent fails when one of p's grandparents is also p's
// parent.
func checkGrandparentIsParent(r *run) error {
	for _, id := range r.g.IDs() {
		parents := r.g.Outgoing(id)
		for _, parent := range parents {
			for _, grandparent := range r.g.Outgoing(parent) {
				if r.knownProblem(r.name(id), r.name(grandparent)) {
					continue
				}
				if containsID(parents, grandparent) {
					return apperrors.NewStructuralViolation(string(StageGrandparentIsParent),
						fmt.Sprintf("parent's parent %s is parent for %s.", r.name(grandparent), r.name(id)),
						r.name(id), r.name(grandparent),
					)
				}
			}
		}
	}
	return nil
}
