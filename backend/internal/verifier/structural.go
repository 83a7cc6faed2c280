package verifier

import (
	"fmt"
	"strings"

	apperrors "lineage-verifier/backend/pkg/errors"
)

func checkUniqueNames(r *run) error {
	seen := make(map[string]struct{}, r.g.Len())
	for _, id := range r.g.IDs() {
		name := r.name(id)
		if _, dup := seen[name]; dup {
			return apperrors.NewStructuralViolation(string(StageUniqueness), "non-unique names: "+name, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// checkStructure scans the whole chart for parent counts before looking at
// nesting, so a three-parent person is reported even if a nested element
// appears earlier.
func checkStructure(r *run) error {
	for _, id := range r.g.IDs() {
		parents := r.g.Outgoing(id)
		if len(parents) > 2 {
			parentNames := r.g.Names(parents)
			return apperrors.NewStructuralViolation(string(StageStructural),
				fmt.Sprintf("three parents: %s\n  [%s]", r.name(id), strings.Join(parentNames, ", ")),
				append([]string{r.name(id)}, parentNames...)...,
			)
		}
	}

	for _, id := range r.g.IDs() {
		if nested := r.g.Person(id).Nested; len(nested) > 0 {
			return apperrors.NewStructuralViolation(string(StageStructural),
				fmt.Sprintf("element %s has children: %s", r.name(id), nested[0]),
				r.name(id), nested[0],
			)
		}
	}
	return nil
}
