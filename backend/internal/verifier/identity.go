package verifier

import (
	"fmt"
	"strings"

	"lineage-verifier/backend/internal/label"
	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
)

// reportIdentityClusters prints groups of persons whose labels start with the
// same name+year signature, e.g. "Jane Doe-1920" and "Jane Doe-1920 Jr.".
func reportIdentityClusters(r *run) error {
	var order []string
	groups := map[string][]lineage.ID{}
	for _, id := range r.g.IDs() {
		sig, ok := r.label(id).Signature()
		if !ok {
			continue
		}
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], id)
	}

	for _, sig := range order {
		members := groups[sig]
		if len(members) < 2 {
			continue
		}
		r.printf("\nSuspiciously similar person identifiers\n")
		for _, id := range members {
			r.printf("    <%s>  %s \n", r.name(id), r.neighborInitials(id))
		}
	}
	return nil
}

// neighborInitials abbreviates every linked person, children first
func (r *run) neighborInitials(id lineage.ID) string {
	var b strings.Builder
	for _, child := range r.g.Incoming(id) {
		b.WriteString(label.Initial(r.name(child)))
	}
	for _, parent := range r.g.Outgoing(id) {
		b.WriteString(label.Initial(r.name(parent)))
	}
	return b.String()
}

// checkDuplicateDescriptions fails on the first description text shared by
// two or more persons. Empty descriptions are ignored.
func checkDuplicateDescriptions(r *run) error {
	var order []string
	groups := map[string][]lineage.ID{}
	for _, id := range r.g.IDs() {
		desc := r.g.Person(id).Attrs[lineage.AttrDescription]
		if desc == "" {
			continue
		}
		if _, seen := groups[desc]; !seen {
			order = append(order, desc)
		}
		groups[desc] = append(groups[desc], id)
	}

	for _, desc := range order {
		members := groups[desc]
		if len(members) < 2 {
			continue
		}
		names := r.g.Names(members)
		r.printf("Duplicated descriptions found for: \n")
		for _, name := range names {
			r.printf("%s\n", name)
		}
		r.printf("Desc:\n   %s\n", desc)
		return apperrors.NewStructuralViolation(string(StageDuplicateDescription),
			fmt.Sprintf("duplicated descriptions: %s", strings.Join(names, ", ")),
			names...,
		).WithDetail(desc)
	}
	return nil
}

// collectPrefixCollisions records every ordered pair where one label starts
// with another. O(n²) over the chart.
func collectPrefixCollisions(r *run) error {
	ids := r.g.IDs()
	for _, id := range ids {
		name := r.name(id)
		for _, other := range ids {
			if other == id {
				continue
			}
			prefix := r.name(other)
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			r.warnf("Name starts with someone else's name: %s  --- %s\n\n", prefix, name)
			r.collisions = append(r.collisions, Collision{Shorter: prefix, Longer: name})
		}
	}
	return nil
}

// checkSimilarPersons fails when two labels in the strict lifespan form share
// both years and their first eight characters.
func checkSimilarPersons(r *run) error {
	exceptions := make(map[string]struct{}, len(r.opts.SimilarPersonExceptions))
	for _, e := range r.opts.SimilarPersonExceptions {
		exceptions[e] = struct{}{}
	}

	ids := r.g.IDs()
	for _, id := range ids {
		born, died, ok := r.label(id).Lifespan()
		if !ok {
			continue
		}
		name := r.name(id)
		for _, other := range ids {
			if other == id {
				continue
			}
			otherName := r.name(other)
			if !strings.Contains(otherName, label.InfoMarker) || !strings.Contains(otherName, born) {
				continue
			}
			otherBorn, otherDied, ok := r.label(other).Lifespan()
			if !ok || otherBorn != born || otherDied != died {
				continue
			}
			if label.Prefix(name, 8) != label.Prefix(otherName, 8) {
				continue
			}
			if _, exempt := exceptions[name]; exempt {
				continue
			}
			return apperrors.NewStructuralViolation(string(StageSimilarPersons),
				fmt.Sprintf("same lifespan:\n    %q\n    %q", name, otherName),
				name, otherName,
			)
		}
	}
	return nil
}
