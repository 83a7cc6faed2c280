package verifier

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
)

const (
	// subgraphCap bounds the neighborhood walk per person
	subgraphCap = 5
	// maxOtherParents is the largest plausible set of co-parents
	maxOtherParents = 3
)

// guardSubgraphs walks a bounded neighborhood around every person. It never
// fails; it only keeps traversal cost flat on dense components.
// TODO: ask the chart owners whether a capped neighborhood should become a
// reported finding.
func guardSubgraphs(r *run) error {
	capped := 0
	for _, id := range r.g.IDs() {
		if boundedNeighborhood(r.g, id, subgraphCap) > subgraphCap {
			capped++
		}
	}
	r.log.Debug("Subgraph guard finished", zap.Int("capped", capped))
	return nil
}

// boundedNeighborhood runs a BFS over parent and child edges from start and
// returns the number of related persons found, stopping once it exceeds
// limit.
func boundedNeighborhood(g *lineage.Graph, start lineage.ID, limit int) int {
	found := 0
	queue := []lineage.ID{start}
	handled := map[lineage.ID]struct{}{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := handled[id]; ok {
			continue
		}
		handled[id] = struct{}{}

		for _, child := range g.Incoming(id) {
			found++
			queue = append(queue, child)
		}
		for _, parent := range g.Outgoing(id) {
			found++
			queue = append(queue, parent)
		}
		if found > limit {
			return found
		}
	}
	return found
}

// checkFamilySize looks at the other parents of each person's children.
// More than three is an error, three a warning, two a printout.
func checkFamilySize(r *run) error {
	for _, id := range r.g.IDs() {
		children := r.g.Incoming(id)
		if len(children) == 0 {
			continue
		}

		all := newOrderedSet()
		for _, child := range children {
			for _, parent := range r.g.Outgoing(child) {
				all.add(parent)
			}
		}
		others := make([]lineage.ID, 0, len(all.ids))
		for _, parent := range all.ids {
			if parent != id {
				others = append(others, parent)
			}
		}

		switch {
		case len(others) > maxOtherParents:
			names := r.g.Names(others)
			return apperrors.NewStructuralViolation(string(StageFamilySize),
				fmt.Sprintf("suspiciously high number of common parents, must be an error: %s has %d other parents: %s",
					r.name(id), len(others), strings.Join(names, ", ")),
				append([]string{r.name(id)}, names...)...,
			)
		case len(others) == maxOtherParents:
			r.warnf("Suspiciously high number of common parents: \n")
			r.warnf("{%s}\n", strings.Join(r.g.Names(all.ids), ", "))
		case len(others) == 2:
			r.printf("%s has %d children who have %d other parents: \n", r.name(id), len(children), len(others))
			for _, parent := range others {
				r.printf("   %s  kids: %d\n", r.name(parent), len(r.g.Incoming(parent)))
			}
		}
	}
	return nil
}
