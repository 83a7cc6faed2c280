package verifier

import (
	"strings"

	"lineage-verifier/backend/internal/label"
	"lineage-verifier/backend/internal/lineage"
)

// kinshipIndex holds the 2-hop ancestors (grandparents) and 2-hop
// descendants (grandchildren) of every person, each in first-seen order.
type kinshipIndex struct {
	grandparents  [][]lineage.ID
	grandchildren [][]lineage.ID
}

func buildKinshipIndex(g *lineage.Graph) *kinshipIndex {
	k := &kinshipIndex{
		grandparents:  make([][]lineage.ID, g.Len()),
		grandchildren: make([][]lineage.ID, g.Len()),
	}
	for _, id := range g.IDs() {
		up := newOrderedSet()
		for _, parent := range g.Outgoing(id) {
			for _, gp := range g.Outgoing(parent) {
				up.add(gp)
			}
		}
		k.grandparents[id] = up.ids

		down := newOrderedSet()
		for _, child := range g.Incoming(id) {
			for _, gc := range g.Incoming(child) {
				down.add(gc)
			}
		}
		k.grandchildren[id] = down.ids
	}
	return k
}

// cousins returns every other person sharing a grandparent with id. Siblings
// sharing a grandparent through the same parent are included.
func (k *kinshipIndex) cousins(id lineage.ID) []lineage.ID {
	out := newOrderedSet()
	for _, gp := range k.grandparents[id] {
		for _, c := range k.grandchildren[gp] {
			if c != id {
				out.add(c)
			}
		}
	}
	return out.ids
}

func (r *run) kinship() *kinshipIndex {
	if r.kin == nil {
		r.kin = buildKinshipIndex(r.g)
	}
	return r.kin
}

// reportKidsWithCousins prints children that a person shares with one of
// their cousins, a sign of a family linked twice.
func reportKidsWithCousins(r *run) error {
	kin := r.kinship()
	for _, id := range r.g.IDs() {
		children := r.g.Incoming(id)
		if len(children) == 0 {
			continue
		}
		for _, cousin := range kin.cousins(id) {
			common := newOrderedSet()
			for _, c := range r.g.Incoming(cousin) {
				if containsID(children, c) {
					common.add(c)
				}
			}
			if len(common.ids) == 0 {
				continue
			}
			r.printf("Common children with cousins %s %s:\n", r.name(id), r.name(cousin))
			for _, c := range common.ids {
				r.printf("    %s\n", r.name(c))
			}
		}
	}
	return nil
}

func reportCousinMarriages(r *run) error {
	for i, level := range r.opts.CousinLevels {
		if i > 0 {
			r.printf("Cousins at %d level\n%s\n\n", level, strings.Repeat("=", 44))
		}
		r.findCousinMarriages(level)
	}
	return nil
}

// findCousinMarriages enumerates every ancestor path of level+2 edges from
// each person. A terminal ancestor reached through more than one parent means
// the parents are level-th cousins.
func (r *run) findCousinMarriages(level int) {
	depth := level + 2
	for _, id := range r.g.IDs() {
		var order []lineage.ID
		paths := map[lineage.ID][][]lineage.ID{}
		path := make([]lineage.ID, 0, depth)

		var walk func(n lineage.ID)
		walk = func(n lineage.ID) {
			path = append(path, n)
			if len(path) == depth {
				if _, ok := paths[n]; !ok {
					order = append(order, n)
				}
				paths[n] = append(paths[n], append([]lineage.ID(nil), path...))
			} else {
				for _, parent := range r.g.Outgoing(n) {
					walk(parent)
				}
			}
			path = path[:len(path)-1]
		}
		for _, parent := range r.g.Outgoing(id) {
			walk(parent)
		}

		var common []lineage.ID
		for _, ancestor := range order {
			if distinctBranches(paths[ancestor]) > 1 {
				common = append(common, ancestor)
			}
		}
		if len(common) == 0 {
			continue
		}

		r.printf("Parents of %s are %d. cousins due to common ancestor.\n", label.FirstWord(r.name(id)), level)
		r.printf("  Child: %s\n", label.FirstLine(r.name(id)))
		r.printf("   Parents:\n")
		for _, parent := range r.g.Outgoing(id) {
			r.printf("        %s\n", r.name(parent))
		}
		for _, ancestor := range common {
			r.printf("              Common ancestor: %s\n", label.Flatten(r.name(ancestor)))
			r.printf("              Paths:\n")
			for _, p := range paths[ancestor] {
				hops := make([]string, len(p))
				for i, n := range p {
					hops[i] = label.FirstLine(r.name(n))
				}
				r.printf("                   %s\n", strings.Join(hops, " => "))
			}
		}
	}
}

// distinctBranches counts the different immediate parents paths start from
func distinctBranches(paths [][]lineage.ID) int {
	first := map[lineage.ID]struct{}{}
	for _, p := range paths {
		first[p[0]] = struct{}{}
	}
	return len(first)
}
