package verifier

import (
	"strings"

	"lineage-verifier/backend/internal/label"
	"lineage-verifier/backend/internal/lineage"
)

// reportMysteryAncestors lists undated persons with fewer than two parents
// that sit close to the leaves of the chart, where a missing parent or year
// is most likely an omission.
func reportMysteryAncestors(r *run) error {
	limit := r.opts.MysteryCheckLevel
	for _, id := range r.g.IDs() {
		if len(r.g.Outgoing(id)) >= 2 || label.IsDated(r.name(id)) {
			continue
		}
		r.showMystery(id, limit)
	}
	return nil
}

func (r *run) showMystery(id lineage.ID, limit int) {
	paths := r.descendantPaths(id, limit)
	if len(paths) == 0 {
		return
	}

	near := false
	for _, p := range paths {
		if len(p) < limit {
			near = true
			break
		}
	}
	if !near {
		return
	}

	leaves := newOrderedSet()
	for _, p := range paths {
		leaves.add(p[len(p)-1])
	}

	first := paths[0]
	r.printf("%s\n", strings.ReplaceAll(r.name(id), "\n", "\n  "))
	nearest := r.name(first[1])
	r.printf("     %s\n", strings.ReplaceAll(nearest, "\n", " "))
	if !label.HasYear(nearest) && len(first) > 2 {
		r.printf("         %s\n", strings.ReplaceAll(r.name(first[2]), "\n", " "))
	}
	r.printf("                     .... {%s}\n\n", strings.Join(r.g.Names(leaves.ids), ", "))
}

// descendantPaths returns every path from id down to a childless descendant
// that is at most limit persons long. Longer branches are cut off, which
// also keeps malformed cyclic charts finite.
func (r *run) descendantPaths(id lineage.ID, limit int) [][]lineage.ID {
	if len(r.g.Incoming(id)) == 0 {
		return nil
	}

	var out [][]lineage.ID
	path := make([]lineage.ID, 0, limit)
	var walk func(n lineage.ID)
	walk = func(n lineage.ID) {
		path = append(path, n)
		defer func() { path = path[:len(path)-1] }()

		children := r.g.Incoming(n)
		if len(children) == 0 {
			out = append(out, append([]lineage.ID(nil), path...))
			return
		}
		if len(path) >= limit {
			return
		}
		for _, c := range children {
			walk(c)
		}
	}
	walk(id)
	return out
}
