package verifier

import (
	"fmt"
	"strings"

	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
)

// checkNamingConventions validates the label micro-format of every person.
// Duplicated descriptions are checked first and are always fatal.
func checkNamingConventions(r *run) error {
	if err := checkDuplicateDescriptions(r); err != nil {
		return err
	}

	for _, id := range r.g.IDs() {
		if err := r.checkLabel(id); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) checkLabel(id lineage.ID) error {
	name := r.name(id)
	l := r.label(id)
	fail := func(format string, args ...any) error {
		return apperrors.NewStructuralViolation(string(StageNamingConvention), fmt.Sprintf(format, args...), name)
	}

	if l.Quotes > 0 {
		return fail(`first row should not contain double quotes ("): %s`, l.Primary)
	}
	if l.OpenParens > 1 {
		return fail("first row should not contain several parenthesis: %s", name)
	}
	if !l.HasMarker() {
		if l.HasCenturyDigit() && l.YearGap > 3 {
			return fail("two years without K.: %s", l.Primary)
		}
		if l.Dashes > 1 {
			return fail("negative numbers? without K.: %s", l.Primary)
		}
	} else if strings.Contains(l.MarkerText, "  ") {
		return fail("double space in K. part: %q\n%s", l.MarkerText, l.Primary)
	}
	if l.SecondLineStartsWithMarker() {
		return fail("second line starts with K.: %s", name)
	}
	if l.RangeLacksApprox() {
		return fail("year range needs keyword arviolta: %s", l.Primary)
	}

	_, hasDescription := r.g.Person(id).Attrs[lineage.AttrDescription]
	switch {
	case hasDescription && !l.Asterisk:
		return r.soft(apperrors.NewSoftViolation(string(StageNamingConvention), "not using ** for description: "+name, name))
	case !hasDescription && l.Asterisk:
		return r.soft(apperrors.NewSoftViolation(string(StageNamingConvention), "using ** without description: "+name, name))
	}
	return nil
}
