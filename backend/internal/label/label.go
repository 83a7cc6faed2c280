// Package label parses the display-label micro-format of a chart person.
//
// A label is one or more lines. The first line is the primary label: a name,
// optional year tokens, and optionally the info-marker " K. " that introduces
// spouse and biographical text. Later lines are free text. A "**" anywhere in
// the label marks that the person carries a description attribute.
package label

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// InfoMarker introduces spouse and biographical text in the primary line
const InfoMarker = " K. "

// approxKeyword must precede a short numeric range such as 1900-1910
const approxKeyword = " arviolta"

var (
	yearPattern      = regexp.MustCompile(`-?[1-2][0-9][0-9][0-9]`)
	anyYearPattern   = regexp.MustCompile(`[12][0-9][0-9][0-9]`)
	datedPattern     = regexp.MustCompile(` 1[0-9][0-9][0-9]`)
	rangePattern     = regexp.MustCompile(`[0-9]-[0-9]`)
	signaturePattern = regexp.MustCompile(`^([A-ZÅÄÖa-zåäö ]+-?[12][0-9][0-9][0-9])`)
	lifespanPattern  = regexp.MustCompile(`([12][0-9][0-9][0-9]+) [A-Za-zÅÄÖåäö, ]+ K\. ([12][0-9][0-9][0-9]) [A-Za-zÅÄÖåäö, ]+`)
)

// Span is a byte range within the primary line
type Span struct {
	Start, End int
}

// Label is the parsed form of one display label
type Label struct {
	Raw     string
	Primary string
	Rest    []string

	// Marker is the byte offset of the first InfoMarker in Primary, or -1.
	// MarkerText is the text between it and a second marker, if any.
	Marker     int
	MarkerText string

	Quotes     int
	OpenParens int
	Dashes     int

	// FirstYear is the first year token of Primary. YearGap is the distance
	// in characters from its end to the start of the next year token, or -1.
	FirstYear *Span
	YearGap   int

	Range    *Span
	Approx   int // byte offset of " arviolta" in Primary, or -1
	Asterisk bool
}

// Parse splits name into its parts. It never fails; validators decide what
// is malformed.
func Parse(name string) Label {
	lines := strings.Split(name, "\n")
	primary := lines[0]

	l := Label{
		Raw:        name,
		Primary:    primary,
		Rest:       lines[1:],
		Marker:     strings.Index(primary, InfoMarker),
		Quotes:     strings.Count(primary, `"`),
		OpenParens: strings.Count(primary, "("),
		Dashes:     strings.Count(primary, "-"),
		YearGap:    -1,
		Approx:     strings.Index(primary, approxKeyword),
		Asterisk:   strings.Contains(name, "**"),
	}

	if l.Marker >= 0 {
		l.MarkerText = strings.SplitN(primary, InfoMarker, 3)[1]
	}

	if m := yearPattern.FindStringIndex(primary); m != nil {
		l.FirstYear = &Span{Start: m[0], End: m[1]}
		rest := primary[m[1]:]
		if m2 := yearPattern.FindStringIndex(rest); m2 != nil {
			l.YearGap = utf8.RuneCountInString(rest[:m2[0]])
		}
	}

	if m := rangePattern.FindStringIndex(primary); m != nil {
		l.Range = &Span{Start: m[0], End: m[1]}
	}

	return l
}

// HasMarker reports whether the primary line carries the info-marker
func (l Label) HasMarker() bool {
	return l.Marker >= 0
}

// HasCenturyDigit reports a " 1" sequence in the primary line, the cheap
// precondition for looking at year tokens at all.
func (l Label) HasCenturyDigit() bool {
	return strings.Contains(l.Primary, " 1")
}

// RangeLacksApprox reports a numeric range with no " arviolta" before it
func (l Label) RangeLacksApprox() bool {
	if l.Range == nil {
		return false
	}
	return l.Approx == -1 || l.Approx > l.Range.Start
}

// SecondLineStartsWithMarker reports a second line beginning with "K. "
func (l Label) SecondLineStartsWithMarker() bool {
	return len(l.Rest) > 0 && strings.HasPrefix(l.Rest[0], "K. ")
}

// Signature extracts the name+year identity, e.g. "Jane Doe-1920"
func (l Label) Signature() (string, bool) {
	m := signaturePattern.FindStringSubmatch(l.Raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Lifespan extracts the birth year and the year after the info-marker from
// the strict "<year> <place> K. <year> <place>" form.
func (l Label) Lifespan() (born, died string, ok bool) {
	if !strings.Contains(l.Raw, " K.") {
		return "", "", false
	}
	m := lifespanPattern.FindStringSubmatch(l.Raw)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// HasYear reports any four-digit year in the label
func HasYear(name string) bool {
	return anyYearPattern.MatchString(name)
}

// IsDated reports a " 1xxx" year anywhere in the label
func IsDated(name string) bool {
	return datedPattern.MatchString(name)
}

// FirstLine returns the primary line of name
func FirstLine(name string) string {
	line, _, _ := strings.Cut(name, "\n")
	return line
}

// Flatten joins all lines with spaces and trims the result
func Flatten(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "\n", " "))
}

// FirstWord returns the first whitespace separated word of the primary line
func FirstWord(name string) string {
	fields := strings.Fields(FirstLine(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Initial returns the first character of name
func Initial(name string) string {
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r)
}

// Prefix returns the first n characters of name
func Prefix(name string, n int) string {
	i := 0
	for pos := range name {
		if i == n {
			return name[:pos]
		}
		i++
	}
	return name
}
