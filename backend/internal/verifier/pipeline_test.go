package verifier

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
)

// chart builds test graphs keyed by display label
type chart struct {
	persons []*lineage.Person
	edges   []lineage.Edge
}

func newChart(names ...string) *chart {
	c := &chart{}
	for _, name := range names {
		c.person(name)
	}
	return c
}

// person adds a person with attribute key/value pairs
func (c *chart) person(name string, attrs ...string) *chart {
	p := &lineage.Person{Key: name, Name: name, Attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		p.Attrs[attrs[i]] = attrs[i+1]
	}
	c.persons = append(c.persons, p)
	return c
}

func (c *chart) parents(child string, parents ...string) *chart {
	for _, parent := range parents {
		c.edges = append(c.edges, lineage.Edge{Child: child, Parent: parent})
	}
	return c
}

func (c *chart) build(t *testing.T) *lineage.Graph {
	t.Helper()
	g, err := lineage.Build(c.persons, c.edges)
	require.NoError(t, err)
	return g
}

type result struct {
	collisions []Collision
	stdout     string
	stderr     string
	err        error
}

func verify(t *testing.T, g *lineage.Graph, configure func(*Options)) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts := DefaultOptions()
	opts.Out = &stdout
	opts.Err = &stderr
	if configure != nil {
		configure(&opts)
	}
	collisions, err := Verify(g, opts)
	return result{collisions: collisions, stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func requireViolation(t *testing.T, res result, check Stage) *apperrors.StructuralViolation {
	t.Helper()
	require.Error(t, res.err)
	v, ok := apperrors.AsStructuralViolation(res.err)
	require.True(t, ok, "unexpected error: %v", res.err)
	assert.Equal(t, string(check), v.Check)
	assert.Nil(t, res.collisions)
	return v
}

func TestVerify_EmptyChart(t *testing.T) {
	res := verify(t, newChart().build(t), nil)

	require.NoError(t, res.err)
	assert.NotNil(t, res.collisions)
	assert.Empty(t, res.collisions)
	assert.Empty(t, res.stdout)
	assert.Empty(t, res.stderr)
}

func TestVerify_ZeroOptions(t *testing.T) {
	collisions, err := Verify(newChart("Anna").build(t), Options{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Empty(t, collisions)
}

func TestVerify_UniquenessRunsFirst(t *testing.T) {
	c := newChart("X", "A", "B", "C").person("A").parents("X", "A", "B", "C")
	c.persons[4].Key = "A2"

	v := requireViolation(t, verify(t, c.build(t), nil), StageUniqueness)
	assert.Equal(t, []string{"A"}, v.Names)
	assert.Contains(t, v.Error(), "non-unique names: A")
}

func TestVerify_StripsLegacyAttributes(t *testing.T) {
	g := newChart().person("Anna", lineage.AttrYearOfBirth, "1900", lineage.AttrDescription, "farmer").build(t)
	anna, _ := g.Lookup("Anna")

	require.NoError(t, verify(t, g, nil).err)
	assert.Equal(t, map[string]string{lineage.AttrDescription: "farmer"}, g.Person(anna).Attrs)
}

func TestVerify_NoStripAfterEarlyFailure(t *testing.T) {
	c := newChart().person("Anna", lineage.AttrYearOfBirth, "1900").person("Anna")
	c.persons[1].Key = "Anna2"
	g := c.build(t)

	requireViolation(t, verify(t, g, nil), StageUniqueness)
	assert.Equal(t, "1900", g.Person(0).Attrs[lineage.AttrYearOfBirth])
}

func TestVerify_StageToggles(t *testing.T) {
	c := newChart("X", "A", "B", "C").parents("X", "A", "B", "C")

	res := verify(t, c.build(t), func(o *Options) { o.Disable(StageStructural) })
	assert.NoError(t, res.err)

	res = verify(t, c.build(t), func(o *Options) {
		o.Disable(StageStructural)
		o.Enable(StageStructural)
	})
	requireViolation(t, res, StageStructural)
}

func TestVerify_Deterministic(t *testing.T) {
	c := newChart("G", "A", "B", "X", "Y", "Z", "John", "John Smith").
		parents("A", "G").parents("B", "G").
		parents("X", "A").parents("Y", "B").
		parents("Z", "X", "Y")

	first := verify(t, c.build(t), func(o *Options) { o.Verbose = true })
	second := verify(t, c.build(t), func(o *Options) { o.Verbose = true })

	require.NoError(t, first.err)
	assert.Equal(t, first, second)
}

func TestVerify_SoftViolationPolicy(t *testing.T) {
	c := newChart().person("Anna K. Pekka", lineage.AttrDescription, "farmer")

	res := verify(t, c.build(t), func(o *Options) { o.Enable(StageNamingConvention) })
	v := requireViolation(t, res, StageNamingConvention)
	assert.True(t, apperrors.IsErrorType(v, apperrors.ErrorTypeSoft))
	assert.Equal(t, "not using ** for description: Anna K. Pekka\n", res.stderr)

	res = verify(t, c.build(t), func(o *Options) {
		o.Enable(StageNamingConvention)
		o.OnSoftViolation = LogOnly
	})
	require.NoError(t, res.err)
	assert.Equal(t, "not using ** for description: Anna K. Pekka\n", res.stderr)
}
