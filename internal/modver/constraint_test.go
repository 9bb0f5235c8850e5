package modver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Strict(t *testing.T) {
	v, err := Parse("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())

	_, err = Parse("1.2")
	assert.Error(t, err, "partial versions should be rejected")

	_, err = Parse("1.2.3-rc.1")
	assert.Error(t, err, "pre-release suffixes should be rejected")

	_, err = Parse("1.2.3+build.5")
	assert.Error(t, err, "build metadata should be rejected")
}

func TestCompare_Ordering(t *testing.T) {
	assert.Equal(t, -1, Compare(MustParse("1.2.3"), MustParse("1.10.0")))
	assert.Equal(t, 0, Compare(MustParse("2.0.0"), MustParse("2.0.0")))
	assert.Equal(t, 1, Compare(MustParse("2.0.1"), MustParse("2.0.0")))
	assert.Equal(t, -1, Compare(Version{}, MustParse("0.0.1")), "zero version sorts first")
}

func TestParseConstraint_Forms(t *testing.T) {
	tests := []struct {
		raw       string
		canonical string
		match     []string
		reject    []string
	}{
		{"*", "*", []string{"0.0.1", "99.0.0"}, nil},
		{"", "*", []string{"1.0.0"}, nil},
		{"1.2.3", "= 1.2.3", []string{"1.2.3"}, []string{"1.2.4"}},
		{"= 1.2.3", "= 1.2.3", []string{"1.2.3"}, []string{"1.2.2"}},
		{">= 1.0.0", ">= 1.0.0", []string{"1.0.0", "2.0.0"}, []string{"0.9.9"}},
		{"> 1.0.0", "> 1.0.0", []string{"1.0.1"}, []string{"1.0.0"}},
		{"< 2.0.0", "< 2.0.0", []string{"1.9.9"}, []string{"2.0.0"}},
		{"<= 2.0.0", "<= 2.0.0", []string{"2.0.0"}, []string{"2.0.1"}},
		{">= 1.0.0 < 2.0.0", ">= 1.0.0 < 2.0.0", []string{"1.0.0", "1.9.9"}, []string{"0.9.9", "2.0.0"}},
		{">= 1.0.0 <= 2.0.0", ">= 1.0.0 <= 2.0.0", []string{"2.0.0"}, []string{"2.0.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c, err := ParseConstraint(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, c.String())

			reparsed, err := ParseConstraint(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, reparsed, "canonical form should round-trip")

			for _, m := range tt.match {
				assert.True(t, c.Check(MustParse(m)), "%s should match %s", m, tt.raw)
			}
			for _, m := range tt.reject {
				assert.False(t, c.Check(MustParse(m)), "%s should not match %s", m, tt.raw)
			}
		})
	}
}

func TestParseConstraint_Invalid(t *testing.T) {
	for _, raw := range []string{">=", ">= banana", "~ 1.0.0", "< 1.0.0 >= 2.0.0"} {
		_, err := ParseConstraint(raw)
		assert.Error(t, err, "constraint %q should be rejected", raw)
	}
}

func TestIntersect(t *testing.T) {
	a := MustParseConstraint(">= 1.0.0")
	b := MustParseConstraint("< 2.0.0")

	c, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, ">= 1.0.0 < 2.0.0", c.String())

	// Empty: disjoint intervals.
	_, ok = MustParseConstraint(">= 2.0.0").Intersect(MustParseConstraint("< 2.0.0"))
	assert.False(t, ok)

	// Touching endpoints stay non-empty only when both ends are inclusive.
	point, ok := MustParseConstraint(">= 2.0.0").Intersect(MustParseConstraint("<= 2.0.0"))
	require.True(t, ok)
	assert.Equal(t, "= 2.0.0", point.String())

	_, ok = MustParseConstraint("> 2.0.0").Intersect(MustParseConstraint("<= 2.0.0"))
	assert.False(t, ok)
}

func TestIntersect_TighterBoundWins(t *testing.T) {
	c, ok := MustParseConstraint(">= 1.0.0 < 3.0.0").Intersect(MustParseConstraint(">= 2.0.0 < 4.0.0"))
	require.True(t, ok)
	assert.Equal(t, ">= 2.0.0 < 3.0.0", c.String())
}

func TestIntersect_WithAny(t *testing.T) {
	c, ok := Any().Intersect(MustParseConstraint(">= 1.2.0"))
	require.True(t, ok)
	assert.Equal(t, ">= 1.2.0", c.String())
}
