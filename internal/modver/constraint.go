package modver

import (
	"fmt"
	"strings"
)

// Constraint is a version interval. The zero value matches any version.
//
// Constraints from different dependents on the same mod are merged with
// Intersect; an empty intersection is a conflict.
type Constraint struct {
	hasMin       bool
	min          Version
	minInclusive bool

	hasMax       bool
	max          Version
	maxInclusive bool
}

// Any returns the constraint that matches every version.
func Any() Constraint {
	return Constraint{}
}

// Exact returns the constraint matching exactly v.
func Exact(v Version) Constraint {
	return Constraint{hasMin: true, min: v, minInclusive: true, hasMax: true, max: v, maxInclusive: true}
}

// AtLeast returns the constraint matching v and anything newer.
func AtLeast(v Version) Constraint {
	return Constraint{hasMin: true, min: v, minInclusive: true}
}

// Between returns the constraint matching lo (inclusive) up to hi,
// inclusive or exclusive per hiInclusive.
func Between(lo, hi Version, hiInclusive bool) Constraint {
	return Constraint{hasMin: true, min: lo, minInclusive: true, hasMax: true, max: hi, maxInclusive: hiInclusive}
}

// ParseConstraint parses a constraint expression.
//
// Accepted forms:
//
//	"*" or "any" or ""      match anything
//	"1.2.3"                 exact
//	"= 1.2.3"               exact
//	">= 1.0.0"              minimum, inclusive
//	"> 1.0.0"               minimum, exclusive
//	"< 2.0.0", "<= 2.0.0"   maximum
//	">= 1.0.0 < 2.0.0"      range
func ParseConstraint(raw string) (Constraint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "*" || trimmed == "any" {
		return Any(), nil
	}

	fields := strings.Fields(trimmed)
	var c Constraint

	i := 0
	for i < len(fields) {
		op := "="
		tok := fields[i]
		switch tok {
		case "=", "==", ">=", ">", "<=", "<":
			op = tok
			i++
			if i >= len(fields) {
				return Constraint{}, fmt.Errorf("modver: parse constraint %q: operator %q without version", raw, op)
			}
			tok = fields[i]
		}

		v, err := Parse(tok)
		if err != nil {
			return Constraint{}, fmt.Errorf("modver: parse constraint %q: %w", raw, err)
		}
		i++

		var bound Constraint
		switch op {
		case "=", "==":
			bound = Exact(v)
		case ">=":
			bound = Constraint{hasMin: true, min: v, minInclusive: true}
		case ">":
			bound = Constraint{hasMin: true, min: v}
		case "<=":
			bound = Constraint{hasMax: true, max: v, maxInclusive: true}
		case "<":
			bound = Constraint{hasMax: true, max: v}
		}

		merged, ok := c.Intersect(bound)
		if !ok {
			return Constraint{}, fmt.Errorf("modver: parse constraint %q: empty interval", raw)
		}
		c = merged
	}

	return c, nil
}

// MustParseConstraint parses a constraint and panics on error.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// IsAny reports whether the constraint matches every version.
func (c Constraint) IsAny() bool {
	return !c.hasMin && !c.hasMax
}

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(v Version) bool {
	if c.hasMin {
		cmp := Compare(v, c.min)
		if cmp < 0 || (cmp == 0 && !c.minInclusive) {
			return false
		}
	}
	if c.hasMax {
		cmp := Compare(v, c.max)
		if cmp > 0 || (cmp == 0 && !c.maxInclusive) {
			return false
		}
	}
	return true
}

// Intersect combines two constraints into the interval satisfying both.
// The second return value is false when the intersection is empty.
func (c Constraint) Intersect(other Constraint) (Constraint, bool) {
	out := c

	if other.hasMin {
		switch {
		case !out.hasMin:
			out.hasMin, out.min, out.minInclusive = true, other.min, other.minInclusive
		default:
			cmp := Compare(other.min, out.min)
			if cmp > 0 {
				out.min, out.minInclusive = other.min, other.minInclusive
			} else if cmp == 0 && !other.minInclusive {
				out.minInclusive = false
			}
		}
	}

	if other.hasMax {
		switch {
		case !out.hasMax:
			out.hasMax, out.max, out.maxInclusive = true, other.max, other.maxInclusive
		default:
			cmp := Compare(other.max, out.max)
			if cmp < 0 {
				out.max, out.maxInclusive = other.max, other.maxInclusive
			} else if cmp == 0 && !other.maxInclusive {
				out.maxInclusive = false
			}
		}
	}

	if out.hasMin && out.hasMax {
		cmp := Compare(out.min, out.max)
		if cmp > 0 {
			return Constraint{}, false
		}
		if cmp == 0 && (!out.minInclusive || !out.maxInclusive) {
			return Constraint{}, false
		}
	}

	return out, true
}

// String returns the canonical textual form of the constraint.
// Re-parsing the result yields an equal constraint.
func (c Constraint) String() string {
	if c.IsAny() {
		return "*"
	}
	if c.hasMin && c.hasMax && c.minInclusive && c.maxInclusive && Equal(c.min, c.max) {
		return "= " + c.min.String()
	}

	var parts []string
	if c.hasMin {
		op := ">="
		if !c.minInclusive {
			op = ">"
		}
		parts = append(parts, op+" "+c.min.String())
	}
	if c.hasMax {
		op := "<="
		if !c.maxInclusive {
			op = "<"
		}
		parts = append(parts, op+" "+c.max.String())
	}
	return strings.Join(parts, " ")
}

// MarshalYAML serializes the constraint as its canonical string.
func (c Constraint) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML parses the constraint from its string form.
func (c *Constraint) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseConstraint(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
