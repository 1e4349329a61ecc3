// Package filter models the tag pre-filter applied before KNN ranking:
// every Must condition has to hold and no MustNot condition may hold.
package filter

import (
	"errors"
	"fmt"
	"slices"
)

// Limits on filter size.
const (
	MaxConditionsPerGroup = 32
	MaxValuesPerCondition = 1024
)

// ErrInvalid is wrapped by every constructor error in this package.
var ErrInvalid = errors.New("invalid filter")

// Condition holds when a tag field contains at least one of its values.
type Condition struct {
	key    string
	values []string
}

// NewMatch is NewMatchAny with a single value.
func NewMatch(key, value string) (Condition, error) {
	return NewMatchAny(key, value)
}

// NewMatchAny creates a condition over key. values are copied.
func NewMatchAny(key string, values ...string) (Condition, error) {
	switch {
	case key == "":
		return Condition{}, invalid("key is required")
	case len(values) == 0:
		return Condition{}, invalid("at least one match value is required for %q", key)
	case len(values) > MaxValuesPerCondition:
		return Condition{}, invalid("%q has %d values, max %d", key, len(values), MaxValuesPerCondition)
	case slices.Contains(values, ""):
		return Condition{}, invalid("match value is required for %q", key)
	}
	return Condition{key: key, values: slices.Clone(values)}, nil
}

// Key is the tag field name.
func (c Condition) Key() string { return c.key }

// Values are the alternatives, any of which satisfies the condition.
func (c Condition) Values() []string { return c.values }

// Expression is the conjunction of Must and negated MustNot conditions.
// The zero value matches everything.
type Expression struct {
	must    []Condition
	mustNot []Condition
}

// NewExpression groups conditions.
func NewExpression(must, mustNot []Condition) (Expression, error) {
	if n := len(must); n > MaxConditionsPerGroup {
		return Expression{}, invalid("%d must conditions, max %d", n, MaxConditionsPerGroup)
	}
	if n := len(mustNot); n > MaxConditionsPerGroup {
		return Expression{}, invalid("%d must_not conditions, max %d", n, MaxConditionsPerGroup)
	}
	return Expression{must: must, mustNot: mustNot}, nil
}

func (e Expression) Must() []Condition    { return e.must }
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether e places no restriction.
func (e Expression) IsEmpty() bool {
	return len(e.must)+len(e.mustNot) == 0
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
