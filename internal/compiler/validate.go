package compiler

import (
	"fmt"
	"reflect"
	"regexp"
)

// validateConstraint implements spec.md §4.E step 6's value-shape checks
// for one field's Constraint, given the Go type the field will ultimately
// be assigned to.
func validateConstraint(typeName, fieldName string, c *Constraint, fieldType reflect.Type) error {
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("%s.%s: constraint min %d exceeds max %d", typeName, fieldName, *c.Min, *c.Max)
	}
	if c.Default != nil {
		if err := checkRange(typeName, fieldName, c, c.Default); err != nil {
			return err
		}
		if c.Pattern != "" {
			s, ok := c.Default.(string)
			if !ok {
				return fmt.Errorf("%s.%s: pattern constraint requires a string default, got %T", typeName, fieldName, c.Default)
			}
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return fmt.Errorf("%s.%s: invalid pattern %q: %w", typeName, fieldName, c.Pattern, err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("%s.%s: default %q does not match pattern %q", typeName, fieldName, s, c.Pattern)
			}
		}
	}
	if c.Enum != nil {
		if len(c.Enum) == 0 {
			return fmt.Errorf("%s.%s: enum constraint declared with zero values", typeName, fieldName)
		}
		if c.Default != nil && !enumContains(c.Enum, c.Default) {
			return fmt.Errorf("%s.%s: default %v is not one of the declared enum values", typeName, fieldName, c.Default)
		}
	}
	if (c.Min != nil || c.Max != nil || len(c.Enum) > 0) && fieldType.Kind() == reflect.Slice && fieldType.Elem().Kind() != reflect.Uint8 {
		return fmt.Errorf("%s.%s: min/max/enum constraints are mutually exclusive with an array field", typeName, fieldName)
	}
	return nil
}

func checkRange(typeName, fieldName string, c *Constraint, v any) error {
	i, ok := toComparableInt(v)
	if !ok {
		return nil
	}
	if c.Min != nil && i < *c.Min {
		return fmt.Errorf("%s.%s: default %d is below min %d", typeName, fieldName, i, *c.Min)
	}
	if c.Max != nil && i > *c.Max {
		return fmt.Errorf("%s.%s: default %d exceeds max %d", typeName, fieldName, i, *c.Max)
	}
	return nil
}

func toComparableInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
