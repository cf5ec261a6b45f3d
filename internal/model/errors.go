package model

import "fmt"

// MinComparables is the smallest valid comparable set the ranking
// engine accepts.
const MinComparables = 3

// InsufficientDataError reports fewer valid arm's-length comparables
// than the engine requires. It is fatal; no partial result is produced.
type InsufficientDataError struct {
	Valid    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient comparable data: %d valid arm's-length comparables, need at least %d", e.Valid, e.Required)
}

// AttributeTypeError reports a non-numeric attribute value on a
// property in ranking scope. Fatal: silently skipping the value would
// corrupt every downstream composite score.
type AttributeTypeError struct {
	PropertyID string
	Attribute  string
	Value      any
}

func (e *AttributeTypeError) Error() string {
	return fmt.Sprintf("attribute %q on property %q is not numeric (got %T)", e.Attribute, e.PropertyID, e.Value)
}

// MissingAttributeError reports a ranking attribute absent from a
// property in scope.
type MissingAttributeError struct {
	PropertyID string
	Attribute  string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("attribute %q is missing on property %q", e.Attribute, e.PropertyID)
}
