package grid

import (
	"encoding/json"
	"slices"
)

// ResolutionMethod records how a cell's authoritative value was fixed.
type ResolutionMethod string

// Valid resolution methods. MethodNone marks an unresolved cell;
// MethodAuto is machine resolution; the rest are human actions.
const (
	MethodNone   ResolutionMethod = "none"
	MethodAuto   ResolutionMethod = "auto"
	MethodSelect ResolutionMethod = "select"
	MethodMerge  ResolutionMethod = "merge"
	MethodNA     ResolutionMethod = "n_a"
)

var resolutionMethods = []ResolutionMethod{
	MethodNone,
	MethodAuto,
	MethodSelect,
	MethodMerge,
	MethodNA,
}

// Human reports whether the method represents a human resolution action.
func (m ResolutionMethod) Human() bool {
	return m == MethodSelect || m == MethodMerge || m == MethodNA
}

// UnmarshalJSON validates that the decoded string is a known resolution method.
func (m *ResolutionMethod) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := ResolutionMethod(raw)
	if !slices.Contains(resolutionMethods, v) {
		return ErrInvalidResolutionMethod
	}
	*m = v
	return nil
}

// ParseResolutionMethod validates a string as a known resolution method.
func ParseResolutionMethod(s string) (ResolutionMethod, error) {
	v := ResolutionMethod(s)
	if !slices.Contains(resolutionMethods, v) {
		return "", ErrInvalidResolutionMethod
	}
	return v, nil
}
