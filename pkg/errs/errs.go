// Package errs holds the error kinds raised by the propulsion engine.
//
// ValidationError marks malformed inputs (negative values, power above a
// unit's rating, hour budget mismatches, missing source roles).
// CapacityError marks a mode whose declared load exceeds the declared
// generation. EconomicParameterError marks an unusable discount rate or
// lifetime. Callers match them with errors.As.
package errs

import (
	"fmt"
	"strconv"
)

// ValidationError reports a field that violates a construction invariant.
type ValidationError struct {
	Field  string `json:"field"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// CapacityError reports a load that the available generation cannot serve.
type CapacityError struct {
	Mode     string  `json:"mode,omitempty"`
	Load     string  `json:"load"`
	Supply   string  `json:"supply"`
	Demand   float64 `json:"demand_kw"`
	Capacity float64 `json:"capacity_kw"`
}

func (e *CapacityError) Error() string {
	load := e.Load
	if load == "" {
		load = "load"
	}
	supply := e.Supply
	if supply == "" {
		supply = "capacity"
	}
	msg := fmt.Sprintf("%s %skW exceeds %s %skW", load, num(e.Demand), supply, num(e.Capacity))
	if e.Mode != "" {
		return fmt.Sprintf("mode '%s': %s", e.Mode, msg)
	}
	return msg
}

// EconomicParameterError reports a non-positive discount rate or lifetime.
type EconomicParameterError struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
}

func (e *EconomicParameterError) Error() string {
	return fmt.Sprintf("economic parameter %s must be > 0 (got %s)", e.Parameter, num(e.Value))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
