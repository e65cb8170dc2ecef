package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Where locates an error within the compilation: the ABC file index plus,
// when known, the class and method it was raised against. Nil fields mean
// "not applicable" (e.g. a global-trait conflict has no Method).
type Where struct {
	ABCFile string `json:"abc_file,omitempty"`
	Class   string `json:"class,omitempty"`
	Method  string `json:"method,omitempty"`
}

// Report is the canonical structured error type for marianac. All error
// constructors in this module return *Report, wrapped as *ReportError so
// callers can still use errors.As to recover the structure.
type Report struct {
	Schema  string         `json:"schema"` // always "mariana.error/v1"
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	At      *Where         `json:"at,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report as an error.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown compile error"
	}
	if e.Rep.At != nil && e.Rep.At.Class != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Rep.Code, e.Rep.Message, e.Rep.At.Class)
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport attempts to extract a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// New builds a Report for the given code and formats Message with args.
func New(code string, at *Where, format string, args ...any) error {
	info, _ := GetInfo(code)
	return &ReportError{Rep: &Report{
		Schema:  "mariana.error/v1",
		Code:    code,
		Phase:   info.Phase,
		Message: fmt.Sprintf(format, args...),
		At:      at,
	}}
}

// WithData attaches structured data to a Report-backed error. Err must have
// been produced by New; otherwise it is returned unchanged.
func WithData(err error, data map[string]any) error {
	re, ok := err.(*ReportError)
	if !ok || re.Rep == nil {
		return err
	}
	re.Rep.Data = data
	return re
}

// ToJSON serializes a Report deterministically.
func (r *Report) ToJSON(compact bool) (string, error) {
	if compact {
		b, err := json.Marshal(r)
		return string(b), err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	return string(b), err
}
