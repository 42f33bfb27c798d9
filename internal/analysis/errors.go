package analysis

import "fmt"

// AnalysisError is a transport failure talking to the text-generation
// service. It aborts the async phase.
type AnalysisError struct {
	Op  string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Parse failure kinds
const (
	ParseNoJSON      = "no_json"
	ParseInvalidJSON = "invalid_json"
	ParseSchema      = "schema"
	ParseDecode      = "decode"
)

// ParseError means the model answered but not in the expected shape. It is
// mapped to a fallback value and never reaches the applicant.
type ParseError struct {
	Kind   string
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse model output: " + e.Kind
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
