package domain

import (
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
)

var (
	ErrStructural          = gerrors.New("structural error")
	ErrEmptyResult         = gerrors.New("no valid rows found")
	ErrConstraintViolation = gerrors.New("constraint violation")
	ErrStore               = gerrors.New("store failure")
)

type FatalKind string

const (
	KindStructural  FatalKind = "structural"
	KindEmptyResult FatalKind = "empty_result"
	KindConstraint  FatalKind = "constraint_violation"
	KindStore       FatalKind = "store"
)

// FatalImportError aborts a run. The store is left as it was before the run started.
type FatalImportError struct {
	Kind     FatalKind
	Message  string
	Expected []string
	Found    []string
	Err      error
}

func (e *FatalImportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected: %s; found: %s)", quoteJoin(e.Expected), quoteJoin(e.Found))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FatalImportError) Unwrap() error { return e.Err }

func (e *FatalImportError) Is(target error) bool {
	switch target {
	case ErrStructural:
		return e.Kind == KindStructural
	case ErrEmptyResult:
		return e.Kind == KindEmptyResult
	case ErrConstraintViolation:
		return e.Kind == KindConstraint
	case ErrStore:
		return e.Kind == KindStore
	}
	return false
}

func quoteJoin(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func NewStructuralError(message string, expected, found []string) *FatalImportError {
	return &FatalImportError{Kind: KindStructural, Message: message, Expected: expected, Found: found}
}

func NewEmptyResultError() *FatalImportError {
	return &FatalImportError{Kind: KindEmptyResult, Message: "no valid rows found"}
}

// ClassifyStoreError wraps a failure raised inside a unit of work.
func ClassifyStoreError(message string, err error) *FatalImportError {
	var fatal *FatalImportError
	if gerrors.As(err, &fatal) {
		return fatal
	}
	kind := KindStore
	if gerrors.Is(err, ErrConstraintViolation) {
		kind = KindConstraint
	}
	return &FatalImportError{Kind: kind, Message: message, Err: err}
}

// ConstraintError is an integrity violation reported by the database.
type ConstraintError struct {
	Code       string
	Constraint string
	Table      string
	Detail     string
	Err        error
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("constraint violation %s", e.Code)
	if e.Constraint != "" {
		msg += " on " + e.Constraint
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

type RejectionReason string

const (
	ReasonMissingRequired RejectionReason = "missing_required"
	ReasonInvalidValue    RejectionReason = "invalid_value"
	ReasonDuplicate       RejectionReason = "duplicate"
)

// Rejection explains why a source row was skipped.
type Rejection struct {
	Sheet  string          `json:"sheet"`
	Line   int             `json:"line"`
	Reason RejectionReason `json:"reason"`
	Fields []string        `json:"fields,omitempty"`
}

func (r Rejection) String() string {
	if len(r.Fields) == 0 {
		return fmt.Sprintf("%s line %d: %s", r.Sheet, r.Line, r.Reason)
	}
	return fmt.Sprintf("%s line %d: %s (%s)", r.Sheet, r.Line, r.Reason, strings.Join(r.Fields, ", "))
}

// Warning is a non-fatal problem in a best-effort step.
type Warning struct {
	Table   Table  `json:"table"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
