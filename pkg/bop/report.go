package bop

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chazu/brep/pkg/topo"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// DiagnosticKind classifies what went wrong.
type DiagnosticKind int

const (
	// NonConvergence: the geometry collaborator could not resolve a pair;
	// the pair was treated as not interfering.
	NonConvergence DiagnosticKind = iota
	// ToleranceWidened: a working tolerance was raised to match the
	// observed geometry.
	ToleranceWidened
	// InvalidInput: an operand failed the validity pre-check.
	InvalidInput
	// FaceBuildFailed: a face could not be rebuilt from its split edges.
	FaceBuildFailed
	// OpenResult: the kept faces do not close where a solid was expected.
	OpenResult
	// ClassificationFailed: a face piece could not be classified.
	ClassificationFailed
)

func (k DiagnosticKind) String() string {
	switch k {
	case NonConvergence:
		return "non-convergence"
	case ToleranceWidened:
		return "tolerance-widened"
	case InvalidInput:
		return "invalid-input"
	case FaceBuildFailed:
		return "face-build-failed"
	case OpenResult:
		return "open-result"
	case ClassificationFailed:
		return "classification-failed"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic is one entry of the side channel of a Boolean operation.
type Diagnostic struct {
	Severity Severity
	Kind     DiagnosticKind
	// Shapes are the DS indices of the shapes involved, if any.
	Shapes  []int
	Message string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", d.Severity, d.Kind)
	if len(d.Shapes) > 0 {
		fmt.Fprintf(&b, " %v", d.Shapes)
	}
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	return b.String()
}

// Report collects diagnostics. It is safe for concurrent use.
type Report struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (r *Report) add(sev Severity, kind DiagnosticKind, msg string, shapes ...int) {
	d := Diagnostic{Severity: sev, Kind: kind, Shapes: shapes, Message: msg}
	if sev == SeverityError {
		tracer().Errorf("%s", d)
	} else {
		tracer().Debugf("%s", d)
	}
	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()
}

// Warnf adds a warning.
func (r *Report) Warnf(kind DiagnosticKind, shapes []int, format string, args ...interface{}) {
	r.add(SeverityWarning, kind, fmt.Sprintf(format, args...), shapes...)
}

// Errorf adds an error.
func (r *Report) Errorf(kind DiagnosticKind, shapes []int, format string, args ...interface{}) {
	r.add(SeverityError, kind, fmt.Sprintf(format, args...), shapes...)
}

// Diagnostics returns the collected diagnostics ordered by severity, kind,
// shapes and message, so that the order does not depend on scheduling.
func (r *Report) Diagnostics() []Diagnostic {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	out := append([]Diagnostic(nil), r.diags...)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if c := compareInts(a.Shapes, b.Shapes); c != 0 {
			return c < 0
		}
		return a.Message < b.Message
	})
	return out
}

// Has reports whether a diagnostic of the given kind was collected.
func (r *Report) Has(kind DiagnosticKind) bool {
	for _, d := range r.Diagnostics() {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Report) HasErrors() bool {
	for _, d := range r.Diagnostics() {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// InputError is returned when an operand fails the validity pre-check.
type InputError struct {
	Operand  int
	Problems []topo.Problem
}

func (e *InputError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Severity == topo.SeverityError {
			msgs = append(msgs, p.Error())
		}
	}
	return fmt.Sprintf("bop: operand %d is invalid: %s", e.Operand, strings.Join(msgs, "; "))
}
