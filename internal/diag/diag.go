// Package diag formats compiler diagnostics with source context, following
// the three-way split of spec.md §7: user errors abort with exit 42,
// warnings are informational only, and internal errors abort with exit 1.
//
// The formatting (caret pointing at the column, dimmed context lines) is a
// direct generalization of the teacher's internal/errors.CompilerError to
// carry a compiler Phase alongside the message.
package diag

import (
	"fmt"
	"strings"

	"github.com/CatMachina/Java-Subset-Joos-Compiler-sub000/internal/source"
)

// Kind distinguishes the three diagnostic kinds of spec.md §7.
type Kind int

const (
	// KindUser is a user-fixable error: abort compilation, exit 42.
	KindUser Kind = iota
	// KindWarning is informational only; does not affect exit status.
	KindWarning
	// KindInternal is an invariant violation: abort, exit 1.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "error"
	case KindWarning:
		return "warning"
	case KindInternal:
		return "internal error"
	default:
		return "diagnostic"
	}
}

// Phase names the pass that raised a diagnostic; tests assert on it
// (spec.md §8's scenario table asserts phase).
type Phase string

const (
	PhaseParse        Phase = "parse"
	PhaseWeeder       Phase = "weeder"
	PhaseTypeLink      Phase = "type-link"
	PhaseHierarchy     Phase = "hierarchy"
	PhaseNameResolution Phase = "name-resolution"
	PhaseStaticResolver Phase = "static-resolver"
	PhaseReachability  Phase = "reachability"
	PhaseDeadAssignment Phase = "dead-assignment"
	PhaseTIR           Phase = "tir"
	PhaseCodegen       Phase = "codegen"
)

// Diagnostic is a single compiler message with position and phase.
type Diagnostic struct {
	Kind    Kind
	Phase   Phase
	Message string
	Pos     source.Position
}

// Error implements the error interface so a Diagnostic can be returned and
// wrapped like any other Go error (and aggregated with multierr).
func (d *Diagnostic) Error() string {
	return d.Format(nil, false)
}

// Format renders the diagnostic with source context drawn from mgr, if
// non-nil. Mirrors the teacher's CompilerError.Format.
func (d *Diagnostic) Format(mgr *source.Manager, color bool) string {
	var sb strings.Builder

	file := "<unknown>"
	if mgr != nil {
		file = mgr.Name(d.Pos.File)
	}
	sb.WriteString(fmt.Sprintf("%s: %s:%d:%d: [%s] %s\n",
		strings.ToUpper(d.Kind.String()[:1])+d.Kind.String()[1:], file, d.Pos.Line, d.Pos.Column, d.Phase, d.Message))

	if mgr != nil {
		line := sourceLine(mgr.Content(d.Pos.File), d.Pos.Line)
		if line != "" {
			lineNumStr := fmt.Sprintf("%4d | ", d.Pos.Line)
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+max(d.Pos.Column-1, 0)))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func sourceLine(content string, lineNum int) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// New builds a user-error diagnostic, the common case every pass reports.
func New(phase Phase, pos source.Position, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: KindUser, Phase: phase, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// NewWarning builds a warning diagnostic.
func NewWarning(phase Phase, pos source.Position, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: KindWarning, Phase: phase, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an internal-error diagnostic for invariant violations.
func Internal(phase Phase, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: KindInternal, Phase: phase, Message: fmt.Sprintf(format, args...)}
}

// FormatAll renders a batch of diagnostics, one per line group.
func FormatAll(diags []*Diagnostic, mgr *source.Manager, color bool) string {
	var sb strings.Builder
	for i, d := range diags {
		sb.WriteString(d.Format(mgr, color))
		if i < len(diags)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// ExitCode maps a diagnostic batch to the process exit code spec.md §6
// requires: 0 if no user/internal errors, 42 if any user error, 1 if any
// internal error (checked first: an internal error always wins).
func ExitCode(diags []*Diagnostic) int {
	sawUser := false
	for _, d := range diags {
		if d.Kind == KindInternal {
			return 1
		}
		if d.Kind == KindUser {
			sawUser = true
		}
	}
	if sawUser {
		return 42
	}
	return 0
}
