package diag

import (
	"fmt"
	"strings"
)

// Severity is the level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind groups codes into the error taxonomy shown to users.
type Kind string

const (
	KindSchema     Kind = "SchemaError"
	KindNaming     Kind = "NamingError"
	KindConnection Kind = "ConnectionError"
	KindCycle      Kind = "CycleError"
	KindValue      Kind = "ValueWarning"
)

// Code is a stable, machine-readable identifier for a diagnostic.
type Code string

const (
	CodeMissingProperty   Code = "schema.missing_property"
	CodeTypeMismatch      Code = "schema.type_mismatch"
	CodeUnknownProperty   Code = "schema.unknown_property"
	CodeSingleton         Code = "schema.singleton_violation"
	CodeDuplicateInstance Code = "schema.duplicate_instance"

	CodeInvalidIdentifier Code = "naming.invalid_identifier"
	CodeReservedWord      Code = "naming.reserved_word"
	CodeNameCollision     Code = "naming.collision"

	CodeIncompatible      Code = "connection.incompatible"
	CodeDanglingEndpoint  Code = "connection.dangling_endpoint"
	CodeSelfLoop          Code = "connection.self_loop"
	CodeDuplicateLink     Code = "connection.duplicate"
	CodeSectionConflict   Code = "connection.section_conflict"

	CodeCycle Code = "resolve.cycle"

	CodeUnknownType      Code = "value.unknown_type"
	CodeInvalidLiteral   Code = "value.invalid_literal"
	CodeUnexpectedOption Code = "value.unexpected_option"
	CodeSuspectName      Code = "value.suspect_name"
)

// Kind returns the taxonomy bucket a code belongs to, derived from its prefix.
func (c Code) Kind() Kind {
	prefix, _, _ := strings.Cut(string(c), ".")
	switch prefix {
	case "schema":
		return KindSchema
	case "naming":
		return KindNaming
	case "connection":
		return KindConnection
	case "resolve":
		return KindCycle
	default:
		return KindValue
	}
}

// Diagnostic is a single error or warning attached to an optional canvas
// location (instance and property).
type Diagnostic struct {
	Severity   Severity `json:"severity"`
	Kind       Kind     `json:"kind"`
	Code       Code     `json:"code"`
	InstanceID string   `json:"instanceId,omitempty"`
	Property   string   `json:"propertyName,omitempty"`
	Message    string   `json:"message"`
	// Related lists other instances involved in the problem, e.g. the first
	// holder of a colliding name or the remaining members of a cycle.
	Related []string `json:"related,omitempty"`
}

// NewError creates an error diagnostic with no location.
func NewError(code Code, format string, args ...any) Diagnostic {
	return newDiagnostic(SeverityError, code, format, args...)
}

// NewWarning creates a warning diagnostic with no location.
func NewWarning(code Code, format string, args ...any) Diagnostic {
	return newDiagnostic(SeverityWarning, code, format, args...)
}

func newDiagnostic(sev Severity, code Code, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Kind:     code.Kind(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

// On returns a copy of d attached to the given instance.
func (d Diagnostic) On(instanceID string) Diagnostic {
	d.InstanceID = instanceID
	return d
}

// OnProperty returns a copy of d attached to a property of the given instance.
func (d Diagnostic) OnProperty(instanceID, property string) Diagnostic {
	d.InstanceID = instanceID
	d.Property = property
	return d
}

// WithRelated returns a copy of d that also references the given instances.
func (d Diagnostic) WithRelated(ids ...string) Diagnostic {
	d.Related = append(append([]string(nil), d.Related...), ids...)
	return d
}

// IsError reports whether the diagnostic is an error.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// String renders the diagnostic for terminals and logs.
func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(string(d.Severity))
	sb.WriteString(" [")
	sb.WriteString(string(d.Code))
	sb.WriteString("]")
	if d.InstanceID != "" {
		sb.WriteString(" ")
		sb.WriteString(d.InstanceID)
		if d.Property != "" {
			sb.WriteString(".")
			sb.WriteString(d.Property)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}
