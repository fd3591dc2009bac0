package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Phase indicates where in the bridge lifecycle the error occurred
type Phase string

const (
	PhaseConfig  Phase = "config"  // environment and options
	PhaseLoad    Phase = "load"    // shared library loading
	PhaseResolve Phase = "resolve" // symbol lookup
	PhaseRuntime Phase = "runtime" // calls into a live interpreter
	PhaseEncode  Phase = "encode"  // Go to foreign object
	PhaseDecode  Phase = "decode"  // foreign object to Go
)

// Kind categorizes the error
type Kind string

const (
	KindConfigMissing    Kind = "config_missing"
	KindLoadFailed       Kind = "load_failed"
	KindSymbolMissing    Kind = "symbol_missing"
	KindNotInitialized   Kind = "not_initialized"
	KindForeignException Kind = "foreign_exception"
	KindUnsupported      Kind = "unsupported"
	KindOverflow         Kind = "overflow"
	KindTypeMismatch     Kind = "type_mismatch"
	KindInvalidInput     Kind = "invalid_input"
	KindNullReference    Kind = "null_reference"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value       any
	Cause       error
	Phase       Phase
	Kind        Kind
	GoType      string
	ForeignType string
	Symbol      string
	Detail      string
	Path        []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Symbol != "" {
		b.WriteString(" ")
		b.WriteString(e.Symbol)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.ForeignType != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.ForeignType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", foreign type ")
			b.WriteString(e.ForeignType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("foreign type ")
			b.WriteString(e.ForeignType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.ForeignType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ForeignType sets the foreign type name
func (b *Builder) ForeignType(t string) *Builder {
	b.err.ForeignType = t
	return b
}

// Symbol sets the C symbol involved
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MissingEnv creates a configuration error for an unset environment variable
func MissingEnv(name string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindConfigMissing,
		Detail: fmt.Sprintf("environment variable %s is not set", name),
		Value:  name,
	}
}

// LoadFailed creates a library loading error
func LoadFailed(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoadFailed,
		Detail: fmt.Sprintf("open %s", path),
		Value:  path,
		Cause:  cause,
	}
}

// SymbolMissing creates a symbol resolution error
func SymbolMissing(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindSymbolMissing,
		Symbol: name,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing or closed session
func NotInitialized(component string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// ForeignException creates an error describing an exception raised inside the interpreter
func ForeignException(typeName, message string) *Error {
	return &Error{
		Phase:       PhaseRuntime,
		Kind:        KindForeignException,
		ForeignType: typeName,
		Detail:      message,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:       phase,
		Kind:        KindOverflow,
		Path:        path,
		ForeignType: targetType,
		Detail:      fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:       value,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, foreignType string) *Error {
	return &Error{
		Phase:       phase,
		Kind:        KindTypeMismatch,
		Path:        path,
		GoType:      goType,
		ForeignType: foreignType,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NullReference creates an error for a call that produced no object
func NullReference(phase Phase, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullReference,
		Detail: fmt.Sprintf("%s returned no object", op),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingSymbolsError is returned when a loaded library lacks required entry points
type MissingSymbolsError struct {
	Library string
	Symbols []string
}

// NewMissingSymbolsError creates an error listing every absent symbol
func NewMissingSymbolsError(library string, symbols []string) *MissingSymbolsError {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	return &MissingSymbolsError{
		Library: library,
		Symbols: sorted,
	}
}

func (e *MissingSymbolsError) Error() string {
	if len(e.Symbols) == 0 {
		return "[resolve] symbol_missing: no symbols specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d symbol(s)", len(e.Symbols))
	if e.Library != "" {
		b.WriteString(" in ")
		b.WriteString(e.Library)
	}
	b.WriteByte(':')
	for _, s := range e.Symbols {
		b.WriteString("\n  - ")
		b.WriteString(s)
	}
	return b.String()
}

// Is reports whether target matches this error type. A MissingSymbolsError
// also matches the resolve/symbol_missing *Error sentinel.
func (e *MissingSymbolsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingSymbolsError:
		return true
	case *Error:
		return t.Phase == PhaseResolve && t.Kind == KindSymbolMissing
	}
	return false
}
