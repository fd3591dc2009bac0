package bridge

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/wippyai/pybridge/errors"
)

// Mode selects how source text is compiled.
type Mode int32

// Start symbols from the interpreter's grammar.
const (
	ModeStatement  Mode = 256 // Py_single_input: one interactive statement
	ModeModule     Mode = 257 // Py_file_input: a sequence of statements
	ModeExpression Mode = 258 // Py_eval_input: a single expression
)

func (m Mode) String() string {
	switch m {
	case ModeStatement:
		return "statement"
	case ModeModule:
		return "module"
	case ModeExpression:
		return "expression"
	default:
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
}

// Valid reports whether m is one of the three start symbols.
func (m Mode) Valid() bool {
	return m >= ModeStatement && m <= ModeExpression
}

// ParseMode accepts "statement", "module" or "expression" and the short
// forms "single", "exec", "file" and "eval".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "statement", "single":
		return ModeStatement, nil
	case "module", "exec", "file":
		return ModeModule, nil
	case "expression", "eval":
		return ModeExpression, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown execution mode %q", s))
}

// Run compiles and executes src in the given namespaces. A nil globals uses
// the __main__ namespace; a nil locals uses globals. The result is the
// expression value in ModeExpression and None otherwise, or null if the code
// raised, in which case the exception is pending.
func (b Bridge) Run(src string, mode Mode, globals, locals Handle) (Owned, error) {
	if !mode.Valid() {
		return Owned{}, errors.InvalidInput(errors.PhaseRuntime, fmt.Sprintf("invalid execution mode %d", int32(mode)))
	}
	fn, err := bind[func(string, int32, uintptr, uintptr, unsafe.Pointer) uintptr](b.s, "PyRun_StringFlags")
	if err != nil {
		return Owned{}, err
	}

	g := refOf(globals)
	if g.IsNull() {
		main, err := b.MainDict()
		if err != nil {
			return Owned{}, err
		}
		if main.IsNull() {
			return Owned{}, errors.NullReference(errors.PhaseRuntime, "__main__ namespace")
		}
		g = main.Ref
	}
	l := refOf(locals)
	if l.IsNull() {
		l = g
	}

	return b.s.acquire(fn(src, int32(mode), uintptr(g), uintptr(l), nil), "PyRun_StringFlags"), nil
}

// RunSimple executes src as a module in __main__ and reports whether it
// completed. On failure the interpreter prints the traceback itself and
// nothing is left pending.
func (b Bridge) RunSimple(src string) (bool, error) {
	fn, err := bind[func(string, unsafe.Pointer) int32](b.s, "PyRun_SimpleStringFlags")
	if err != nil {
		return false, err
	}
	return fn(src, nil) == 0, nil
}
