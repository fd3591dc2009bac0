package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:       PhaseEncode,
				Kind:        KindOverflow,
				Path:        []string{"config", "limits", "max"},
				GoType:      "uint64",
				ForeignType: "int",
				Detail:      "too large",
			},
			contains: []string{"[encode]", "overflow", "config.limits.max", "uint64", "int", "too large"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindUnsupported,
			},
			contains: []string{"[decode]", "unsupported"},
		},
		{
			name: "symbol with cause",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindSymbolMissing,
				Symbol: "Py_Is",
				Cause:  errors.New("undefined symbol"),
			},
			contains: []string{"[resolve]", "symbol_missing", "Py_Is", "caused by", "undefined symbol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := LoadFailed("/nope/libpython3.so", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := MissingEnv("PYBRIDGE_LIBRARY")

	if !errors.Is(err, &Error{Phase: PhaseConfig, Kind: KindConfigMissing}) {
		t.Error("errors.Is should match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindConfigMissing}) {
		t.Error("errors.Is should not match a different phase")
	}
	if errors.Is(err, &Error{Phase: PhaseConfig, Kind: KindLoadFailed}) {
		t.Error("errors.Is should not match a different kind")
	}

	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("errors.As should extract *Error")
	}
	if target.Value != "PYBRIDGE_LIBRARY" {
		t.Errorf("Value = %v, want PYBRIDGE_LIBRARY", target.Value)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindTypeMismatch).
		Path("user", "name").
		GoType("chan int").
		ForeignType("object").
		Symbol("PyDict_SetItem").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "chan").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [user name]", err.Path)
	}
	if err.GoType != "chan int" {
		t.Errorf("GoType = %v, want 'chan int'", err.GoType)
	}
	if err.ForeignType != "object" {
		t.Errorf("ForeignType = %v, want 'object'", err.ForeignType)
	}
	if err.Symbol != "PyDict_SetItem" {
		t.Errorf("Symbol = %v, want PyDict_SetItem", err.Symbol)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got chan" {
		t.Errorf("Detail = %v, want 'expected string, got chan'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"MissingEnv", MissingEnv("X"), PhaseConfig, KindConfigMissing},
		{"LoadFailed", LoadFailed("lib.so", nil), PhaseLoad, KindLoadFailed},
		{"SymbolMissing", SymbolMissing("Py_Foo", nil), PhaseResolve, KindSymbolMissing},
		{"NotInitialized", NotInitialized("bridge"), PhaseRuntime, KindNotInitialized},
		{"ForeignException", ForeignException("ValueError", "bad"), PhaseRuntime, KindForeignException},
		{"Unsupported", Unsupported(PhaseDecode, "set"), PhaseDecode, KindUnsupported},
		{"Overflow", Overflow(PhaseEncode, nil, uint64(1<<63), "int"), PhaseEncode, KindOverflow},
		{"TypeMismatch", TypeMismatch(PhaseDecode, nil, "int", "str"), PhaseDecode, KindTypeMismatch},
		{"InvalidInput", InvalidInput(PhaseRuntime, "bad mode"), PhaseRuntime, KindInvalidInput},
		{"NullReference", NullReference(PhaseEncode, "PyDict_New"), PhaseEncode, KindNullReference},
		{"Wrap", Wrap(PhaseLoad, KindLoadFailed, errors.New("x"), "y"), PhaseLoad, KindLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}

	t.Run("ForeignException message", func(t *testing.T) {
		msg := ForeignException("ZeroDivisionError", "division by zero").Error()
		if !strings.Contains(msg, "ZeroDivisionError") || !strings.Contains(msg, "division by zero") {
			t.Errorf("message %q lacks type or detail", msg)
		}
	})
}

func TestMissingSymbolsError(t *testing.T) {
	t.Run("sorted listing", func(t *testing.T) {
		err := NewMissingSymbolsError("libpython3.12.so", []string{"Py_FinalizeEx", "Py_DecRef"})
		if len(err.Symbols) != 2 || err.Symbols[0] != "Py_DecRef" {
			t.Fatalf("Symbols = %v, want sorted", err.Symbols)
		}
		msg := err.Error()
		for _, want := range []string{"missing 2 symbol(s)", "libpython3.12.so", "- Py_DecRef", "- Py_FinalizeEx"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message %q does not contain %q", msg, want)
			}
		}
	})

	t.Run("does not alias input", func(t *testing.T) {
		in := []string{"b", "a"}
		NewMissingSymbolsError("", in)
		if in[0] != "b" {
			t.Error("input slice was reordered")
		}
	})

	t.Run("empty", func(t *testing.T) {
		msg := NewMissingSymbolsError("", nil).Error()
		if !strings.Contains(msg, "no symbols specified") {
			t.Errorf("empty error should have specific message, got: %s", msg)
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingSymbolsError("", []string{"Py_IncRef"})
		if !errors.Is(err, &MissingSymbolsError{}) {
			t.Error("errors.Is should match MissingSymbolsError")
		}
		if !errors.Is(err, &Error{Phase: PhaseResolve, Kind: KindSymbolMissing}) {
			t.Error("errors.Is should match the symbol_missing sentinel")
		}
		if errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindLoadFailed}) {
			t.Error("errors.Is should not match load_failed")
		}
	})
}
