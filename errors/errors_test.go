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
		excludes []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseDecode,
				Kind:    KindTruncated,
				Section: "code",
				Path:    []string{"func", "3"},
				Offset:  0x2a,
				Detail:  "body ends early",
			},
			contains: []string{"[decode]", "truncated", "code section", "func.3", "offset 0x2a", "body ends early"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindOutOfBounds,
				Offset: NoOffset,
			},
			contains: []string{"[encode]", "out_of_bounds"},
			excludes: []string{"offset", "section"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindTrap,
				Detail: "unreachable executed",
				Cause:  errors.New("underlying error"),
				Offset: NoOffset,
			},
			contains: []string{"[runtime]", "trap", "unreachable executed", "caused by", "underlying error"},
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
			for _, s := range tt.excludes {
				if strings.Contains(msg, s) {
					t.Errorf("error message %q should not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhasePatch, KindInvalidData, cause, "patch section size")

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause in chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindUnsupported,
		Path:  []string{"opcode"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindUnsupported}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindUnsupported}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindTruncated}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindUnsupported}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindInvalidData).
		Section("import").
		Offset(17).
		Path("import", "0").
		Value(byte(0x05)).
		Cause(cause).
		Detail("unknown import kind 0x%02x", 0x05).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindInvalidData {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidData)
	}
	if err.Section != "import" {
		t.Errorf("Section = %q, want import", err.Section)
	}
	if err.Offset != 17 {
		t.Errorf("Offset = %d, want 17", err.Offset)
	}
	if len(err.Path) != 2 || err.Path[0] != "import" || err.Path[1] != "0" {
		t.Errorf("Path = %v, want [import 0]", err.Path)
	}
	if err.Value != byte(0x05) {
		t.Errorf("Value = %v, want 5", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "unknown import kind 0x05" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestBuilder_DefaultOffset(t *testing.T) {
	err := New(PhaseTransform, KindNotFound).Build()
	if err.Offset != NoOffset {
		t.Errorf("Offset = %d, want NoOffset", err.Offset)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseDecode, "opcode 0xfd")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		err := Truncated(PhaseDecode, 9, nil)
		if err.Kind != KindTruncated || err.Offset != 9 {
			t.Errorf("got %v", err)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseTransform, []string{"func"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseDecode, 3, "u32")
		if !strings.Contains(err.Error(), "u32") {
			t.Errorf("Error() = %q, should name the target type", err.Error())
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseTransform, "import", "fd_write")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, "fd_write") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("AlreadyApplied", func(t *testing.T) {
		err := AlreadyApplied("memory-grow")
		if err.Phase != PhaseTransform || err.Kind != KindAlreadyApplied {
			t.Errorf("got %v", err)
		}
	})

	t.Run("Instantiation", func(t *testing.T) {
		cause := errors.New("bad import")
		err := Instantiation(cause)
		if !errors.Is(err, cause) {
			t.Error("cause lost")
		}
	})

	t.Run("Trap", func(t *testing.T) {
		cause := errors.New("wasm error: unreachable")
		err := Trap("run", cause)
		if err.Kind != KindTrap || !errors.Is(err, cause) {
			t.Errorf("got %v", err)
		}
		if !strings.Contains(err.Error(), "run") {
			t.Errorf("export missing from %q", err.Error())
		}
	})
}
