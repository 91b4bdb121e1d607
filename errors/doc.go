// Package errors provides structured error types for wasmedit.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the section being processed, the absolute byte
// offset in the input buffer, a field path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Section("code").
//		Offset(0x1f).
//		Detail("function body ends early").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseDecode, "opcode 0xfd")
//	err := errors.NotFound(errors.PhaseTransform, "import", "fd_write")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
