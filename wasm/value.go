package wasm

// Value pairs a decoded node with the half-open byte range [Start, End) it
// occupied in the source buffer. Nodes built in memory carry an empty range
// and can only reach the output through full re-encoding.
type Value[T any] struct {
	Value T
	Start int
	End   int
}

// NewValue wraps v with an empty source range.
func NewValue[T any](v T) Value[T] {
	return Value[T]{Value: v}
}

// HasSpan reports whether the value still refers to source bytes.
func (v Value[T]) HasSpan() bool {
	return v.End > v.Start
}

// Len returns the number of source bytes the value occupied.
func (v Value[T]) Len() int {
	return v.End - v.Start
}
