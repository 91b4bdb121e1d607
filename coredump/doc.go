// Package coredump instruments a module so that a trap leaves a record of
// the call stack in linear memory, and reads that record back.
//
// The record starts at offset 0 of memory 0:
//
//	offset 0  u32 frame count
//	offset 4  u32 offset of the next frame, 0 until the first frame
//	offset 8  frames
//
// and every frame is
//
//	u32 function index | u32 value count | u32 value * value count
//
// Frames are appended innermost first while the stack unwinds. Values are
// the function's parameters followed by its first declared locals, each
// squeezed into 32 bits without trapping: i64 is wrapped, f32 is
// reinterpreted, f64 is reinterpreted and wrapped.
package coredump
