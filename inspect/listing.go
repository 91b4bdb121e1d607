package inspect

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/wasmedit/wasm"
)

// Line is one line of a function listing.
type Line struct {
	Text string
	// Start is the source offset of the instruction, -1 for inserted
	// instructions and for the synthetic else and end lines.
	Start int
	Depth int
}

// Listing renders the body of a defined function, one instruction per
// line, with else and end made explicit.
func Listing(m *wasm.Module, funcIdx uint32) ([]Line, error) {
	code, err := m.Code(funcIdx)
	if err != nil {
		return nil, err
	}

	var lines []Line
	for _, l := range code.Locals {
		lines = append(lines, Line{Text: fmt.Sprintf("local %d x %s", l.Count, l.Type), Start: -1})
	}
	lines = appendExpr(lines, m, code.Body, 0)
	return append(lines, Line{Text: "end", Start: -1}), nil
}

func appendExpr(lines []Line, m *wasm.Module, e wasm.Expr, depth int) []Line {
	for _, v := range e {
		start := -1
		if v.HasSpan() {
			start = v.Start
		}
		lines = append(lines, Line{Text: wasm.Format(v.Value, &m.Refs), Start: start, Depth: depth})

		switch imm := v.Value.Imm.(type) {
		case wasm.BlockImm:
			lines = appendExpr(lines, m, imm.Body, depth+1)
			lines = append(lines, Line{Text: "end", Start: -1, Depth: depth})
		case wasm.IfImm:
			lines = appendExpr(lines, m, imm.Then, depth+1)
			if imm.HasElse || len(imm.Else) > 0 {
				lines = append(lines, Line{Text: "else", Start: -1, Depth: depth})
				lines = appendExpr(lines, m, imm.Else, depth+1)
			}
			lines = append(lines, Line{Text: "end", Start: -1, Depth: depth})
		}
	}
	return lines
}

// WriteListing prints the listing of funcIdx with source offsets.
func WriteListing(w io.Writer, m *wasm.Module, funcIdx uint32) error {
	lines, err := Listing(m, funcIdx)
	if err != nil {
		return err
	}
	for _, l := range lines {
		off := "      "
		if l.Start >= 0 {
			off = fmt.Sprintf("%06x", l.Start)
		}
		if _, err := fmt.Fprintf(w, "%s  %s%s\n", off, strings.Repeat("  ", l.Depth), l.Text); err != nil {
			return err
		}
	}
	return nil
}
