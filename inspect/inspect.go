// Package inspect describes a decoded module: its sections with their
// byte ranges, its function index space, and function bodies in a flat
// text form.
package inspect

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/traverse"
	"github.com/wippyai/wasmedit/wasm"
)

// Section describes one top-level section. Start and End cover the id
// byte through the end of the body and are -1 for sections that were not
// decoded from bytes.
type Section struct {
	Name    string
	Custom  string
	Start   int
	End     int
	Size    uint32
	Entries int
	ID      byte
	// Opaque sections are kept as raw bytes and have no entry count.
	Opaque bool
}

// Func describes one entry of the function index space.
type Func struct {
	Import   string
	Exports  []string
	Type     wasm.FuncType
	Index    uint32
	TypeIdx  uint32
	Locals   int
	Instrs   int
	Imported bool
}

// Summary is the overview printed by the inspect command.
type Summary struct {
	Sections []Section
	Funcs    []Func
}

// Summarize collects sections and functions of m.
func Summarize(m *wasm.Module) (*Summary, error) {
	s := &Summary{}
	for _, sec := range m.Sections {
		s.Sections = append(s.Sections, describeSection(sec))
	}

	exports := make(map[uint32][]string)
	for _, e := range m.Exports() {
		if e.Kind == wasm.KindFunc {
			exports[e.Index.Value] = append(exports[e.Index.Value], e.Name)
		}
	}

	var idx uint32
	for _, imp := range m.Imports() {
		if imp.Desc.Kind != wasm.KindFunc {
			continue
		}
		f := Func{
			Index:    idx,
			Imported: true,
			Import:   imp.Module + "." + imp.Name,
			TypeIdx:  imp.Desc.TypeIdx.Value,
			Exports:  exports[idx],
		}
		s.Funcs = append(s.Funcs, f)
		idx++
	}
	if fs := wasm.FindSection[*wasm.FuncSection](m); fs != nil {
		codes := m.Codes()
		for i, ti := range fs.TypeIdxs {
			f := Func{Index: idx, TypeIdx: ti, Exports: exports[idx]}
			if i < len(codes) {
				f.Locals = len(codes[i].FlattenLocals())
			}
			s.Funcs = append(s.Funcs, f)
			idx++
		}
	}

	types := m.Types()
	for i := range s.Funcs {
		ti := s.Funcs[i].TypeIdx
		if int(ti) >= len(types) {
			return nil, errors.OutOfBounds(errors.PhaseLoad, []string{fmt.Sprintf("func[%d]", s.Funcs[i].Index)}, int(ti), len(types))
		}
		s.Funcs[i].Type = types[ti]
	}

	counts := make(map[uint32]int)
	err := traverse.Walk(m, &traverse.Visitor{
		Instr: func(c *traverse.InstrContext) { counts[c.FuncIdx]++ },
	})
	if err != nil {
		return nil, err
	}
	for i := range s.Funcs {
		s.Funcs[i].Instrs = counts[s.Funcs[i].Index]
	}
	return s, nil
}

func describeSection(sec wasm.Section) Section {
	out := Section{ID: sec.ID(), Name: wasm.SectionName(sec.ID()), Start: -1, End: -1}
	size := sec.SizeField()
	out.Size = size.Value
	if size.HasSpan() {
		out.Start = size.Start - 1
		out.End = size.End + int(size.Value)
	}

	switch s := sec.(type) {
	case *wasm.TypeSection:
		out.Entries = len(s.Types)
	case *wasm.ImportSection:
		out.Entries = len(s.Imports)
	case *wasm.FuncSection:
		out.Entries = len(s.TypeIdxs)
	case *wasm.TableSection:
		out.Entries = len(s.Tables)
	case *wasm.MemorySection:
		out.Entries = len(s.Memories)
	case *wasm.GlobalSection:
		out.Entries = len(s.Globals)
	case *wasm.ExportSection:
		out.Entries = len(s.Exports)
	case *wasm.CodeSection:
		out.Entries = len(s.Funcs)
	case *wasm.DataSection:
		out.Entries = len(s.Segments)
	case *wasm.UnknownSection:
		out.Opaque = true
		out.Custom = s.CustomName()
		if !size.HasSpan() {
			out.Size = uint32(len(s.Payload))
		}
	}
	return out
}

// WriteSummary prints s as two aligned tables.
func WriteSummary(w io.Writer, s *Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tRANGE\tSIZE\tENTRIES")
	for _, sec := range s.Sections {
		name := sec.Name
		if sec.Custom != "" {
			name += " " + quote(sec.Custom)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", name, sec.Range(), sec.Size, entries(sec))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "FUNC\tTYPE\tLOCALS\tINSTRS\tNAME")
	for _, f := range s.Funcs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", f.Index, f.Type, f.Locals, f.Instrs, f.Label())
	}
	return tw.Flush()
}

// Range renders the section's byte range in hex.
func (s Section) Range() string {
	if s.Start < 0 {
		return "-"
	}
	return fmt.Sprintf("0x%x-0x%x", s.Start, s.End)
}

// Label names a function by its import and exports.
func (f Func) Label() string {
	var parts []string
	if f.Imported {
		parts = append(parts, "import "+f.Import)
	}
	for _, e := range f.Exports {
		parts = append(parts, "export "+quote(e))
	}
	return strings.Join(parts, ", ")
}

func entries(s Section) string {
	if s.Opaque {
		return "-"
	}
	return fmt.Sprint(s.Entries)
}

func quote(s string) string { return fmt.Sprintf("%q", s) }
