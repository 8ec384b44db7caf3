// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wasmtiny-dump prints the structure of a binary module: section
// headers, raw section bytes, per-function disassembly, and per-section
// detail listings.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wasmtiny/wasmtiny/internal/bytecode"
	"github.com/wasmtiny/wasmtiny/wasm"
	"github.com/wasmtiny/wasmtiny/wasm/leb128"
	"github.com/wasmtiny/wasmtiny/wasm/operators"
)

// TODO: track the number of imported funcs,memories,tables and globals to adjust
// for their index offset when printing sections' content.

func main() {
	log.SetPrefix("wasmtiny-dump: ")
	log.SetFlags(0)

	app := &cli.App{
		Name:      "wasmtiny-dump",
		Usage:     "inspect the structure of a binary WebAssembly MVP module",
		ArgsUsage: "file1.wasm [file2.wasm [...]]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
			&cli.BoolFlag{Name: "headers", Aliases: []string{"h"}, Usage: "print section headers"},
			&cli.BoolFlag{Name: "full", Aliases: []string{"s"}, Usage: "print raw section contents"},
			&cli.BoolFlag{Name: "dis", Aliases: []string{"d"}, Usage: "disassemble function bodies"},
			&cli.BoolFlag{Name: "details", Aliases: []string{"x"}, Usage: "show section details"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("missing file1.wasm [file2.wasm [...]] argument", 1)
			}
			headers, full, dis, details := c.Bool("headers"), c.Bool("full"), c.Bool("dis"), c.Bool("details")
			if !headers && !full && !dis && !details {
				return cli.Exit("at least one of -d, -h, -x or -s must be given", 1)
			}
			wasm.SetDebugMode(c.Bool("verbose"))

			for i, fname := range c.Args().Slice() {
				if i > 0 {
					fmt.Println()
				}
				if err := process(fname, headers, full, dis, details); err != nil {
					return cli.Exit(err, 1)
				}
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func process(fname string, headers, full, dis, details bool) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	m, err := wasm.DecodeModule(f)
	if err != nil {
		return fmt.Errorf("could not decode module: %w", err)
	}

	if headers {
		printHeaders(fname, m)
	}
	if full {
		printFull(fname, m)
	}
	if dis {
		if err := printDis(fname, m); err != nil {
			return err
		}
	}
	if details {
		printDetails(fname, m)
	}
	return nil
}

func printHeaders(fname string, m *wasm.Module) {
	fmt.Printf("%s: module version: %#x\n\n", fname, m.Version)
	fmt.Printf("sections:\n\n")

	hdrfmt := "%9s start=0x%08x end=0x%08x (size=0x%08x) count: %d\n"
	if sec := m.Types; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	if sec := m.Import; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	if sec := m.Function; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Types))
	}
	if sec := m.Table; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	if sec := m.Memory; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	if sec := m.Global; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Globals))
	}
	if sec := m.Export; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	if sec := m.Start; sec != nil {
		hdrfmt := "%9s start=0x%08x end=0x%08x (size=0x%08x) start: %d\n"
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, sec.Index)
	}
	if sec := m.Elements; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	if sec := m.Code; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Bodies))
	}
	if sec := m.Data; sec != nil {
		fmt.Printf(hdrfmt, sec.ID.String(), sec.Section.Start, sec.Section.End, sec.Section.PayloadLen, len(sec.Entries))
	}
	for _, sec := range m.Other {
		fmt.Printf("%9s start=0x%08x end=0x%08x (size=0x%08x) %q\n", sec.ID.String(), sec.Start, sec.End, sec.PayloadLen, sec.Name)
	}
}

func printFull(fname string, m *wasm.Module) {
	fmt.Printf("%s: module version: %#x\n\n", fname, m.Version)

	hdrfmt := "contents of section %s:\n"
	var sections []*wasm.Section

	if sec := m.Types; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Import; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Function; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Table; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Memory; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Global; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Export; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Start; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Elements; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Code; sec != nil {
		sections = append(sections, &sec.Section)
	}
	if sec := m.Data; sec != nil {
		sections = append(sections, &sec.Section)
	}
	for i := range m.Other {
		sections = append(sections, &m.Other[i])
	}

	for _, sec := range sections {
		fmt.Printf(hdrfmt, sec.ID.String())
		fmt.Println(hexDump(sec.Bytes, uint(sec.Start)))
	}
}

// hexDump renders b as 16-byte rows of hex pairs followed by an ASCII
// gutter, each row prefixed with its absolute offset from base.
func hexDump(b []byte, base uint) string {
	var buf bytes.Buffer
	for off := 0; off < len(b); off += 16 {
		end := off + 16
		if end > len(b) {
			end = len(b)
		}
		row := b[off:end]

		fmt.Fprintf(&buf, "%08x  ", base+uint(off))
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(&buf, "%02x ", row[i])
			} else {
				buf.WriteString("   ")
			}
			if i == 7 {
				buf.WriteByte(' ')
			}
		}
		buf.WriteString(" |")
		for _, c := range row {
			if c >= 0x20 && c < 0x7f {
				buf.WriteByte(c)
			} else {
				buf.WriteByte('.')
			}
		}
		buf.WriteString("|\n")
	}
	return buf.String()
}

// printDis disassembles every function body using the same bytecode.Cache
// the interpreter itself builds on a function's first call, so each br and
// br_if line also shows the byte offset of the destination it resolves to
// ("end" when it leaves the function body), next to its raw nesting depth.
func printDis(fname string, m *wasm.Module) error {
	fmt.Printf("%s: module version: %#x\n\n", fname, m.Version)
	fmt.Printf("code disassembly:\n")

	if m.Function == nil || m.Code == nil {
		return nil
	}

	for i := range m.Function.Types {
		f := m.GetFunction(i)
		fmt.Printf("\nfunc[%d]: %v\n", i, f.Sig)

		outerArity := 0
		if len(f.Sig.ReturnTypes) > 0 {
			outerArity = 1
		}
		cache, err := bytecode.New(f.Body.Code, outerArity)
		if err != nil {
			return fmt.Errorf("func[%d]: %w", i, err)
		}

		for pc, instr := range cache.Instrs {
			op, err := operators.New(instr.Op)
			if err != nil {
				return fmt.Errorf("func[%d]: %w", i, err)
			}
			name := op.Name
			if instr.Op == operators.TruncSat {
				name = operators.TruncSatNames[instr.Index]
			}
			imm := immediateString(instr)
			if instr.Op == operators.Br || instr.Op == operators.BrIf {
				if dest := cache.BreakTo(pc, int(instr.Index)); dest.Target < len(cache.Instrs) {
					imm += fmt.Sprintf(" -> %06x", cache.Instrs[dest.Target].BytePos)
				} else {
					imm += " -> end"
				}
			}
			fmt.Printf(" %06x: %-16s %s\n", instr.BytePos, name, imm)
		}
	}
	return nil
}

func immediateString(instr bytecode.Instr) string {
	switch instr.Op {
	case operators.Block, operators.Loop, operators.If:
		return fmt.Sprintf("blocktype=%v", instr.BlockType)
	case operators.Br, operators.BrIf:
		return fmt.Sprintf("depth=%d", instr.Index)
	case operators.BrTable:
		return fmt.Sprintf("depths=%v", instr.Depths)
	case operators.Call, operators.CallIndirect,
		operators.GetLocal, operators.SetLocal, operators.TeeLocal,
		operators.GetGlobal, operators.SetGlobal:
		return fmt.Sprintf("index=%d", instr.Index)
	case operators.I32Const, operators.I64Const:
		return fmt.Sprintf("value=%d", instr.I64)
	case operators.F32Const:
		return fmt.Sprintf("bits=%#x", instr.F32Bits)
	case operators.F64Const:
		return fmt.Sprintf("bits=%#x", instr.F64Bits)
	default:
		if instr.MemOffset != 0 {
			return fmt.Sprintf("offset=%d", instr.MemOffset)
		}
		return ""
	}
}

func printDetails(fname string, m *wasm.Module) {
	fmt.Printf("%s: module version: %#x\n\n", fname, m.Version)
	fmt.Printf("section details:\n\n")

	if sec := m.Types; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, f := range sec.Entries {
			fmt.Printf(" - type[%d] %v\n", i, f)
		}
	}
	if sec := m.Import; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, e := range sec.Entries {
			buf := new(bytes.Buffer)
			switch typ := e.Type.(type) {
			case wasm.GlobalVarImport:
				fmt.Fprintf(buf, "%v mutable=%v", typ.Type.Type, typ.Type.Mutable)
			case wasm.FuncImport:
				fmt.Fprintf(buf, "sig=%v", typ.Type)
			case wasm.MemoryImport:
				fmt.Fprintf(buf, "pages: initial=%d max=%d", typ.Type.Limits.Initial, typ.Type.Limits.Maximum)
			case wasm.TableImport:
				fmt.Fprintf(buf, "elem_type=%v init=%v max=%v", typ.Type.ElementType, typ.Type.Limits.Initial, typ.Type.Limits.Maximum)
			}
			fmt.Printf(" - %v[%d] %s <- %s.%s\n", e.Kind, i, buf.String(), e.ModuleName, e.FieldName)
		}
	}
	if sec := m.Function; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, t := range sec.Types {
			fmt.Printf(" - func[%d] sig=%d\n", i, t)
		}
	}
	if sec := m.Table; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, e := range sec.Entries {
			fmt.Printf(" - table[%d] type=%v initial=%v\n", i, e.ElementType, e.Limits.Initial)
		}
	}
	if sec := m.Memory; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, e := range sec.Entries {
			fmt.Printf(" - memory[%d] pages: initial=%v\n", i, e.Limits.Initial)
		}
	}
	if sec := m.Global; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, g := range sec.Globals {
			fmt.Printf(" - global[%d] %v mutable=%v -- init: %#v\n", i, g.Type.Type, g.Type.Mutable, g.Init)
		}
	}
	if sec := m.Export; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for _, name := range sec.Order {
			e := sec.Entries[name]
			fmt.Printf(" - %v[%d] -> %q\n", e.Kind, e.Index, name)
		}
	}
	if sec := m.Start; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		fmt.Printf(" - start function: %d\n", sec.Index)
	}
	if sec := m.Elements; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, e := range sec.Entries {
			fmt.Printf(" - segment[%d] table=%d\n", i, e.Index)
			fmt.Printf(" - init: %#v\n", e.Offset)
			for ii, elem := range e.Elems {
				fmt.Printf("  - elem[%d] = func[%d]\n", ii, elem)
			}
		}
	}
	if sec := m.Data; sec != nil {
		fmt.Printf("%v:\n", sec.ID)
		for i, e := range sec.Entries {
			fmt.Printf(" - segment[%d] size=%d - init %#v\n", i, len(e.Data), e.Offset)
			fmt.Printf("%s", hexDump(e.Data, 0))
		}
	}
	for _, sec := range m.Other {
		fmt.Printf("%v:\n", sec.ID)
		fmt.Printf(" - name: %q\n", sec.Name)
		raw := bytes.NewReader(sec.Bytes[6:])
		for raw.Len() > 0 {
			i, err := leb128.ReadVarUint32(raw)
			if err != nil {
				log.Fatal(err)
			}
			n, err := leb128.ReadVarUint32(raw)
			if err != nil {
				log.Fatal(err)
			}
			str := make([]byte, int(n))
			if _, err := io.ReadFull(raw, str); err != nil {
				log.Fatal(err)
			}
			fmt.Printf(" - func[%d] %v\n", i, string(str))
		}
	}
}
