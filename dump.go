package main

import (
	"fmt"
	"io"
	"sort"
)

// compilerDumper prints a diagnostic snapshot of the dictionary and
// memory layout after a (possibly failed) compile, the way vmDumper
// prints the VM's dictionary chain and memory image: for a cross
// compiler the analogous state is the entity arena and the RAM/EEPROM
// address assignments it produced, not a running machine's stack.
type compilerDumper struct {
	c   *Compiler
	out io.Writer
}

func (d compilerDumper) dump() {
	fmt.Fprintf(d.out, "# Compiler Dump\n")
	fmt.Fprintf(d.out, "  here: 0x%04X  eehere: 0x%04X\n", d.c.Here, d.c.EEHere)
	d.dumpStack()
	d.dumpDict()
	d.dumpMem()
}

func (d compilerDumper) dumpStack() {
	fmt.Fprintf(d.out, "  data stack:")
	for _, it := range d.c.DataStack {
		switch it.Kind {
		case ItemValue:
			fmt.Fprintf(d.out, " %v", it.Value)
		case ItemEntity:
			if ent := d.c.Dict.Entity(it.Entity); ent != nil {
				fmt.Fprintf(d.out, " %s", ent.Name)
			} else {
				fmt.Fprintf(d.out, " <label>")
			}
		case ItemInt:
			fmt.Fprintf(d.out, " %d", it.Int)
		}
	}
	fmt.Fprintln(d.out)
}

// dumpDict prints every entity in definition order, grouped the way
// formatMem walks the VM's dictionary chain: name, kind, and whatever
// address/flags it carries.
func (d compilerDumper) dumpDict() {
	fmt.Fprintf(d.out, "# Dictionary\n")
	for _, e := range d.c.Dict.AllEntities() {
		fmt.Fprintf(d.out, "  %-20s %-10s %s", e.Name, e.Kind, d.flagString(e))
		switch e.Kind {
		case KindVariable:
			fmt.Fprintf(d.out, " addr=%v cell=%v eeprom=%v", e.Addr, e.Cell, e.EEPROM)
		case KindConstant:
			fmt.Fprintf(d.out, " value=%v", e.ConstValue)
		case KindWord:
			fmt.Fprintf(d.out, " body=%d refs=%d", len(e.Body), e.ReferencedBy)
		}
		fmt.Fprintf(d.out, "  (%s)\n", e.Loc)
	}
}

func (d compilerDumper) flagString(e *Entity) string {
	s := ""
	if e.Flags.Has(FlagImmediate) {
		s += "i"
	}
	if e.Flags.Has(FlagInlined) {
		s += "I"
	}
	if e.Flags.Has(FlagNotInlinable) {
		s += "n"
	}
	if e.Flags.Has(FlagInW) {
		s += ">"
	}
	if e.Flags.Has(FlagOutW) {
		s += "<"
	}
	if e.Flags.Has(FlagOutZ) {
		s += "z"
	}
	if s == "" {
		return "-"
	}
	return s
}

// dumpMem reports the RAM addresses the compile allocated, sorted by
// address, the way formatMem walks addr in ascending order.
func (d compilerDumper) dumpMem() {
	fmt.Fprintf(d.out, "# Memory\n")
	type slot struct {
		addr int
		name string
		size int
	}
	var slots []slot
	for _, e := range d.c.Dict.AllEntities() {
		if e.Kind != KindVariable || e.EEPROM {
			continue
		}
		n, ok := e.Addr.StaticValue()
		if !ok {
			continue
		}
		size := 1
		if e.Cell {
			size = 2
		}
		slots = append(slots, slot{n, e.Name, size})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].addr < slots[j].addr })
	for _, s := range slots {
		fmt.Fprintf(d.out, "  @0x%04X %-20s size=%d\n", s.addr, s.name, s.size)
	}
}
