package elf

import (
	"debug/elf"
	"fmt"
)

// RelocationPurpose tells which table a relocation was read from.
type RelocationPurpose uint8

const (
	RelocPurposeNone RelocationPurpose = iota
	RelocPurposeDynamic
	RelocPurposePltGot
	RelocPurposeObject
)

func (p RelocationPurpose) String() string {
	switch p {
	case RelocPurposeDynamic:
		return "dynamic"
	case RelocPurposePltGot:
		return "plt/got"
	case RelocPurposeObject:
		return "object"
	default:
		return "none"
	}
}

// A Relocation is a REL or RELA entry. Its symbol is referenced by index only
// and resolved through Binary.RelocationSymbol.
type Relocation struct {
	Address uint64
	Addend  int64
	Type    uint32
	IsRela  bool
	Purpose RelocationPurpose
	// Section is the index of the section the relocation applies to, for
	// relocations read from relocatable objects, and -1 otherwise.
	Section int

	machine  elf.Machine
	symIdx   uint32
	hasSym   bool
	staticST bool
}

// SymbolIndex returns the raw symbol index and whether the relocation
// references a symbol at all.
func (r *Relocation) SymbolIndex() (uint32, bool) { return r.symIdx, r.hasSym }

// SetSymbolIndex makes the relocation reference the symbol at idx. Index 0
// clears the reference.
func (r *Relocation) SetSymbolIndex(idx uint32) {
	r.symIdx = idx
	r.hasSym = idx != 0
}

// UsesStaticSymbols reports whether the symbol index refers to .symtab
// rather than to the dynamic symbol table.
func (r *Relocation) UsesStaticSymbols() bool { return r.staticST }

// Size returns the number of bits the relocation patches, or -1 when the
// type is unknown for the machine.
func (r *Relocation) Size() int {
	return relocationSize(r.machine, r.Type)
}

func (r *Relocation) String() string {
	return fmt.Sprintf("%#016x %-8s type=%d addend=%#x sym=%d", r.Address, r.Purpose, r.Type, r.Addend, r.symIdx)
}
