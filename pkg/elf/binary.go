package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// A Binary is a parsed ELF file. It owns every entity read from the file;
// entities refer to one another by index or address only.
type Binary struct {
	Name         string
	OriginalSize uint64
	Header       Header

	Sections       []*Section
	Segments       []*Segment
	DynamicEntries []*DynamicEntry
	DynamicSymbols []*Symbol
	StaticSymbols  []*Symbol
	Relocations    []*Relocation

	SymbolVersionTable        []*SymbolVersion
	SymbolVersionRequirements []*SymbolVersionRequirement
	SymbolVersionDefinitions  []*SymbolVersionDefinition

	GnuHash  *GnuHash
	SysvHash *SysvHash
	Notes    []*Note
	// Overlay holds the bytes found after the last structure of the file.
	Overlay []byte

	// DynSymCount records how the number of dynamic symbols was obtained.
	DynSymCount DynSymCount

	d *decoder
}

// Is64 reports whether the binary is ELFCLASS64.
func (b *Binary) Is64() bool { return b.Header.Is64() }

// IsCore reports whether the binary is a core dump.
func (b *Binary) IsCore() bool { return b.Header.Type == elf.ET_CORE }

// Entrypoint returns the virtual address of the entry point.
func (b *Binary) Entrypoint() uint64 { return b.Header.Entry }

// ShouldSwap reports whether the file byte order differs from the host's.
func (b *Binary) ShouldSwap() bool {
	hostLE := binary.NativeEndian.Uint16([]byte{1, 0}) == 1
	return (b.Header.Data == elf.ELFDATA2LSB) != hostLE
}

// ImageBase returns the lowest vaddr-offset delta over the PT_LOAD segments,
// or 0 when there is none.
func (b *Binary) ImageBase() uint64 {
	base := uint64(0)
	found := false
	for _, seg := range b.Segments {
		if seg.Type != elf.PT_LOAD || seg.Invalid {
			continue
		}
		v := seg.VirtualAddress - seg.Offset
		if !found || v < base {
			base, found = v, true
		}
	}
	return base
}

// HasInterpreter reports whether the binary has a PT_INTERP segment.
func (b *Binary) HasInterpreter() bool {
	seg := b.SegmentByType(elf.PT_INTERP)
	return seg != nil && len(seg.Content()) > 0
}

// Interpreter returns the path stored in PT_INTERP.
func (b *Binary) Interpreter() string {
	seg := b.SegmentByType(elf.PT_INTERP)
	if seg == nil {
		return ""
	}
	dat := seg.Content()
	if i := bytes.IndexByte(dat, 0); i >= 0 {
		dat = dat[:i]
	}
	return string(dat)
}

// IsPIE reports whether the binary is a position independent executable.
func (b *Binary) IsPIE() bool {
	return b.Header.Type == elf.ET_DYN && b.HasInterpreter()
}

// HasNX reports whether the stack is marked non executable.
func (b *Binary) HasNX() bool {
	seg := b.SegmentByType(elf.PT_GNU_STACK)
	if seg == nil {
		return false
	}
	return !seg.HasFlag(elf.PF_X)
}

// Libraries returns the DT_NEEDED entries.
func (b *Binary) Libraries() []string {
	var libs []string
	for _, e := range b.DynamicEntries {
		if e.Tag == elf.DT_NEEDED {
			libs = append(libs, e.Name)
		}
	}
	return libs
}

// BuildID returns the GNU build-id, if the binary has one.
func (b *Binary) BuildID() []byte {
	for _, n := range b.Notes {
		if id, ok := n.BuildID(); ok {
			return id
		}
	}
	return nil
}

// Symbols returns the dynamic symbols followed by the static ones.
func (b *Binary) Symbols() []*Symbol {
	syms := make([]*Symbol, 0, len(b.DynamicSymbols)+len(b.StaticSymbols))
	syms = append(syms, b.DynamicSymbols...)
	return append(syms, b.StaticSymbols...)
}

// ExportedSymbols returns the symbols this binary provides to others.
func (b *Binary) ExportedSymbols() []*Symbol {
	var syms []*Symbol
	for _, s := range b.Symbols() {
		if s.IsExported() {
			syms = append(syms, s)
		}
	}
	return syms
}

// ImportedSymbols returns the symbols this binary expects from others.
func (b *Binary) ImportedSymbols() []*Symbol {
	var syms []*Symbol
	for _, s := range b.Symbols() {
		if s.IsImported() {
			syms = append(syms, s)
		}
	}
	return syms
}

// GetSymbol returns the first symbol named name, looking at the dynamic
// symbols first.
func (b *Binary) GetSymbol(name string) (*Symbol, error) {
	for _, s := range b.Symbols() {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "symbol %s", name)
}

// HasSymbol reports whether a symbol named name exists.
func (b *Binary) HasSymbol(name string) bool {
	_, err := b.GetSymbol(name)
	return err == nil
}

// RelocationSymbol resolves the symbol referenced by r. It returns nil when
// r has no symbol or the index is outside the symbol table.
func (b *Binary) RelocationSymbol(r *Relocation) *Symbol {
	idx, ok := r.SymbolIndex()
	if !ok {
		return nil
	}
	syms := b.DynamicSymbols
	if r.UsesStaticSymbols() {
		syms = b.StaticSymbols
	}
	if uint64(idx) >= uint64(len(syms)) {
		return nil
	}
	return syms[idx]
}

// SectionByName returns the first section named name.
func (b *Binary) SectionByName(name string) *Section {
	for _, s := range b.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SectionByType returns the first valid section of type typ.
func (b *Binary) SectionByType(typ elf.SectionType) *Section {
	for _, s := range b.Sections {
		if s.Type == typ && !s.Invalid {
			return s
		}
	}
	return nil
}

// SegmentByType returns the first valid segment of type typ.
func (b *Binary) SegmentByType(typ elf.ProgType) *Segment {
	for _, s := range b.Segments {
		if s.Type == typ && !s.Invalid {
			return s
		}
	}
	return nil
}

// DynamicEntry returns the entry for tag. When the tag is repeated the last
// one wins.
func (b *Binary) DynamicEntry(tag elf.DynTag) *DynamicEntry {
	var found *DynamicEntry
	for _, e := range b.DynamicEntries {
		if e.Tag == tag {
			found = e
		}
	}
	return found
}

// HasDynamicEntry reports whether an entry for tag exists.
func (b *Binary) HasDynamicEntry(tag elf.DynTag) bool { return b.DynamicEntry(tag) != nil }

func (b *Binary) dynamicValue(tag elf.DynTag) (uint64, bool) {
	if e := b.DynamicEntry(tag); e != nil {
		return e.Value, true
	}
	return 0, false
}

// SegmentSections returns the valid sections lying in seg.
func (b *Binary) SegmentSections(seg *Segment) []*Section {
	var secs []*Section
	for _, s := range b.Sections {
		if !s.Invalid && seg.ContainsSection(s) {
			secs = append(secs, s)
		}
	}
	return secs
}

// SectionFromOffset returns the valid section whose file range holds off.
func (b *Binary) SectionFromOffset(off uint64) (*Section, error) {
	for _, s := range b.Sections {
		if !s.Invalid && s.Type != elf.SHT_NULL && s.ContainsOffset(off) {
			return s, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "section containing offset %#x", off)
}

// SectionFromVirtualAddress returns the valid section mapped at addr.
func (b *Binary) SectionFromVirtualAddress(addr uint64) (*Section, error) {
	for _, s := range b.Sections {
		if !s.Invalid && s.Type != elf.SHT_NULL && s.ContainsAddress(addr) {
			return s, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "section containing address %#x", addr)
}

// SegmentFromVirtualAddress returns the valid PT_LOAD segment mapped at addr.
func (b *Binary) SegmentFromVirtualAddress(addr uint64) (*Segment, error) {
	for _, s := range b.Segments {
		if s.Type == elf.PT_LOAD && !s.Invalid && s.ContainsAddress(addr) {
			return s, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "segment containing address %#x", addr)
}

// VirtualAddressToOffset converts addr to a file offset using the PT_LOAD
// segments, or the allocated sections when the binary has no segment.
func (b *Binary) VirtualAddressToOffset(addr uint64) (uint64, error) {
	if len(b.Segments) > 0 {
		seg, err := b.SegmentFromVirtualAddress(addr)
		if err != nil {
			return 0, err
		}
		return seg.Offset + (addr - seg.VirtualAddress), nil
	}
	for _, s := range b.Sections {
		if s.Invalid || s.Type == elf.SHT_NOBITS || !s.HasFlag(elf.SHF_ALLOC) {
			continue
		}
		if s.ContainsAddress(addr) {
			return s.Offset + (addr - s.Addr), nil
		}
	}
	return 0, errors.Wrapf(ErrNotFound, "no mapping for address %#x", addr)
}

// OffsetToVirtualAddress converts a file offset to the address it is mapped
// at.
func (b *Binary) OffsetToVirtualAddress(off uint64) (uint64, error) {
	for _, s := range b.Segments {
		if s.Type == elf.PT_LOAD && !s.Invalid && s.ContainsOffset(off) {
			return s.VirtualAddress + (off - s.Offset), nil
		}
	}
	for _, s := range b.Sections {
		if !s.Invalid && s.HasFlag(elf.SHF_ALLOC) && s.ContainsOffset(off) {
			return s.Addr + (off - s.Offset), nil
		}
	}
	return 0, errors.Wrapf(ErrNotFound, "offset %#x is not mapped", off)
}

// ContentFromVirtualAddress returns up to size bytes mapped at addr. The
// slice aliases the segment content.
func (b *Binary) ContentFromVirtualAddress(addr, size uint64) ([]byte, error) {
	seg, err := b.SegmentFromVirtualAddress(addr)
	if err != nil {
		return nil, err
	}
	dat := seg.Content()
	start := addr - seg.VirtualAddress
	if start >= uint64(len(dat)) {
		return nil, fmt.Errorf("address %#x is not backed by file content", addr)
	}
	end := uint64(len(dat))
	if size < end-start {
		end = start + size
	}
	return dat[start:end:end], nil
}

// PatchAddress writes patch at addr in the content of the segment mapping
// it.
func (b *Binary) PatchAddress(addr uint64, patch []byte) error {
	dat, err := b.ContentFromVirtualAddress(addr, uint64(len(patch)))
	if err != nil {
		return err
	}
	if len(dat) < len(patch) {
		return fmt.Errorf("patch of %d bytes at %#x overflows its segment", len(patch), addr)
	}
	copy(dat, patch)
	return nil
}
