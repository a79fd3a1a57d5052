package elf

import (
	"debug/elf"
	"fmt"
)

// A Section is an entry of the section header table.
type Section struct {
	Name      string
	NameIndex uint32
	Type      elf.SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64

	// Invalid is set when the section does not fit in the file or exceeds
	// MaxSectionSize. Invalid sections keep their index but have no content
	// and are ignored by every pass that reads section data.
	Invalid bool

	content []byte
}

// Content returns the section bytes. NOBITS and invalid sections have none.
func (s *Section) Content() []byte { return s.content }

// SetContent replaces the section bytes and updates Size.
func (s *Section) SetContent(dat []byte) {
	s.content = dat
	s.Size = uint64(len(dat))
}

// HasFlag reports whether all bits of f are set.
func (s *Section) HasFlag(f elf.SectionFlag) bool { return s.Flags&f == f }

// ContainsOffset reports whether off falls in the section's file range.
func (s *Section) ContainsOffset(off uint64) bool {
	if s.Type == elf.SHT_NOBITS {
		return false
	}
	return s.Offset <= off && off-s.Offset < s.Size
}

// ContainsAddress reports whether addr falls in the section's memory range.
func (s *Section) ContainsAddress(addr uint64) bool {
	if s.Addr == 0 && !s.HasFlag(elf.SHF_ALLOC) {
		return false
	}
	return s.Addr <= addr && addr-s.Addr < s.Size
}

func (s *Section) String() string {
	return fmt.Sprintf("%-20s %-14s off=%#08x addr=%#016x size=%#x", s.Name, s.Type, s.Offset, s.Addr, s.Size)
}
