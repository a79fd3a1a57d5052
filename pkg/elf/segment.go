package elf

import (
	"debug/elf"
	"fmt"
)

// A Segment is an entry of the program header table.
type Segment struct {
	Type            elf.ProgType
	Flags           elf.ProgFlag
	Offset          uint64
	VirtualAddress  uint64
	PhysicalAddress uint64
	FileSize        uint64
	MemorySize      uint64
	Alignment       uint64

	// Invalid is set when the segment does not fit in the file or exceeds
	// MaxSegmentSize.
	Invalid bool

	content []byte
}

// Content returns the bytes backing the segment in the file.
func (s *Segment) Content() []byte { return s.content }

// SetContent replaces the segment bytes and updates FileSize. MemorySize
// grows with FileSize and never shrinks.
func (s *Segment) SetContent(dat []byte) {
	s.content = dat
	s.FileSize = uint64(len(dat))
	s.MemorySize = max(s.MemorySize, s.FileSize)
}

// HasFlag reports whether all bits of f are set.
func (s *Segment) HasFlag(f elf.ProgFlag) bool { return s.Flags&f == f }

// ContainsOffset reports whether off falls in the segment's file range.
func (s *Segment) ContainsOffset(off uint64) bool {
	return s.Offset <= off && off-s.Offset < s.FileSize
}

// ContainsAddress reports whether addr falls in the segment's memory range.
func (s *Segment) ContainsAddress(addr uint64) bool {
	return s.VirtualAddress <= addr && addr-s.VirtualAddress < s.MemorySize
}

// ContainsSection reports whether sec lies inside the segment, by file range
// for sections with file content and by memory range otherwise.
func (s *Segment) ContainsSection(sec *Section) bool {
	if sec.Type == elf.SHT_NOBITS || sec.Size == 0 {
		if !sec.HasFlag(elf.SHF_ALLOC) {
			return false
		}
		return s.VirtualAddress <= sec.Addr && sec.Addr+sec.Size <= s.VirtualAddress+s.MemorySize &&
			(sec.Size > 0 || sec.Addr < s.VirtualAddress+s.MemorySize)
	}
	return s.Offset <= sec.Offset && sec.Offset+sec.Size <= s.Offset+s.FileSize
}

func (s *Segment) String() string {
	return fmt.Sprintf("%-14s %-12s off=%#08x vaddr=%#016x filesz=%#x memsz=%#x", s.Type, s.Flags, s.Offset, s.VirtualAddress, s.FileSize, s.MemorySize)
}
