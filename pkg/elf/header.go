package elf

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// Header is the ELF file header, normalized to 64-bit fields.
type Header struct {
	Class      elf.Class
	Data       elf.Data
	Version    elf.Version
	OSABI      elf.OSABI
	ABIVersion uint8

	Type                elf.Type
	Machine             elf.Machine
	ObjectVersion       uint32
	Entry               uint64
	ProgramHeaderOffset uint64
	SectionHeaderOffset uint64
	Flags               uint32
	HeaderSize          uint16
	ProgramHeaderSize   uint16
	NumProgramHeaders   uint16
	SectionHeaderSize   uint16
	NumSections         uint16
	SectionNameIndex    uint16
}

// ByteOrder returns the byte order declared by the identification.
func (h Header) ByteOrder() binary.ByteOrder {
	if h.Data == elf.ELFDATA2MSB {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Is64 reports whether the file is ELFCLASS64.
func (h Header) Is64() bool { return h.Class == elf.ELFCLASS64 }

func (h Header) String() string {
	return fmt.Sprintf(
		"Class         = %s\n"+
			"Data          = %s\n"+
			"OS/ABI        = %s (ABI version %d)\n"+
			"Type          = %s\n"+
			"Machine       = %s\n"+
			"Entry         = %#x\n"+
			"Segments      = %d (offset %#x, entsize %d)\n"+
			"Sections      = %d (offset %#x, entsize %d, names %d)\n"+
			"Flags         = %#x\n",
		h.Class,
		h.Data,
		h.OSABI, h.ABIVersion,
		h.Type,
		h.Machine,
		h.Entry,
		h.NumProgramHeaders, h.ProgramHeaderOffset, h.ProgramHeaderSize,
		h.NumSections, h.SectionHeaderOffset, h.SectionHeaderSize, h.SectionNameIndex,
		h.Flags,
	)
}
