package elf

import (
	"debug/elf"
	"fmt"
)

// A Symbol is an entry of .symtab or .dynsym.
type Symbol struct {
	Name       string
	NameIndex  uint32
	Value      uint64
	Size       uint64
	Bind       elf.SymBind
	Type       elf.SymType
	Visibility elf.SymVis
	Other      uint8
	Shndx      elf.SectionIndex

	// Dynamic is set for symbols of the dynamic symbol table.
	Dynamic bool
	// Version is only set on dynamic symbols, once symbol versioning has
	// been linked.
	Version *SymbolVersion
}

// Info returns the packed st_info byte.
func (s *Symbol) Info() uint8 { return elf.ST_INFO(s.Bind, s.Type) }

// HasVersion reports whether a symbol version is attached.
func (s *Symbol) HasVersion() bool { return s.Version != nil }

// IsImported reports whether the symbol is undefined in this file and must be
// provided by another object.
func (s *Symbol) IsImported() bool {
	return s.Shndx == elf.SHN_UNDEF && s.Name != "" && s.Type != elf.STT_SECTION && s.Type != elf.STT_FILE
}

// IsExported reports whether the symbol is defined here and visible to other
// objects.
func (s *Symbol) IsExported() bool {
	if s.Shndx == elf.SHN_UNDEF || s.Name == "" {
		return false
	}
	if s.Bind != elf.STB_GLOBAL && s.Bind != elf.STB_WEAK && s.Bind != elf.STB_LOOS {
		return false
	}
	return s.Visibility == elf.STV_DEFAULT || s.Visibility == elf.STV_PROTECTED
}

func (s *Symbol) String() string {
	ver := ""
	if s.Version != nil {
		ver = "@" + s.Version.String()
	}
	return fmt.Sprintf("%#016x %6d %-12s %-12s %s%s", s.Value, s.Size, s.Type, s.Bind, s.Name, ver)
}
