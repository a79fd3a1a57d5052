package elf

import (
	"bytes"
	"debug/elf"
	"math"

	"github.com/blacktop/go-elf/internal/stream"
)

// decoder reads raw ELF records of the file's class. The class is chosen
// once from the identification and every record read goes through it.
type decoder struct {
	s     *stream.Stream
	class elf.Class
}

// soff converts a file offset read from the binary into a stream offset.
// Offsets that do not fit are mapped to -1, which the stream rejects.
func soff(off uint64) int64 {
	if off > math.MaxInt64 {
		return -1
	}
	return int64(off)
}

// peek decodes the fixed-size record T at off.
func peek[T any](d *decoder, off uint64) (T, error) {
	var v T
	err := d.s.Peek(soff(off), &v)
	return v, err
}

func (d *decoder) is64() bool { return d.class == elf.ELFCLASS64 }

func (d *decoder) wordSize() uint64 {
	if d.is64() {
		return 8
	}
	return 4
}

func (d *decoder) symSize() uint64 {
	if d.is64() {
		return elf.Sym64Size
	}
	return elf.Sym32Size
}

func (d *decoder) relSize(rela bool) uint64 {
	switch {
	case d.is64() && rela:
		return 24
	case d.is64():
		return 16
	case rela:
		return 12
	default:
		return 8
	}
}

func (d *decoder) dynSize() uint64 { return 2 * d.wordSize() }

func (d *decoder) shdrSize() uint64 {
	if d.is64() {
		return 64
	}
	return 40
}

func (d *decoder) phdrSize() uint64 {
	if d.is64() {
		return 56
	}
	return 32
}

// word reads an address-sized unsigned value.
func (d *decoder) word(off uint64) (uint64, error) {
	if d.is64() {
		return stream.ReadInteger[uint64](d.s, soff(off))
	}
	v, err := stream.ReadInteger[uint32](d.s, soff(off))
	return uint64(v), err
}

func (d *decoder) header() (Header, error) {
	var ident [elf.EI_NIDENT]byte
	if err := d.s.Peek(0, &ident); err != nil {
		return Header{}, &FormatError{0, "truncated identification", nil}
	}
	if !bytes.Equal(ident[:4], []byte(elf.ELFMAG)) {
		return Header{}, &FormatError{0, "invalid magic number", ident[:4]}
	}
	h := Header{
		Class:      elf.Class(ident[elf.EI_CLASS]),
		Data:       elf.Data(ident[elf.EI_DATA]),
		Version:    elf.Version(ident[elf.EI_VERSION]),
		OSABI:      elf.OSABI(ident[elf.EI_OSABI]),
		ABIVersion: ident[elf.EI_ABIVERSION],
	}
	switch h.Class {
	case elf.ELFCLASS32, elf.ELFCLASS64:
	default:
		return Header{}, &FormatError{elf.EI_CLASS, "unknown ELF class", h.Class}
	}
	switch h.Data {
	case elf.ELFDATA2LSB, elf.ELFDATA2MSB:
	default:
		return Header{}, &FormatError{elf.EI_DATA, "unknown ELF data encoding", h.Data}
	}
	if h.Version != elf.EV_CURRENT {
		return Header{}, &FormatError{elf.EI_VERSION, "unknown ELF version", h.Version}
	}

	d.class = h.Class
	d.s.SetByteOrder(h.ByteOrder())

	if d.is64() {
		hdr, err := peek[elf.Header64](d, 0)
		if err != nil {
			return Header{}, &FormatError{0, "truncated ELF64 header", nil}
		}
		h.Type = elf.Type(hdr.Type)
		h.Machine = elf.Machine(hdr.Machine)
		h.ObjectVersion = hdr.Version
		h.Entry = hdr.Entry
		h.ProgramHeaderOffset = hdr.Phoff
		h.SectionHeaderOffset = hdr.Shoff
		h.Flags = hdr.Flags
		h.HeaderSize = hdr.Ehsize
		h.ProgramHeaderSize = hdr.Phentsize
		h.NumProgramHeaders = hdr.Phnum
		h.SectionHeaderSize = hdr.Shentsize
		h.NumSections = hdr.Shnum
		h.SectionNameIndex = hdr.Shstrndx
	} else {
		hdr, err := peek[elf.Header32](d, 0)
		if err != nil {
			return Header{}, &FormatError{0, "truncated ELF32 header", nil}
		}
		h.Type = elf.Type(hdr.Type)
		h.Machine = elf.Machine(hdr.Machine)
		h.ObjectVersion = hdr.Version
		h.Entry = uint64(hdr.Entry)
		h.ProgramHeaderOffset = uint64(hdr.Phoff)
		h.SectionHeaderOffset = uint64(hdr.Shoff)
		h.Flags = hdr.Flags
		h.HeaderSize = hdr.Ehsize
		h.ProgramHeaderSize = hdr.Phentsize
		h.NumProgramHeaders = hdr.Phnum
		h.SectionHeaderSize = hdr.Shentsize
		h.NumSections = hdr.Shnum
		h.SectionNameIndex = hdr.Shstrndx
	}
	return h, nil
}

func (d *decoder) section(off uint64) (*Section, error) {
	if d.is64() {
		sh, err := peek[elf.Section64](d, off)
		if err != nil {
			return nil, err
		}
		return &Section{
			NameIndex: sh.Name,
			Type:      elf.SectionType(sh.Type),
			Flags:     elf.SectionFlag(sh.Flags),
			Addr:      sh.Addr,
			Offset:    sh.Off,
			Size:      sh.Size,
			Link:      sh.Link,
			Info:      sh.Info,
			Addralign: sh.Addralign,
			Entsize:   sh.Entsize,
		}, nil
	}
	sh, err := peek[elf.Section32](d, off)
	if err != nil {
		return nil, err
	}
	return &Section{
		NameIndex: sh.Name,
		Type:      elf.SectionType(sh.Type),
		Flags:     elf.SectionFlag(sh.Flags),
		Addr:      uint64(sh.Addr),
		Offset:    uint64(sh.Off),
		Size:      uint64(sh.Size),
		Link:      sh.Link,
		Info:      sh.Info,
		Addralign: uint64(sh.Addralign),
		Entsize:   uint64(sh.Entsize),
	}, nil
}

func (d *decoder) segment(off uint64) (*Segment, error) {
	if d.is64() {
		ph, err := peek[elf.Prog64](d, off)
		if err != nil {
			return nil, err
		}
		return &Segment{
			Type:            elf.ProgType(ph.Type),
			Flags:           elf.ProgFlag(ph.Flags),
			Offset:          ph.Off,
			VirtualAddress:  ph.Vaddr,
			PhysicalAddress: ph.Paddr,
			FileSize:        ph.Filesz,
			MemorySize:      ph.Memsz,
			Alignment:       ph.Align,
		}, nil
	}
	ph, err := peek[elf.Prog32](d, off)
	if err != nil {
		return nil, err
	}
	return &Segment{
		Type:            elf.ProgType(ph.Type),
		Flags:           elf.ProgFlag(ph.Flags),
		Offset:          uint64(ph.Off),
		VirtualAddress:  uint64(ph.Vaddr),
		PhysicalAddress: uint64(ph.Paddr),
		FileSize:        uint64(ph.Filesz),
		MemorySize:      uint64(ph.Memsz),
		Alignment:       uint64(ph.Align),
	}, nil
}

func (d *decoder) symbol(off uint64) (*Symbol, error) {
	var (
		name        uint32
		value, size uint64
		info, other uint8
		shndx       uint16
	)
	if d.is64() {
		sym, err := peek[elf.Sym64](d, off)
		if err != nil {
			return nil, err
		}
		name, value, size, info, other, shndx = sym.Name, sym.Value, sym.Size, sym.Info, sym.Other, sym.Shndx
	} else {
		sym, err := peek[elf.Sym32](d, off)
		if err != nil {
			return nil, err
		}
		name, value, size, info, other, shndx = sym.Name, uint64(sym.Value), uint64(sym.Size), sym.Info, sym.Other, sym.Shndx
	}
	return &Symbol{
		NameIndex:  name,
		Value:      value,
		Size:       size,
		Bind:       elf.ST_BIND(info),
		Type:       elf.ST_TYPE(info),
		Visibility: elf.ST_VISIBILITY(other),
		Other:      other,
		Shndx:      elf.SectionIndex(shndx),
	}, nil
}

// relocation decodes a REL or RELA record. The symbol index is kept raw; it
// is only turned into a symbol reference by Binary.RelocationSymbol.
func (d *decoder) relocation(off uint64, rela bool) (*Relocation, error) {
	r := &Relocation{IsRela: rela}
	switch {
	case d.is64() && rela:
		rel, err := peek[elf.Rela64](d, off)
		if err != nil {
			return nil, err
		}
		r.Address, r.Addend = rel.Off, rel.Addend
		r.Type, r.symIdx = elf.R_TYPE64(rel.Info), elf.R_SYM64(rel.Info)
	case d.is64():
		rel, err := peek[elf.Rel64](d, off)
		if err != nil {
			return nil, err
		}
		r.Address = rel.Off
		r.Type, r.symIdx = elf.R_TYPE64(rel.Info), elf.R_SYM64(rel.Info)
	case rela:
		rel, err := peek[elf.Rela32](d, off)
		if err != nil {
			return nil, err
		}
		r.Address, r.Addend = uint64(rel.Off), int64(rel.Addend)
		r.Type, r.symIdx = elf.R_TYPE32(rel.Info), elf.R_SYM32(rel.Info)
	default:
		rel, err := peek[elf.Rel32](d, off)
		if err != nil {
			return nil, err
		}
		r.Address = uint64(rel.Off)
		r.Type, r.symIdx = elf.R_TYPE32(rel.Info), elf.R_SYM32(rel.Info)
	}
	r.hasSym = r.symIdx != 0
	return r, nil
}

func (d *decoder) dynamic(off uint64) (elf.DynTag, uint64, error) {
	if d.is64() {
		dyn, err := peek[elf.Dyn64](d, off)
		if err != nil {
			return 0, 0, err
		}
		return elf.DynTag(dyn.Tag), dyn.Val, nil
	}
	dyn, err := peek[elf.Dyn32](d, off)
	if err != nil {
		return 0, 0, err
	}
	return elf.DynTag(dyn.Tag), uint64(dyn.Val), nil
}
