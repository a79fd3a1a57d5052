package elf

import (
	"debug/elf"
	"strings"

	"github.com/apex/log"
)

type relocationTable struct {
	tag     elf.DynTag
	offset  uint64
	size    uint64
	rela    bool
	purpose RelocationPurpose
}

// dynamicRelocationTables returns the DT_RELA, DT_REL and DT_JMPREL tables
// that map to file content.
func (b *Binary) dynamicRelocationTables() []relocationTable {
	var tbls []relocationTable
	add := func(addrTag, sizeTag elf.DynTag, rela bool, purpose RelocationPurpose) {
		addr, ok := b.dynamicValue(addrTag)
		if !ok {
			return
		}
		size, ok := b.dynamicValue(sizeTag)
		if !ok || size == 0 {
			return
		}
		off, err := b.VirtualAddressToOffset(addr)
		if err != nil {
			log.WithField("tag", addrTag).Debugf("relocation table is not mapped: %v", err)
			return
		}
		tbls = append(tbls, relocationTable{tag: addrTag, offset: off, size: size, rela: rela, purpose: purpose})
	}

	add(elf.DT_RELA, elf.DT_RELASZ, true, RelocPurposeDynamic)
	add(elf.DT_REL, elf.DT_RELSZ, false, RelocPurposeDynamic)

	pltRela := b.Is64()
	if v, ok := b.dynamicValue(elf.DT_PLTREL); ok {
		pltRela = elf.DynTag(v) == elf.DT_RELA
	}
	add(elf.DT_JMPREL, elf.DT_PLTRELSZ, pltRela, RelocPurposePltGot)
	return tbls
}

// parseRelocations reads the relocations through the dynamic section when the
// binary has segments, and section by section otherwise.
func (p *parser) parseRelocations() {
	if len(p.b.Segments) > 0 {
		for _, tbl := range p.b.dynamicRelocationTables() {
			p.readRelocations(tbl.tag.String(), tbl.offset, tbl.size, p.d.relSize(tbl.rela), tbl.rela, func(r *Relocation) {
				r.Purpose = tbl.purpose
				r.Section = -1
			})
		}
		return
	}

	for _, sec := range p.b.Sections {
		if sec.Invalid || (sec.Type != elf.SHT_REL && sec.Type != elf.SHT_RELA) {
			continue
		}
		rela := sec.Type == elf.SHT_RELA
		static := false
		if uint64(sec.Link) < uint64(len(p.b.Sections)) {
			static = p.b.Sections[sec.Link].Type == elf.SHT_SYMTAB
		}
		target := -1
		if sec.Info != 0 && uint64(sec.Info) < uint64(len(p.b.Sections)) {
			target = int(sec.Info)
		}
		purpose := sectionRelocationPurpose(sec.Name)
		entsize := max(sec.Entsize, p.d.relSize(rela))
		p.readRelocations(sec.Name, sec.Offset, sec.Size, entsize, rela, func(r *Relocation) {
			r.Purpose = purpose
			r.Section = target
			r.staticST = static
		})
	}
}

func (p *parser) readRelocations(what string, off, size, entsize uint64, rela bool, fill func(*Relocation)) {
	count := size / entsize
	if err := checkLimit(what, count, NbMaxRelocations); err != nil {
		p.warn("relocations", err)
		return
	}
	for i := uint64(0); i < count; i++ {
		r, err := p.d.relocation(off+i*entsize, rela)
		if err != nil {
			log.WithField("table", what).Warnf("relocation table truncated: %v", err)
			return
		}
		r.machine = p.b.Header.Machine
		fill(r)
		p.b.Relocations = append(p.b.Relocations, r)
	}
}

func sectionRelocationPurpose(name string) RelocationPurpose {
	switch {
	case strings.HasSuffix(name, ".plt"):
		return RelocPurposePltGot
	case strings.HasSuffix(name, ".dyn"):
		return RelocPurposeDynamic
	default:
		return RelocPurposeObject
	}
}
