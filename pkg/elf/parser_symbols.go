package elf

import (
	"debug/elf"

	"github.com/apex/log"
)

// dynSymCount applies the configured counting method.
func (p *parser) dynSymCount() (DynSymCount, error) {
	switch m := p.conf.CountMethod; m {
	case CountForced:
		n := p.conf.ForcedCount
		return DynSymCount{Method: m, Count: n}, checkCount(n)
	case CountAuto:
		order := p.conf.CountOrder
		if len(order) == 0 {
			order = AutoCountOrder
		}
		return p.b.countAuto(order)
	default:
		n, err := p.b.countWith(m)
		if err == nil {
			err = checkCount(n)
		}
		return DynSymCount{Method: m, Count: n}, err
	}
}

// dynamicSymbolTable locates the dynamic symbol table through DT_SYMTAB, or
// through the SHT_DYNSYM section.
func (p *parser) dynamicSymbolTable() (uint64, bool) {
	if addr, ok := p.b.dynamicValue(elf.DT_SYMTAB); ok {
		if off, err := p.b.VirtualAddressToOffset(addr); err == nil {
			return off, true
		}
		log.Debugf("DT_SYMTAB %#x is not mapped", addr)
	}
	if sec := p.b.SectionByType(elf.SHT_DYNSYM); sec != nil {
		return sec.Offset, true
	}
	return 0, false
}

func (p *parser) parseDynamicSymbols() {
	off, ok := p.dynamicSymbolTable()
	if !ok {
		log.Debug("no dynamic symbol table")
		return
	}

	count, err := p.dynSymCount()
	if err != nil {
		p.warn("dynamic symbols", err)
		p.b.DynSymCount = DynSymCount{Method: count.Method}
		return
	}
	p.b.DynSymCount = count
	log.WithFields(log.Fields{
		"method": count.Method,
		"count":  count.Count,
	}).Debug("Dynamic symbols")

	size := p.d.symSize()
	p.b.DynamicSymbols = make([]*Symbol, 0, count.Count)
	for i := uint64(0); i < count.Count; i++ {
		sym, err := p.d.symbol(off + i*size)
		if err != nil {
			log.WithField("index", i).Warnf("dynamic symbol table truncated: %v", err)
			break
		}
		sym.Name = p.dynstring(uint64(sym.NameIndex))
		sym.Dynamic = true
		p.b.DynamicSymbols = append(p.b.DynamicSymbols, sym)
	}
}

func (p *parser) parseStaticSymbols() {
	for _, sec := range p.b.Sections {
		if sec.Type != elf.SHT_SYMTAB || sec.Invalid {
			continue
		}
		p.b.StaticSymbols = append(p.b.StaticSymbols, p.readSymbolSection(sec)...)
	}
}

func (p *parser) readSymbolSection(sec *Section) []*Symbol {
	entsize := sec.Entsize
	if entsize < p.d.symSize() {
		entsize = p.d.symSize()
	}
	count := sec.Size / entsize
	if err := checkLimit(sec.Name, count, NbMaxSymbols); err != nil {
		p.warn("static symbols", err)
		return nil
	}

	var strtab []byte
	if uint64(sec.Link) < uint64(len(p.b.Sections)) {
		strtab = p.b.Sections[sec.Link].Content()
	}

	syms := make([]*Symbol, 0, count)
	for i := uint64(0); i < count; i++ {
		sym, err := p.d.symbol(sec.Offset + i*entsize)
		if err != nil {
			log.WithField("section", sec.Name).Warnf("symbol table truncated: %v", err)
			break
		}
		sym.Name = cstring(strtab, uint64(sym.NameIndex))
		syms = append(syms, sym)
	}
	return syms
}
