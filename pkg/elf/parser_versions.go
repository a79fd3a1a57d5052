package elf

import (
	"debug/elf"

	"github.com/apex/log"
	"github.com/blacktop/go-elf/internal/stream"
	"github.com/blacktop/go-elf/pkg/elf/types"
)

// versionTable locates a versioning table through its dynamic tags, or
// through its section. The count comes from the *NUM tag or sh_info.
func (p *parser) versionTable(addrTag, numTag elf.DynTag, typ elf.SectionType) (off, num uint64, ok bool) {
	if addr, found := p.b.dynamicValue(addrTag); found {
		if o, err := p.b.VirtualAddressToOffset(addr); err == nil {
			n, _ := p.b.dynamicValue(numTag)
			return o, n, true
		}
		log.Debugf("%s %#x is not mapped", addrTag, addr)
	}
	if sec := p.b.SectionByType(typ); sec != nil {
		return sec.Offset, uint64(sec.Info), true
	}
	return 0, 0, false
}

func (p *parser) parseSymbolVersions() {
	if len(p.b.DynamicSymbols) == 0 {
		return
	}
	p.parseSymbolVersionRequirements()
	p.parseSymbolVersionDefinitions()
	p.parseSymbolVersionTable()
}

func (p *parser) parseSymbolVersionTable() {
	off, _, ok := p.versionTable(elf.DT_VERSYM, 0, elf.SHT_GNU_VERSYM)
	if !ok {
		return
	}
	count := uint64(len(p.b.DynamicSymbols))
	tbl := make([]*SymbolVersion, 0, count)
	for i := uint64(0); i < count; i++ {
		v, err := stream.ReadInteger[uint16](p.d.s, soff(off+i*types.VersymSize))
		if err != nil {
			log.WithField("index", i).Warnf("symbol version table truncated: %v", err)
			break
		}
		switch v {
		case types.VerNdxLocal:
			tbl = append(tbl, SymbolVersionLocal())
		case types.VerNdxGlobal:
			tbl = append(tbl, SymbolVersionGlobal())
		default:
			tbl = append(tbl, &SymbolVersion{Value: v})
		}
	}
	p.b.SymbolVersionTable = tbl
}

func (p *parser) parseSymbolVersionRequirements() {
	off, num, ok := p.versionTable(elf.DT_VERNEED, elf.DT_VERNEEDNUM, elf.SHT_GNU_VERNEED)
	if !ok {
		return
	}
	if err := checkLimit("version requirements", num, NbMaxVersions); err != nil {
		p.warn("symbol versions", err)
		return
	}

	for i := uint64(0); i < num; i++ {
		vn, err := peek[types.Verneed](p.d, off)
		if err != nil {
			log.WithField("index", i).Warnf("version requirement truncated: %v", err)
			return
		}
		req := &SymbolVersionRequirement{
			Version: vn.Version,
			Name:    p.dynstring(uint64(vn.File)),
		}
		if err := checkLimit("version requirement aux", uint64(vn.Cnt), NbMaxVersions); err != nil {
			p.warn("symbol versions", err)
			return
		}
		auxOff := off + uint64(vn.Aux)
		for j := uint16(0); j < vn.Cnt; j++ {
			vna, err := peek[types.Vernaux](p.d, auxOff)
			if err != nil {
				log.WithField("index", j).Warnf("version requirement aux truncated: %v", err)
				break
			}
			req.Auxiliaries = append(req.Auxiliaries, &SymbolVersionAuxRequirement{
				SymbolVersionAux: SymbolVersionAux{Name: p.dynstring(uint64(vna.Name))},
				Hash:             vna.Hash,
				Flags:            types.VerFlag(vna.Flags),
				Other:            vna.Other,
			})
			if vna.Next == 0 {
				break
			}
			auxOff += uint64(vna.Next)
		}
		p.b.SymbolVersionRequirements = append(p.b.SymbolVersionRequirements, req)
		if vn.Next == 0 {
			break
		}
		off += uint64(vn.Next)
	}
}

func (p *parser) parseSymbolVersionDefinitions() {
	off, num, ok := p.versionTable(elf.DT_VERDEF, elf.DT_VERDEFNUM, elf.SHT_GNU_VERDEF)
	if !ok {
		return
	}
	if err := checkLimit("version definitions", num, NbMaxVersions); err != nil {
		p.warn("symbol versions", err)
		return
	}

	for i := uint64(0); i < num; i++ {
		vd, err := peek[types.Verdef](p.d, off)
		if err != nil {
			log.WithField("index", i).Warnf("version definition truncated: %v", err)
			return
		}
		def := &SymbolVersionDefinition{
			Version: vd.Version,
			Flags:   types.VerFlag(vd.Flags),
			Ndx:     vd.Ndx,
			Hash:    vd.Hash,
		}
		auxOff := off + uint64(vd.Aux)
		for j := uint16(0); j < vd.Cnt; j++ {
			vda, err := peek[types.Verdaux](p.d, auxOff)
			if err != nil {
				log.WithField("index", j).Warnf("version definition aux truncated: %v", err)
				break
			}
			def.Auxiliaries = append(def.Auxiliaries, &SymbolVersionAux{Name: p.dynstring(uint64(vda.Name))})
			if vda.Next == 0 {
				break
			}
			auxOff += uint64(vda.Next)
		}
		p.b.SymbolVersionDefinitions = append(p.b.SymbolVersionDefinitions, def)
		if vd.Next == 0 {
			break
		}
		off += uint64(vd.Next)
	}
}

// linkSymbolVersions attaches each dynamic symbol to its entry of the
// version table and resolves the auxiliary of versions other than local and
// global. It needs the version table, the requirements and the definitions.
func (p *parser) linkSymbolVersions() {
	tbl := p.b.SymbolVersionTable
	if len(tbl) == 0 {
		return
	}
	if len(tbl) != len(p.b.DynamicSymbols) {
		log.WithFields(log.Fields{
			"versions": len(tbl),
			"symbols":  len(p.b.DynamicSymbols),
		}).Warn("symbol version table does not match the dynamic symbols")
		return
	}

	for i, sym := range p.b.DynamicSymbols {
		v := tbl[i]
		sym.Version = v
		if v.IsLocal() || v.IsGlobal() {
			continue
		}
		aux := p.b.versionAux(v.Index())
		if aux == nil {
			log.WithFields(log.Fields{"symbol": sym.Name, "version": v.Index()}).Debug("unresolved symbol version")
			continue
		}
		v.Aux = &SymbolVersionAux{Name: aux.Name}
	}
}

// versionAux finds the auxiliary a version index refers to, among the
// requirements and then the definitions.
func (b *Binary) versionAux(idx uint16) *SymbolVersionAux {
	for _, req := range b.SymbolVersionRequirements {
		for _, aux := range req.Auxiliaries {
			if aux.Other&types.VerNdxMask == idx {
				return &aux.SymbolVersionAux
			}
		}
	}
	for _, def := range b.SymbolVersionDefinitions {
		if def.Ndx&types.VerNdxMask == idx && len(def.Auxiliaries) > 0 {
			return def.Auxiliaries[0]
		}
	}
	return nil
}
