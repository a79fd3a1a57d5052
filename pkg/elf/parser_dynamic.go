package elf

import (
	"debug/elf"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// dynamicTable locates the dynamic section through PT_DYNAMIC, or through
// the SHT_DYNAMIC section when the binary has no such segment.
func (p *parser) dynamicTable() (off, size uint64, ok bool) {
	if seg := p.b.SegmentByType(elf.PT_DYNAMIC); seg != nil {
		return seg.Offset, seg.FileSize, true
	}
	if sec := p.b.SectionByType(elf.SHT_DYNAMIC); sec != nil {
		return sec.Offset, sec.Size, true
	}
	return 0, 0, false
}

func (p *parser) parseDynamicEntries() {
	off, size, ok := p.dynamicTable()
	if !ok {
		log.Debug("no dynamic section")
		return
	}
	count := size / p.d.dynSize()
	if err := checkLimit("dynamic entries", count, NbMaxDynamicEntries); err != nil {
		p.warn("dynamic", err)
		return
	}

	for i := uint64(0); i < count; i++ {
		tag, val, err := p.d.dynamic(off + i*p.d.dynSize())
		if err != nil {
			log.WithField("index", i).Warnf("dynamic section truncated: %v", err)
			break
		}
		if tag == elf.DT_NULL {
			break
		}
		p.b.DynamicEntries = append(p.b.DynamicEntries, &DynamicEntry{Tag: tag, Value: val})
	}

	p.resolveDynstr()

	for _, e := range p.b.DynamicEntries {
		switch {
		case e.IsString():
			e.Name = p.dynstring(e.Value)
		case e.IsArray():
			arr, err := p.readDynamicArray(e)
			if err != nil {
				log.WithField("tag", e.Tag).Warnf("failed to read dynamic array: %v", err)
				continue
			}
			e.Array = arr
		}
	}
}

// resolveDynstr locates the dynamic string table from DT_STRTAB first, then
// from the .dynstr section.
func (p *parser) resolveDynstr() {
	fileSize := uint64(p.d.s.Size())
	if addr, ok := p.b.dynamicValue(elf.DT_STRTAB); ok {
		if off, err := p.b.VirtualAddressToOffset(addr); err == nil && off < fileSize {
			size, _ := p.b.dynamicValue(elf.DT_STRSZ)
			if size == 0 || size > fileSize-off {
				size = fileSize - off
			}
			p.dynstrOff, p.dynstrSize, p.hasDynstr = off, size, true
			return
		}
		log.Debugf("DT_STRTAB %#x is not mapped", addr)
	}

	sec := p.b.SectionByName(".dynstr")
	if sec == nil || sec.Invalid || sec.Type != elf.SHT_STRTAB {
		for _, s := range p.b.Sections {
			if s.Type == elf.SHT_DYNSYM && !s.Invalid && uint64(s.Link) < uint64(len(p.b.Sections)) {
				sec = p.b.Sections[s.Link]
				break
			}
		}
	}
	if sec == nil || sec.Invalid {
		log.Debug("no dynamic string table")
		return
	}
	p.dynstrOff, p.dynstrSize, p.hasDynstr = sec.Offset, sec.Size, true
}

// dynstring returns the string at idx in the dynamic string table.
func (p *parser) dynstring(idx uint64) string {
	if !p.hasDynstr || idx >= p.dynstrSize {
		return ""
	}
	str, err := p.d.s.ReadCString(soff(p.dynstrOff+idx), int64(min(p.dynstrSize-idx, MaxStringSize)))
	if err != nil {
		log.Debugf("dynamic string at %#x: %v", idx, err)
	}
	return str
}

// readDynamicArray reads the pointers of an array entry, sized by its
// companion *SZ entry.
func (p *parser) readDynamicArray(e *DynamicEntry) ([]uint64, error) {
	size, ok := p.b.dynamicValue(arrayTags[e.Tag])
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", arrayTags[e.Tag])
	}
	off, err := p.b.VirtualAddressToOffset(e.Value)
	if err != nil {
		return nil, err
	}
	ws := p.d.wordSize()
	count := size / ws
	if err := checkLimit(e.Tag.String(), count, NbMaxSymbols); err != nil {
		return nil, err
	}
	if seg, err := p.b.SegmentFromVirtualAddress(e.Value); err == nil {
		end := seg.Offset + seg.FileSize
		if off >= end {
			return nil, errors.Errorf("%s at %#x is not backed by file content", e.Tag, e.Value)
		}
		count = min(count, (end-off)/ws)
	}
	if !p.d.s.CanRead(soff(off), int64(count*ws)) {
		return nil, errors.Errorf("%s of %d entries at %#x exceeds the file", e.Tag, count, off)
	}
	arr := make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		v, err := p.d.word(off + i*ws)
		if err != nil {
			return arr, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}
