package elf

import (
	"debug/elf"

	"github.com/apex/log"
)

// parser fills a Binary stage by stage. Every stage after the header is
// best effort and only logs what it could not read.
type parser struct {
	conf Config
	d    *decoder
	b    *Binary

	// dynamic string table, as a file range
	dynstrOff  uint64
	dynstrSize uint64
	hasDynstr  bool
}

func (p *parser) parse() (*Binary, error) {
	hdr, err := p.d.header()
	if err != nil {
		return nil, err
	}
	p.b = &Binary{
		Name:         p.conf.Name,
		OriginalSize: uint64(p.d.s.Size()),
		Header:       hdr,
		d:            p.d,
	}

	log.WithFields(log.Fields{
		"name":    p.conf.Name,
		"class":   hdr.Class,
		"machine": hdr.Machine,
		"type":    hdr.Type,
	}).Debug("Parsing ELF")

	p.parseSections()
	p.parseSegments()
	p.parseDynamicEntries()
	p.parseDynamicSymbols()
	p.parseStaticSymbols()
	p.parseRelocations()
	p.parseSymbolVersions()
	p.linkSymbolVersions()
	p.parseHashTables()
	p.parseNotes()
	p.parseOverlay()

	return p.b, nil
}

func (p *parser) warn(stage string, err error) {
	log.WithField("stage", stage).Warnf("%v", err)
}

// sectionCount returns e_shnum, or the extended count held by the first
// section header when e_shnum is 0.
func (p *parser) sectionCount() uint64 {
	h := p.b.Header
	if h.NumSections != 0 || h.SectionHeaderOffset == 0 {
		return uint64(h.NumSections)
	}
	sec, err := p.d.section(h.SectionHeaderOffset)
	if err != nil {
		return 0
	}
	return sec.Size
}

func (p *parser) parseSections() {
	h := p.b.Header
	if h.SectionHeaderOffset == 0 {
		return
	}
	count := p.sectionCount()
	if err := checkLimit("sections", count, NbMaxSections); err != nil {
		p.warn("sections", err)
		return
	}

	size := p.d.shdrSize()
	fileSize := uint64(p.d.s.Size())
	for i := uint64(0); i < count; i++ {
		sec, err := p.d.section(h.SectionHeaderOffset + i*size)
		if err != nil {
			log.WithField("index", i).Warnf("section header table truncated: %v", err)
			break
		}
		switch {
		case sec.Type == elf.SHT_NOBITS:
			sec.Invalid = sec.Offset > fileSize
		case sec.Size > MaxSectionSize:
			sec.Invalid = true
		default:
			dat, err := p.d.s.Read(soff(sec.Offset), int64(sec.Size))
			if err != nil {
				sec.Invalid = true
				break
			}
			sec.content = dat
		}
		if sec.Invalid {
			log.WithFields(log.Fields{
				"index":  i,
				"offset": sec.Offset,
				"size":   sec.Size,
			}).Warn("section does not fit in the file")
		}
		p.b.Sections = append(p.b.Sections, sec)
	}

	strndx := uint64(h.SectionNameIndex)
	if h.SectionNameIndex == uint16(elf.SHN_XINDEX) && len(p.b.Sections) > 0 {
		strndx = uint64(p.b.Sections[0].Link)
	}
	if strndx >= uint64(len(p.b.Sections)) || p.b.Sections[strndx].Invalid {
		log.Debug("no section name string table")
		return
	}
	shstr := p.b.Sections[strndx].Content()
	for _, sec := range p.b.Sections {
		sec.Name = cstring(shstr, uint64(sec.NameIndex))
	}
}

// segmentCount returns e_phnum, or the extended count held by the first
// section header when e_phnum is PN_XNUM.
func (p *parser) segmentCount() uint64 {
	h := p.b.Header
	if h.NumProgramHeaders == 0xffff && len(p.b.Sections) > 0 {
		return uint64(p.b.Sections[0].Info)
	}
	return uint64(h.NumProgramHeaders)
}

func (p *parser) parseSegments() {
	h := p.b.Header
	if h.ProgramHeaderOffset == 0 {
		return
	}
	count := p.segmentCount()
	if err := checkLimit("segments", count, NbMaxSegments); err != nil {
		p.warn("segments", err)
		return
	}

	size := p.d.phdrSize()
	for i := uint64(0); i < count; i++ {
		seg, err := p.d.segment(h.ProgramHeaderOffset + i*size)
		if err != nil {
			log.WithField("index", i).Warnf("program header table truncated: %v", err)
			break
		}
		if seg.FileSize > MaxSegmentSize {
			seg.Invalid = true
		} else if dat, err := p.d.s.Read(soff(seg.Offset), int64(seg.FileSize)); err != nil {
			seg.Invalid = true
		} else {
			seg.content = dat
		}
		if seg.Invalid {
			log.WithFields(log.Fields{
				"index":  i,
				"offset": seg.Offset,
				"size":   seg.FileSize,
			}).Warn("segment does not fit in the file")
		}
		p.b.Segments = append(p.b.Segments, seg)
	}
}

// parseOverlay keeps the bytes following the last header table, section or
// segment.
func (p *parser) parseOverlay() {
	h := p.b.Header
	end := uint64(h.HeaderSize)
	if len(p.b.Segments) > 0 {
		end = max(end, h.ProgramHeaderOffset+uint64(len(p.b.Segments))*p.d.phdrSize())
	}
	if len(p.b.Sections) > 0 {
		end = max(end, h.SectionHeaderOffset+uint64(len(p.b.Sections))*p.d.shdrSize())
	}
	for _, sec := range p.b.Sections {
		if !sec.Invalid && sec.Type != elf.SHT_NOBITS {
			end = max(end, sec.Offset+sec.Size)
		}
	}
	for _, seg := range p.b.Segments {
		if !seg.Invalid {
			end = max(end, seg.Offset+seg.FileSize)
		}
	}
	if size := uint64(p.d.s.Size()); end < size {
		dat, _ := p.d.s.Read(soff(end), int64(size-end))
		p.b.Overlay = dat
		log.WithFields(log.Fields{"offset": end, "size": size - end}).Debug("Found overlay")
	}
}

// cstring returns the NUL-terminated string at off in tbl.
func cstring(tbl []byte, off uint64) string {
	if off >= uint64(len(tbl)) {
		return ""
	}
	for i := off; i < uint64(len(tbl)); i++ {
		if tbl[i] == 0 {
			return string(tbl[off:i])
		}
	}
	return string(tbl[off:])
}
