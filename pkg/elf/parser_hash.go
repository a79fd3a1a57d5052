package elf

import (
	"debug/elf"

	"github.com/apex/log"
	"github.com/blacktop/go-elf/pkg/elf/types"
)

func (p *parser) parseHashTables() {
	if p.b.HasDynamicEntry(elf.DT_GNU_HASH) {
		if err := p.parseGnuHash(); err != nil {
			p.warn("gnu hash", err)
		}
	}
	if p.b.HasDynamicEntry(elf.DT_HASH) {
		if err := p.parseSysvHash(); err != nil {
			p.warn("sysv hash", err)
		}
	}
}

func (p *parser) parseGnuHash() error {
	off, err := p.b.dynamicOffset(elf.DT_GNU_HASH)
	if err != nil {
		return err
	}
	hdr, err := p.b.gnuHashHeader(off)
	if err != nil {
		return err
	}

	ws := p.d.wordSize()
	gh := &GnuHash{
		SymbolIndex: hdr.SymOffset,
		Shift2:      hdr.Shift2,
		wordBits:    uint32(ws * 8),
	}

	off += types.GnuHashHeaderSize
	gh.BloomFilters = make([]uint64, 0, hdr.BloomSize)
	for i := uint64(0); i < uint64(hdr.BloomSize); i++ {
		w, err := p.d.word(off + i*ws)
		if err != nil {
			return err
		}
		gh.BloomFilters = append(gh.BloomFilters, w)
	}
	off += uint64(hdr.BloomSize) * ws

	if gh.Buckets, err = p.b.readWords32(off, uint64(hdr.NBuckets)); err != nil {
		return err
	}
	off += 4 * uint64(hdr.NBuckets)

	if nsyms := uint32(len(p.b.DynamicSymbols)); nsyms > hdr.SymOffset {
		if gh.HashValues, err = p.b.readWords32(off, uint64(nsyms-hdr.SymOffset)); err != nil {
			log.Debugf("DT_GNU_HASH chains truncated: %v", err)
		}
	}
	p.b.GnuHash = gh
	return nil
}

func (p *parser) parseSysvHash() error {
	off, err := p.b.dynamicOffset(elf.DT_HASH)
	if err != nil {
		return err
	}
	var hdr types.SysvHashHeader
	if err := p.d.s.Peek(soff(off), &hdr); err != nil {
		return err
	}
	if err := checkLimit("DT_HASH buckets", uint64(hdr.NBucket), NbMaxBuckets); err != nil {
		return err
	}
	if err := checkLimit("DT_HASH chains", uint64(hdr.NChain), NbMaxChains); err != nil {
		return err
	}

	sh := &SysvHash{}
	if sh.Buckets, err = p.b.readWords32(off+8, uint64(hdr.NBucket)); err != nil {
		return err
	}
	if sh.Chains, err = p.b.readWords32(off+8+4*uint64(hdr.NBucket), uint64(hdr.NChain)); err != nil {
		return err
	}
	p.b.SysvHash = sh
	return nil
}
