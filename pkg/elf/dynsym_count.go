package elf

import (
	"debug/elf"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-elf/internal/stream"
	"github.com/blacktop/go-elf/pkg/elf/types"
	"github.com/pkg/errors"
)

// CountMethod selects how the number of dynamic symbols is computed.
type CountMethod uint8

const (
	// CountAuto tries the methods of AutoCountOrder in turn.
	CountAuto CountMethod = iota
	// CountHash uses the chains of DT_HASH.
	CountHash
	// CountGnuHash walks the last chain of DT_GNU_HASH.
	CountGnuHash
	// CountSection divides the size of .dynsym by its entry size.
	CountSection
	// CountRelocations uses the highest symbol index referenced by the
	// dynamic relocations.
	CountRelocations
	// CountForced uses Config.ForcedCount.
	CountForced
)

var countMethodStrings = []string{"auto", "hash", "gnu-hash", "section", "relocations", "forced"}

func (m CountMethod) String() string {
	if int(m) < len(countMethodStrings) {
		return countMethodStrings[m]
	}
	return fmt.Sprintf("CountMethod(%d)", m)
}

// ParseCountMethod returns the method named s, as printed by String.
func ParseCountMethod(s string) (CountMethod, error) {
	for i, name := range countMethodStrings {
		if strings.EqualFold(s, name) {
			return CountMethod(i), nil
		}
	}
	return 0, fmt.Errorf("unknown symbol count method %q (expected one of %s)", s, strings.Join(countMethodStrings, ", "))
}

func (m CountMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *CountMethod) UnmarshalText(text []byte) error {
	v, err := ParseCountMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// AutoCountOrder is the order in which CountAuto tries the methods. The
// first result in (0, NbMaxSymbols] is accepted.
var AutoCountOrder = []CountMethod{CountHash, CountGnuHash, CountSection, CountRelocations}

// DynSymCount is the accepted number of dynamic symbols and the method that
// produced it.
type DynSymCount struct {
	Method CountMethod
	Count  uint64
}

// CountDynamicSymbols runs a counting method against the binary. CountAuto
// uses AutoCountOrder. CountForced is not a computation and is rejected.
func (b *Binary) CountDynamicSymbols(method CountMethod) (uint64, error) {
	switch method {
	case CountAuto:
		res, err := b.countAuto(AutoCountOrder)
		return res.Count, err
	case CountForced:
		return 0, fmt.Errorf("%s count is set through Config.ForcedCount", method)
	}
	n, err := b.countWith(method)
	if err != nil {
		return 0, err
	}
	return n, checkCount(n)
}

// checkCount accepts n only in (0, NbMaxSymbols].
func checkCount(n uint64) error {
	if n == 0 {
		return errors.New("no dynamic symbol")
	}
	return checkLimit("dynamic symbols", n, NbMaxSymbols)
}

func (b *Binary) countAuto(order []CountMethod) (DynSymCount, error) {
	for _, m := range order {
		if m == CountAuto || m == CountForced {
			continue
		}
		n, err := b.countWith(m)
		if err == nil {
			err = checkCount(n)
		}
		if err != nil {
			log.WithField("method", m).Debugf("dynamic symbol count rejected: %v", err)
			continue
		}
		return DynSymCount{Method: m, Count: n}, nil
	}
	return DynSymCount{Method: CountAuto}, ErrAmbiguousCount
}

func (b *Binary) countWith(m CountMethod) (uint64, error) {
	if b.d == nil {
		return 0, errors.New("binary has no backing data")
	}
	switch m {
	case CountHash:
		return b.countFromHash()
	case CountGnuHash:
		return b.countFromGnuHash()
	case CountSection:
		return b.countFromSection()
	case CountRelocations:
		return b.countFromRelocations()
	}
	return 0, fmt.Errorf("invalid count method %s", m)
}

// dynamicOffset returns the file offset of the address held by tag.
func (b *Binary) dynamicOffset(tag elf.DynTag) (uint64, error) {
	addr, ok := b.dynamicValue(tag)
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "%s", tag)
	}
	return b.VirtualAddressToOffset(addr)
}

// countFromHash returns the highest symbol index reachable through the
// DT_HASH buckets and chains, plus one.
func (b *Binary) countFromHash() (uint64, error) {
	off, err := b.dynamicOffset(elf.DT_HASH)
	if err != nil {
		return 0, err
	}
	nbucket, err := stream.ReadInteger[uint32](b.d.s, soff(off))
	if err != nil {
		return 0, err
	}
	nchain, err := stream.ReadInteger[uint32](b.d.s, soff(off+4))
	if err != nil {
		return 0, err
	}
	if err := checkLimit("DT_HASH buckets", uint64(nbucket), NbMaxBuckets); err != nil {
		return 0, err
	}
	if err := checkLimit("DT_HASH chains", uint64(nchain), NbMaxChains); err != nil {
		return 0, err
	}

	buckets, err := b.readWords32(off+8, uint64(nbucket))
	if err != nil {
		return 0, err
	}
	chains, err := b.readWords32(off+8+4*uint64(nbucket), uint64(nchain))
	if err != nil {
		return 0, err
	}

	var highest uint64
	seen := make([]bool, nchain)
	for _, idx := range buckets {
		for idx != 0 && idx < nchain && !seen[idx] {
			seen[idx] = true
			highest = max(highest, uint64(idx))
			idx = chains[idx]
		}
	}
	if highest == 0 {
		return 0, nil
	}
	return highest + 1, nil
}

// countFromGnuHash walks the chain of the highest bucket up to the entry
// ending it. See https://flapenguin.me/elf-dt-gnu-hash
func (b *Binary) countFromGnuHash() (uint64, error) {
	off, err := b.dynamicOffset(elf.DT_GNU_HASH)
	if err != nil {
		return 0, err
	}
	hdr, err := b.gnuHashHeader(off)
	if err != nil {
		return 0, err
	}

	bucketsOff := off + types.GnuHashHeaderSize + uint64(hdr.BloomSize)*b.d.wordSize()
	buckets, err := b.readWords32(bucketsOff, uint64(hdr.NBuckets))
	if err != nil {
		return 0, err
	}
	var maxBucket uint32
	for _, v := range buckets {
		maxBucket = max(maxBucket, v)
	}
	if maxBucket == 0 {
		return 0, nil
	}
	if maxBucket < hdr.SymOffset {
		return 0, fmt.Errorf("DT_GNU_HASH bucket %d below symbol offset %d", maxBucket, hdr.SymOffset)
	}

	chainOff := bucketsOff + 4*uint64(hdr.NBuckets) + 4*uint64(maxBucket-hdr.SymOffset)
	var nsyms uint64
	for {
		hash, err := stream.ReadInteger[uint32](b.d.s, soff(chainOff+4*nsyms))
		if err != nil {
			return 0, err
		}
		nsyms++
		if hash&1 != 0 {
			break
		}
		if err := checkLimit("DT_GNU_HASH chain", nsyms, NbMaxSymbols); err != nil {
			return 0, err
		}
	}
	return uint64(maxBucket) + nsyms, nil
}

// countFromSection divides the size of the dynamic symbol section by its
// entry size.
func (b *Binary) countFromSection() (uint64, error) {
	sec := b.SectionByType(elf.SHT_DYNSYM)
	if sec == nil {
		return 0, errors.Wrap(ErrNotFound, "SHT_DYNSYM section")
	}
	entsize := sec.Entsize
	if entsize == 0 {
		entsize = b.d.symSize()
	}
	return sec.Size / entsize, nil
}

// countFromRelocations returns the highest symbol index used by DT_RELA,
// DT_REL and DT_JMPREL, plus one.
func (b *Binary) countFromRelocations() (uint64, error) {
	var highest uint64
	var found bool
	for _, tbl := range b.dynamicRelocationTables() {
		count := tbl.size / b.d.relSize(tbl.rela)
		if err := checkLimit(tbl.tag.String(), count, NbMaxRelocations); err != nil {
			return 0, err
		}
		for i := uint64(0); i < count; i++ {
			r, err := b.d.relocation(tbl.offset+i*b.d.relSize(tbl.rela), tbl.rela)
			if err != nil {
				break
			}
			found = true
			highest = max(highest, uint64(r.symIdx))
		}
	}
	if !found {
		return 0, errors.Wrap(ErrNotFound, "dynamic relocations")
	}
	return highest + 1, nil
}

func (b *Binary) gnuHashHeader(off uint64) (hdr types.GnuHashHeader, err error) {
	if err := b.d.s.Peek(soff(off), &hdr); err != nil {
		return hdr, err
	}
	if err := checkLimit("DT_GNU_HASH buckets", uint64(hdr.NBuckets), NbMaxBuckets); err != nil {
		return hdr, err
	}
	if err := checkLimit("DT_GNU_HASH maskwords", uint64(hdr.BloomSize), NbMaxMaskword); err != nil {
		return hdr, err
	}
	return hdr, nil
}

// readWords32 reads count consecutive 32-bit words at off.
func (b *Binary) readWords32(off, count uint64) ([]uint32, error) {
	if !b.d.s.CanRead(soff(off), int64(count)*4) {
		return nil, &stream.BoundsError{Offset: soff(off), Length: int64(count) * 4, Size: b.d.s.Size()}
	}
	words := make([]uint32, count)
	if err := b.d.s.Peek(soff(off), words); err != nil {
		return nil, err
	}
	return words, nil
}
