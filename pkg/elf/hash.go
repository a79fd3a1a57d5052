package elf

// GnuHash is the content of a DT_GNU_HASH table.
// See https://flapenguin.me/elf-dt-gnu-hash
type GnuHash struct {
	SymbolIndex  uint32
	Shift2       uint32
	BloomFilters []uint64
	Buckets      []uint32
	HashValues   []uint32

	wordBits uint32
}

// NbBuckets returns the number of hash buckets.
func (h *GnuHash) NbBuckets() uint32 { return uint32(len(h.Buckets)) }

// MayContain runs the bloom filter for name. A false result means the symbol
// is certainly absent.
func (h *GnuHash) MayContain(name string) bool {
	if len(h.BloomFilters) == 0 || h.wordBits == 0 {
		return true
	}
	hash := GnuHashName(name)
	word := h.BloomFilters[(hash/h.wordBits)%uint32(len(h.BloomFilters))]
	mask := uint64(1)<<(hash%h.wordBits) | uint64(1)<<((hash>>h.Shift2)%h.wordBits)
	return word&mask == mask
}

// SysvHash is the content of a DT_HASH table.
type SysvHash struct {
	Buckets []uint32
	Chains  []uint32
}

// NbBuckets returns the number of hash buckets.
func (h *SysvHash) NbBuckets() uint32 { return uint32(len(h.Buckets)) }

// NbChains returns the number of chain entries, which equals the number of
// dynamic symbols the table was built for.
func (h *SysvHash) NbChains() uint32 { return uint32(len(h.Chains)) }

// GnuHashName is the DT_GNU_HASH hash function.
func GnuHashName(name string) uint32 {
	h := uint32(5381)
	for _, c := range []byte(name) {
		h = h*33 + uint32(c)
	}
	return h
}

// SysvHashName is the DT_HASH hash function.
func SysvHashName(name string) uint32 {
	var h uint32
	for _, c := range []byte(name) {
		h = h<<4 + uint32(c)
		g := h & 0xf0000000
		if g != 0 {
			h ^= g >> 24
		}
		h &^= g
	}
	return h
}
