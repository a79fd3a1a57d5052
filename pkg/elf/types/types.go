// Package types holds the on-disk ELF record layouts and constants that
// debug/elf does not define: symbol versioning records, GNU hash headers,
// note headers, core note types and auxiliary vector types.
package types

import "strconv"

type intName struct {
	i uint64
	s string
}

func stringName(i uint64, names []intName, goSyntax bool) string {
	for _, n := range names {
		if n.i == i {
			if goSyntax {
				return "types." + n.s
			}
			return n.s
		}
	}
	return strconv.FormatUint(i, 10)
}

// Nhdr is a note header. It has the same layout in ELF32 and ELF64.
type Nhdr struct {
	Namesz uint32
	Descsz uint32
	Type   uint32
}

// NhdrSize is the size in bytes of a note header.
const NhdrSize = 12

// GnuHashHeader is the fixed header of a DT_GNU_HASH table.
type GnuHashHeader struct {
	NBuckets  uint32
	SymOffset uint32
	BloomSize uint32
	Shift2    uint32
}

// GnuHashHeaderSize is the size in bytes of a GnuHashHeader.
const GnuHashHeaderSize = 16

// SysvHashHeader is the fixed header of a DT_HASH table.
type SysvHashHeader struct {
	NBucket uint32
	NChain  uint32
}
