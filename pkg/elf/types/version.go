package types

// Verneed is an entry of the version requirement table (SHT_GNU_verneed).
type Verneed struct {
	Version uint16
	Cnt     uint16
	File    uint32
	Aux     uint32
	Next    uint32
}

// Vernaux is an auxiliary entry of a Verneed.
type Vernaux struct {
	Hash  uint32
	Flags uint16
	Other uint16
	Name  uint32
	Next  uint32
}

// Verdef is an entry of the version definition table (SHT_GNU_verdef).
type Verdef struct {
	Version uint16
	Flags   uint16
	Ndx     uint16
	Cnt     uint16
	Hash    uint32
	Aux     uint32
	Next    uint32
}

// Verdaux is an auxiliary entry of a Verdef.
type Verdaux struct {
	Name uint32
	Next uint32
}

const (
	VerneedSize = 16
	VernauxSize = 16
	VerdefSize  = 20
	VerdauxSize = 8
	VersymSize  = 2
)

// Special values of a .gnu.version entry.
const (
	VerNdxLocal  uint16 = 0
	VerNdxGlobal uint16 = 1
	VerNdxMask   uint16 = 0x7fff
	VerHidden    uint16 = 0x8000
)

// VerFlag is a version definition or requirement flag.
type VerFlag uint16

const (
	VerFlgBase VerFlag = 0x1
	VerFlgWeak VerFlag = 0x2
	VerFlgInfo VerFlag = 0x4
)

var verFlagStrings = []intName{
	{uint64(VerFlgBase), "VerFlgBase"},
	{uint64(VerFlgWeak), "VerFlgWeak"},
	{uint64(VerFlgInfo), "VerFlgInfo"},
}

func (f VerFlag) String() string   { return stringName(uint64(f), verFlagStrings, false) }
func (f VerFlag) GoString() string { return stringName(uint64(f), verFlagStrings, true) }
