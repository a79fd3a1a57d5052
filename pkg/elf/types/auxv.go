package types

// AuxType is an auxiliary vector entry type (AT_*).
type AuxType uint64

const (
	AtNull         AuxType = 0
	AtIgnore       AuxType = 1
	AtExecFd       AuxType = 2
	AtPhdr         AuxType = 3
	AtPhent        AuxType = 4
	AtPhnum        AuxType = 5
	AtPagesz       AuxType = 6
	AtBase         AuxType = 7
	AtFlags        AuxType = 8
	AtEntry        AuxType = 9
	AtNotElf       AuxType = 10
	AtUID          AuxType = 11
	AtEUID         AuxType = 12
	AtGID          AuxType = 13
	AtEGID         AuxType = 14
	AtPlatform     AuxType = 15
	AtHwcap        AuxType = 16
	AtClktck       AuxType = 17
	AtFpucw        AuxType = 18
	AtDcachebsize  AuxType = 19
	AtIcachebsize  AuxType = 20
	AtUcachebsize  AuxType = 21
	AtIgnorePPC    AuxType = 22
	AtSecure       AuxType = 23
	AtBasePlatform AuxType = 24
	AtRandom       AuxType = 25
	AtHwcap2       AuxType = 26
	AtExecfn       AuxType = 31
	AtSysinfo      AuxType = 32
	AtSysinfoEhdr  AuxType = 33
	AtMinsigstksz  AuxType = 51
)

var auxTypeStrings = []intName{
	{uint64(AtNull), "AT_NULL"},
	{uint64(AtIgnore), "AT_IGNORE"},
	{uint64(AtExecFd), "AT_EXECFD"},
	{uint64(AtPhdr), "AT_PHDR"},
	{uint64(AtPhent), "AT_PHENT"},
	{uint64(AtPhnum), "AT_PHNUM"},
	{uint64(AtPagesz), "AT_PAGESZ"},
	{uint64(AtBase), "AT_BASE"},
	{uint64(AtFlags), "AT_FLAGS"},
	{uint64(AtEntry), "AT_ENTRY"},
	{uint64(AtNotElf), "AT_NOTELF"},
	{uint64(AtUID), "AT_UID"},
	{uint64(AtEUID), "AT_EUID"},
	{uint64(AtGID), "AT_GID"},
	{uint64(AtEGID), "AT_EGID"},
	{uint64(AtPlatform), "AT_PLATFORM"},
	{uint64(AtHwcap), "AT_HWCAP"},
	{uint64(AtClktck), "AT_CLKTCK"},
	{uint64(AtFpucw), "AT_FPUCW"},
	{uint64(AtDcachebsize), "AT_DCACHEBSIZE"},
	{uint64(AtIcachebsize), "AT_ICACHEBSIZE"},
	{uint64(AtUcachebsize), "AT_UCACHEBSIZE"},
	{uint64(AtIgnorePPC), "AT_IGNOREPPC"},
	{uint64(AtSecure), "AT_SECURE"},
	{uint64(AtBasePlatform), "AT_BASE_PLATFORM"},
	{uint64(AtRandom), "AT_RANDOM"},
	{uint64(AtHwcap2), "AT_HWCAP2"},
	{uint64(AtExecfn), "AT_EXECFN"},
	{uint64(AtSysinfo), "AT_SYSINFO"},
	{uint64(AtSysinfoEhdr), "AT_SYSINFO_EHDR"},
	{uint64(AtMinsigstksz), "AT_MINSIGSTKSZ"},
}

func (t AuxType) String() string   { return stringName(uint64(t), auxTypeStrings, false) }
func (t AuxType) GoString() string { return stringName(uint64(t), auxTypeStrings, true) }

// Auxv32 is one entry of a 32-bit auxiliary vector.
type Auxv32 struct {
	Type, Val uint32
}

// Auxv64 is one entry of a 64-bit auxiliary vector.
type Auxv64 struct {
	Type, Val uint64
}
