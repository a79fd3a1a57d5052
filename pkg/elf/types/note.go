package types

// NoteType is the type field of a note. Its meaning depends on the note
// name and on whether the file is a core dump.
type NoteType uint32

// Core dump note types (name "CORE" or "LINUX").
const (
	NtPrStatus   NoteType = 1
	NtPrFpReg    NoteType = 2
	NtPrPsInfo   NoteType = 3
	NtTaskStruct NoteType = 4
	NtAuxv       NoteType = 6
	NtPrXFpReg   NoteType = 0x46e62b7f
	NtSigInfo    NoteType = 0x53494749
	NtFile       NoteType = 0x46494c45
)

// GNU note types (name "GNU").
const (
	NtGnuAbiTag        NoteType = 1
	NtGnuHwcap         NoteType = 2
	NtGnuBuildID       NoteType = 3
	NtGnuGoldVersion   NoteType = 4
	NtGnuPropertyType0 NoteType = 5
)

var coreNoteStrings = []intName{
	{uint64(NtPrStatus), "NT_PRSTATUS"},
	{uint64(NtPrFpReg), "NT_PRFPREG"},
	{uint64(NtPrPsInfo), "NT_PRPSINFO"},
	{uint64(NtTaskStruct), "NT_TASKSTRUCT"},
	{uint64(NtAuxv), "NT_AUXV"},
	{uint64(NtPrXFpReg), "NT_PRXFPREG"},
	{uint64(NtSigInfo), "NT_SIGINFO"},
	{uint64(NtFile), "NT_FILE"},
}

var gnuNoteStrings = []intName{
	{uint64(NtGnuAbiTag), "NT_GNU_ABI_TAG"},
	{uint64(NtGnuHwcap), "NT_GNU_HWCAP"},
	{uint64(NtGnuBuildID), "NT_GNU_BUILD_ID"},
	{uint64(NtGnuGoldVersion), "NT_GNU_GOLD_VERSION"},
	{uint64(NtGnuPropertyType0), "NT_GNU_PROPERTY_TYPE_0"},
}

// CoreString names t as a core dump note type.
func (t NoteType) CoreString() string { return stringName(uint64(t), coreNoteStrings, false) }

// String names t as a GNU note type.
func (t NoteType) String() string { return stringName(uint64(t), gnuNoteStrings, false) }

// NoteAbiOS is the OS field of a NT_GNU_ABI_TAG note.
type NoteAbiOS uint32

const (
	AbiLinux    NoteAbiOS = 0
	AbiGnu      NoteAbiOS = 1
	AbiSolaris2 NoteAbiOS = 2
	AbiFreeBSD  NoteAbiOS = 3
	AbiNetBSD   NoteAbiOS = 4
	AbiSyllable NoteAbiOS = 5
)

var abiStrings = []intName{
	{uint64(AbiLinux), "Linux"},
	{uint64(AbiGnu), "GNU"},
	{uint64(AbiSolaris2), "Solaris2"},
	{uint64(AbiFreeBSD), "FreeBSD"},
	{uint64(AbiNetBSD), "NetBSD"},
	{uint64(AbiSyllable), "Syllable"},
}

func (o NoteAbiOS) String() string { return stringName(uint64(o), abiStrings, false) }
