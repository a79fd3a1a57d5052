package elf

import "github.com/dustin/go-humanize"

// Hard limits applied to values read from the file. A declared count or size
// above its limit disables the feature it describes instead of driving the
// amount of work or memory a parse performs.
const (
	NbMaxSymbols        = 1000000
	NbMaxBuckets        = NbMaxSymbols
	NbMaxChains         = 1000000
	NbMaxSections       = 10000
	NbMaxSegments       = 10000
	NbMaxRelocations    = 3000000
	NbMaxDynamicEntries = 1000
	NbMaxMaskword       = 512
	NbMaxNotes          = 10000
	NbMaxVersions       = 0x8000

	MaxNoteDescription = 1 * humanize.MiByte
	MaxSectionSize     = 300 * humanize.MiByte
	MaxSegmentSize     = MaxSectionSize
	MaxStringSize      = 1 * humanize.MiByte
)
