package magic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

type Magic uint32

const (
	MagicELF   Magic = 0x464c457f // "\x7fELF" read as little endian
	Magic32    Magic = 0xfeedface
	Magic64    Magic = 0xfeedfacf
	MagicFatBE Magic = 0xcafebabe
	MagicFatLE Magic = 0xbebafeca
)

var (
	peMagic = []byte("MZ")
	arMagic = []byte("!<arch>\n")
)

func readMagic(filePath string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer f.Close()

	var magic [8]byte
	n, err := io.ReadFull(f, magic[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	return magic[:n], nil
}

// IsELFData reports whether dat starts with the ELF magic.
func IsELFData(dat []byte) bool {
	return len(dat) >= 4 && Magic(binary.LittleEndian.Uint32(dat)) == MagicELF
}

// IsELF reports whether the file at filePath is an ELF file. The error names
// the detected format when it is a known non-ELF binary.
func IsELF(filePath string) (bool, error) {
	magic, err := readMagic(filePath)
	if err != nil {
		return false, err
	}
	if IsELFData(magic) {
		return true, nil
	}

	if len(magic) >= 4 {
		switch Magic(binary.LittleEndian.Uint32(magic)) {
		case Magic32, Magic64, MagicFatBE, MagicFatLE:
			return false, fmt.Errorf("macho file detected")
		}
	}
	switch {
	case bytes.HasPrefix(magic, arMagic):
		return false, fmt.Errorf("ar archive detected (extract the members first)")
	case bytes.HasPrefix(magic, peMagic):
		return false, fmt.Errorf("PE file detected")
	}

	return false, fmt.Errorf("not an ELF file")
}
