package elf

import (
	"bytes"
	"fmt"

	"github.com/blacktop/go-elf/pkg/elf/types"
	"github.com/lunixbochs/struc"
)

// NoteAbi is the content of a NT_GNU_ABI_TAG note: the OS and the earliest
// kernel version the binary runs on.
type NoteAbi struct {
	note *Note

	OS      types.NoteAbiOS
	Version [3]uint32
}

type abiTag struct {
	OS      uint32
	Version [3]uint32
}

func (a *NoteAbi) Note() *Note { return a.note }

func (a *NoteAbi) Parse() error {
	var tag abiTag
	if err := struc.UnpackWithOrder(bytes.NewReader(a.note.Description), &tag, a.note.ByteOrder()); err != nil {
		return err
	}
	a.OS, a.Version = types.NoteAbiOS(tag.OS), tag.Version
	return nil
}

func (a *NoteAbi) Build() error {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, &abiTag{OS: uint32(a.OS), Version: a.Version}, a.note.ByteOrder()); err != nil {
		return err
	}
	a.note.Description = buf.Bytes()
	return nil
}

// SetVersion replaces the version triple and rebuilds the description.
func (a *NoteAbi) SetVersion(major, minor, patch uint32) error {
	a.Version = [3]uint32{major, minor, patch}
	return a.Build()
}

func (a *NoteAbi) String() string {
	return fmt.Sprintf("    OS: %s, ABI: %d.%d.%d", a.OS, a.Version[0], a.Version[1], a.Version[2])
}
