package elf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lunixbochs/struc"
)

type coreFileHeader64 struct {
	Count    uint64
	PageSize uint64
}

type coreFileHeader32 struct {
	Count    uint32
	PageSize uint32
}

type coreFileEntry64 struct {
	Start  uint64
	End    uint64
	FileOf uint64
}

type coreFileEntry32 struct {
	Start  uint32
	End    uint32
	FileOf uint32
}

// CoreFileEntry is a file mapping of a NT_FILE note. FileOffset is expressed
// in pages.
type CoreFileEntry struct {
	Start      uint64
	End        uint64
	FileOffset uint64
	Path       string
}

// CoreFile is the list of memory mapped files saved in a NT_FILE core note.
type CoreFile struct {
	note *Note

	PageSize uint64
	Files    []CoreFileEntry
}

func (f *CoreFile) Note() *Note { return f.note }

func (f *CoreFile) Parse() error {
	desc := f.note.Description
	r := bytes.NewReader(desc)
	order := f.note.ByteOrder()
	ws := uint64(f.note.wordSize())

	var count uint64
	if f.note.Is64() {
		var h coreFileHeader64
		if err := struc.UnpackWithOrder(r, &h, order); err != nil {
			return err
		}
		count, f.PageSize = h.Count, h.PageSize
	} else {
		var h coreFileHeader32
		if err := struc.UnpackWithOrder(r, &h, order); err != nil {
			return err
		}
		count, f.PageSize = uint64(h.Count), uint64(h.PageSize)
	}
	if err := checkLimit("NT_FILE entries", count, uint64(len(desc))/(3*ws)); err != nil {
		return err
	}

	f.Files = make([]CoreFileEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		var ent CoreFileEntry
		if f.note.Is64() {
			var e coreFileEntry64
			if err := struc.UnpackWithOrder(r, &e, order); err != nil {
				return err
			}
			ent = CoreFileEntry{Start: e.Start, End: e.End, FileOffset: e.FileOf}
		} else {
			var e coreFileEntry32
			if err := struc.UnpackWithOrder(r, &e, order); err != nil {
				return err
			}
			ent = CoreFileEntry{Start: uint64(e.Start), End: uint64(e.End), FileOffset: uint64(e.FileOf)}
		}
		f.Files = append(f.Files, ent)
	}

	names := desc[len(desc)-r.Len():]
	for i := range f.Files {
		idx := bytes.IndexByte(names, 0)
		if idx < 0 {
			f.Files[i].Path = string(names)
			names = nil
			continue
		}
		f.Files[i].Path = string(names[:idx])
		names = names[idx+1:]
	}
	return nil
}

// check fails when a value does not fit in a word of the note's class.
func (f *CoreFile) check(pageSize uint64, files []CoreFileEntry) error {
	if err := f.note.checkWord("page size", pageSize); err != nil {
		return err
	}
	for _, e := range files {
		for _, v := range []uint64{e.Start, e.End, e.FileOffset} {
			if err := f.note.checkWord(e.Path, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *CoreFile) Build() error {
	if err := f.check(f.PageSize, f.Files); err != nil {
		return err
	}
	var buf bytes.Buffer
	order := f.note.ByteOrder()

	if f.note.Is64() {
		if err := struc.PackWithOrder(&buf, &coreFileHeader64{uint64(len(f.Files)), f.PageSize}, order); err != nil {
			return err
		}
		for _, e := range f.Files {
			if err := struc.PackWithOrder(&buf, &coreFileEntry64{e.Start, e.End, e.FileOffset}, order); err != nil {
				return err
			}
		}
	} else {
		if err := struc.PackWithOrder(&buf, &coreFileHeader32{uint32(len(f.Files)), uint32(f.PageSize)}, order); err != nil {
			return err
		}
		for _, e := range f.Files {
			if err := struc.PackWithOrder(&buf, &coreFileEntry32{uint32(e.Start), uint32(e.End), uint32(e.FileOffset)}, order); err != nil {
				return err
			}
		}
	}
	for _, e := range f.Files {
		buf.WriteString(e.Path)
		buf.WriteByte(0)
	}
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	f.note.Description = buf.Bytes()
	return nil
}

// SetFiles replaces the mappings and rebuilds the description. The mappings
// are left unchanged when a value does not fit in a word.
func (f *CoreFile) SetFiles(files []CoreFileEntry) error {
	if err := f.check(f.PageSize, files); err != nil {
		return err
	}
	f.Files = files
	return f.Build()
}

func (f *CoreFile) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "    page size: %#x", f.PageSize)
	for _, e := range f.Files {
		fmt.Fprintf(&sb, "\n    %#016x-%#016x %#08x %s", e.Start, e.End, e.FileOffset, e.Path)
	}
	return sb.String()
}
