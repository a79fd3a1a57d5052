package elf

import (
	"bytes"
	"debug/elf"

	"github.com/apex/log"
	"github.com/blacktop/go-elf/internal/stream"
	"github.com/blacktop/go-elf/pkg/elf/types"
)

// parseNotes reads the notes of the PT_NOTE segments, or of the SHT_NOTE
// sections when the binary has no segment.
func (p *parser) parseNotes() {
	if len(p.b.Segments) > 0 {
		for _, seg := range p.b.Segments {
			if seg.Type == elf.PT_NOTE && !seg.Invalid {
				p.readNotes(seg.Content())
			}
		}
		return
	}
	for _, sec := range p.b.Sections {
		if sec.Type == elf.SHT_NOTE && !sec.Invalid {
			p.readNotes(sec.Content())
		}
	}
}

func (p *parser) readNotes(dat []byte) {
	s := stream.New(dat, p.d.s.ByteOrder())
	isCore := p.b.IsCore()

	off := uint64(0)
	for len(p.b.Notes) < NbMaxNotes && off+types.NhdrSize <= uint64(len(dat)) {
		var nh types.Nhdr
		if err := s.Peek(soff(off), &nh); err != nil {
			break
		}
		off += types.NhdrSize

		name, err := s.Read(soff(off), int64(nh.Namesz))
		if err != nil {
			log.WithField("offset", off).Warnf("note name truncated: %v", err)
			return
		}
		off += align4(uint64(nh.Namesz))

		if err := checkLimit("note description", uint64(nh.Descsz), MaxNoteDescription); err != nil {
			p.warn("notes", err)
			return
		}
		desc, err := s.Read(soff(off), int64(nh.Descsz))
		if err != nil {
			log.WithField("offset", off).Warnf("note description truncated: %v", err)
			return
		}
		off += align4(uint64(nh.Descsz))

		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		note, err := NewNote(string(name), types.NoteType(nh.Type), bytes.Clone(desc), isCore, p.b.Is64(), p.d.s.ByteOrder())
		if err != nil {
			log.WithField("note", note.TypeString()).Warnf("%v", err)
		}
		p.b.Notes = append(p.b.Notes, note)
	}
}
