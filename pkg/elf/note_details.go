package elf

import "github.com/blacktop/go-elf/pkg/elf/types"

// NoteDetails is a structured interpreter of a note description.
//
// Parse fills the structured view from Note().Description. Build encodes
// the structured view back into Note().Description. Setters provided by an
// implementation call Build before returning so both views stay in sync.
type NoteDetails interface {
	Note() *Note
	Parse() error
	Build() error
}

// newNoteDetails selects the interpreter for n by its type, or returns nil.
func newNoteDetails(n *Note) NoteDetails {
	if n.IsCore {
		switch n.Type {
		case types.NtAuxv:
			return &CoreAuxv{note: n}
		case types.NtPrStatus:
			return &CorePrStatus{note: n}
		case types.NtFile:
			return &CoreFile{note: n}
		case types.NtSigInfo:
			return &CoreSigInfo{note: n}
		}
		return nil
	}
	if n.Name == noteNameGNU && n.Type == types.NtGnuAbiTag {
		return &NoteAbi{note: n}
	}
	return nil
}
