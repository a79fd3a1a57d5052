package elf

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/blacktop/go-elf/pkg/elf/types"
)

const (
	noteNameGNU   = "GNU"
	noteNameCore  = "CORE"
	noteNameLinux = "LINUX"
)

// A Note is an entry of a PT_NOTE segment or SHT_NOTE section.
type Note struct {
	Name        string
	Type        types.NoteType
	Description []byte
	// IsCore is set for notes of an ET_CORE file. It selects how Type is
	// interpreted.
	IsCore bool

	is64    bool
	order   binary.ByteOrder
	details NoteDetails
}

// NewNote creates a note for a binary of the given class and byte order and
// interprets its description when the type is known.
func NewNote(name string, typ types.NoteType, desc []byte, isCore, is64 bool, order binary.ByteOrder) (*Note, error) {
	n := &Note{
		Name:        name,
		Type:        typ,
		Description: desc,
		IsCore:      isCore,
		is64:        is64,
		order:       order,
	}
	if err := n.parseDetails(); err != nil {
		return n, err
	}
	return n, nil
}

func (n *Note) parseDetails() error {
	n.details = nil
	d := newNoteDetails(n)
	if d == nil {
		return nil
	}
	if err := d.Parse(); err != nil {
		return fmt.Errorf("failed to parse %s note details: %w", n.TypeString(), err)
	}
	n.details = d
	return nil
}

// Details returns the structured view of the description, or nil when the
// note type has no interpreter.
func (n *Note) Details() NoteDetails { return n.details }

// SetDescription replaces the raw description and re-parses its details.
func (n *Note) SetDescription(desc []byte) error {
	n.Description = desc
	return n.parseDetails()
}

// ByteOrder returns the byte order of the binary the note belongs to.
func (n *Note) ByteOrder() binary.ByteOrder {
	if n.order == nil {
		return binary.LittleEndian
	}
	return n.order
}

// Is64 reports whether the note belongs to an ELFCLASS64 binary.
func (n *Note) Is64() bool { return n.is64 }

func (n *Note) wordSize() int {
	if n.is64 {
		return 8
	}
	return 4
}

// checkWord fails when v does not fit in a word of the note's class.
func (n *Note) checkWord(what string, v uint64) error {
	if n.is64 || v <= math.MaxUint32 {
		return nil
	}
	return fmt.Errorf("%s %#x does not fit in a 32-bit word", what, v)
}

// Size returns the number of bytes the note occupies once encoded.
func (n *Note) Size() uint64 {
	namesz := uint64(0)
	if len(n.Name) > 0 {
		namesz = uint64(len(n.Name)) + 1
	}
	return types.NhdrSize + align4(namesz) + align4(uint64(len(n.Description)))
}

// TypeString names the note type according to its name and the file type.
func (n *Note) TypeString() string {
	if n.IsCore {
		return n.Type.CoreString()
	}
	if n.Name == noteNameGNU {
		return n.Type.String()
	}
	return fmt.Sprintf("%#x", uint32(n.Type))
}

// BuildID returns the description of a NT_GNU_BUILD_ID note.
func (n *Note) BuildID() ([]byte, bool) {
	if n.IsCore || n.Name != noteNameGNU || n.Type != types.NtGnuBuildID {
		return nil, false
	}
	return n.Description, true
}

func (n *Note) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-8s %-24s size=%#x", n.Name, n.TypeString(), len(n.Description))
	if id, ok := n.BuildID(); ok {
		fmt.Fprintf(&sb, " build-id=%x", id)
	}
	if s, ok := n.details.(fmt.Stringer); ok {
		sb.WriteString("\n")
		sb.WriteString(s.String())
	}
	return sb.String()
}

func align4(v uint64) uint64 { return (v + 3) &^ 3 }
