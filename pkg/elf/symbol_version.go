package elf

import (
	"fmt"

	"github.com/blacktop/go-elf/pkg/elf/types"
)

// SymbolVersionAux is a named version, owned by a requirement or definition.
type SymbolVersionAux struct {
	Name string
}

// SymbolVersionAuxRequirement is a version needed from a dependency (Vernaux).
type SymbolVersionAuxRequirement struct {
	SymbolVersionAux
	Hash  uint32
	Flags types.VerFlag
	Other uint16
}

// SymbolVersionRequirement lists the versions needed from one file (Verneed).
type SymbolVersionRequirement struct {
	Version     uint16
	Name        string
	Auxiliaries []*SymbolVersionAuxRequirement
}

// SymbolVersionDefinition is a version defined by this file (Verdef).
type SymbolVersionDefinition struct {
	Version     uint16
	Flags       types.VerFlag
	Ndx         uint16
	Hash        uint32
	Auxiliaries []*SymbolVersionAux
}

// SymbolVersion is an entry of the .gnu.version table. Versions other than
// local and global carry their own copy of the auxiliary they resolve to.
type SymbolVersion struct {
	Value uint16
	Aux   *SymbolVersionAux
}

// SymbolVersionLocal returns a new local (VER_NDX_LOCAL) version.
func SymbolVersionLocal() *SymbolVersion { return &SymbolVersion{Value: types.VerNdxLocal} }

// SymbolVersionGlobal returns a new global (VER_NDX_GLOBAL) version.
func SymbolVersionGlobal() *SymbolVersion { return &SymbolVersion{Value: types.VerNdxGlobal} }

// Index returns the version index without the hidden bit.
func (v *SymbolVersion) Index() uint16 { return v.Value & types.VerNdxMask }

// Hidden reports whether the hidden bit is set.
func (v *SymbolVersion) Hidden() bool { return v.Value&types.VerHidden != 0 }

// HasAux reports whether an auxiliary version is attached.
func (v *SymbolVersion) HasAux() bool { return v.Aux != nil }

func (v *SymbolVersion) IsLocal() bool  { return v.Index() == types.VerNdxLocal }
func (v *SymbolVersion) IsGlobal() bool { return v.Index() == types.VerNdxGlobal }

func (v *SymbolVersion) String() string {
	switch {
	case v.Aux != nil:
		return v.Aux.Name
	case v.IsLocal():
		return "* Local *"
	case v.IsGlobal():
		return "* Global *"
	default:
		return fmt.Sprintf("%d", v.Value)
	}
}
