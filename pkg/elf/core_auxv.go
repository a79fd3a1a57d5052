package elf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/blacktop/go-elf/pkg/elf/types"
	"github.com/lunixbochs/struc"
	"golang.org/x/exp/slices"
)

// CoreAuxv is the auxiliary vector saved in a NT_AUXV core note.
type CoreAuxv struct {
	note   *Note
	values map[types.AuxType]uint64
}

func (a *CoreAuxv) Note() *Note { return a.note }

// Parse decodes (type, value) word pairs until AT_NULL or the end of the
// description.
func (a *CoreAuxv) Parse() error {
	a.values = make(map[types.AuxType]uint64)

	r := bytes.NewReader(a.note.Description)
	entSize := 2 * a.note.wordSize()
	for r.Len() >= entSize {
		var typ, val uint64
		if a.note.Is64() {
			var ent types.Auxv64
			if err := struc.UnpackWithOrder(r, &ent, a.note.ByteOrder()); err != nil {
				return err
			}
			typ, val = ent.Type, ent.Val
		} else {
			var ent types.Auxv32
			if err := struc.UnpackWithOrder(r, &ent, a.note.ByteOrder()); err != nil {
				return err
			}
			typ, val = uint64(ent.Type), uint64(ent.Val)
		}
		if types.AuxType(typ) == types.AtNull {
			break
		}
		a.values[types.AuxType(typ)] = val
	}
	return nil
}

// Build encodes the vector sorted by type and terminated by AT_NULL.
func (a *CoreAuxv) Build() error {
	var buf bytes.Buffer
	for _, typ := range append(a.Types(), types.AtNull) {
		val := a.values[typ]
		if a.note.Is64() {
			if err := struc.PackWithOrder(&buf, &types.Auxv64{Type: uint64(typ), Val: val}, a.note.ByteOrder()); err != nil {
				return err
			}
		} else {
			if err := struc.PackWithOrder(&buf, &types.Auxv32{Type: uint32(typ), Val: uint32(val)}, a.note.ByteOrder()); err != nil {
				return err
			}
		}
	}
	a.note.Description = buf.Bytes()
	return nil
}

// Get returns the value of typ. The boolean is false when the vector has no
// entry for typ.
func (a *CoreAuxv) Get(typ types.AuxType) (uint64, bool) {
	v, ok := a.values[typ]
	return v, ok
}

// Has reports whether the vector has an entry for typ.
func (a *CoreAuxv) Has(typ types.AuxType) bool {
	_, ok := a.values[typ]
	return ok
}

// Set adds or replaces the entry for typ and rebuilds the description.
func (a *CoreAuxv) Set(typ types.AuxType, val uint64) error {
	if typ == types.AtNull {
		return fmt.Errorf("cannot set %s", typ)
	}
	if err := a.note.checkWord(typ.String(), val); err != nil {
		return err
	}
	if a.values == nil {
		a.values = make(map[types.AuxType]uint64)
	}
	a.values[typ] = val
	return a.Build()
}

// Values returns a copy of the vector.
func (a *CoreAuxv) Values() map[types.AuxType]uint64 {
	m := make(map[types.AuxType]uint64, len(a.values))
	for k, v := range a.values {
		m[k] = v
	}
	return m
}

// SetValues replaces the whole vector and rebuilds the description. An
// AT_NULL key is ignored. The vector is left unchanged when a value does not
// fit in a word.
func (a *CoreAuxv) SetValues(m map[types.AuxType]uint64) error {
	values := make(map[types.AuxType]uint64, len(m))
	for k, v := range m {
		if k == types.AtNull {
			continue
		}
		if err := a.note.checkWord(k.String(), v); err != nil {
			return err
		}
		values[k] = v
	}
	a.values = values
	return a.Build()
}

// Types returns the types present in the vector in ascending order.
func (a *CoreAuxv) Types() []types.AuxType {
	keys := make([]types.AuxType, 0, len(a.values))
	for k := range a.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (a *CoreAuxv) String() string {
	var sb strings.Builder
	for _, typ := range a.Types() {
		fmt.Fprintf(&sb, "    %-18s %#x\n", typ, a.values[typ])
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
