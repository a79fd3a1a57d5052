package elf

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/go-elf/pkg/elf/types"
)

func auxvDesc64(order binary.ByteOrder, pairs ...uint64) []byte {
	desc := make([]byte, 8*len(pairs))
	for i, v := range pairs {
		order.PutUint64(desc[8*i:], v)
	}
	return desc
}

func newAuxvNote(t *testing.T, desc []byte, is64 bool, order binary.ByteOrder) *CoreAuxv {
	t.Helper()
	n, err := NewNote(noteNameCore, types.NtAuxv, desc, true, is64, order)
	require.NoError(t, err)
	auxv, ok := n.Details().(*CoreAuxv)
	require.True(t, ok, "details are %T", n.Details())
	return auxv
}

func TestCoreAuxvParse(t *testing.T) {
	desc := auxvDesc64(binary.LittleEndian,
		uint64(types.AtPhdr), 0x400040,
		uint64(types.AtPagesz), 0x1000,
		uint64(types.AtUID), 0,
		uint64(types.AtNull), 0,
		uint64(types.AtEntry), 0xdead,
	)
	auxv := newAuxvNote(t, desc, true, binary.LittleEndian)

	v, ok := auxv.Get(types.AtPagesz)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1000), v)

	// zero is a legal value
	v, ok = auxv.Get(types.AtUID)
	assert.True(t, ok)
	assert.Zero(t, v)

	// entries after AT_NULL are ignored
	_, ok = auxv.Get(types.AtEntry)
	assert.False(t, ok)
	assert.False(t, auxv.Has(types.AtEntry))
	assert.Equal(t, []types.AuxType{types.AtPhdr, types.AtPagesz, types.AtUID}, auxv.Types())
}

func TestCoreAuxvRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		is64  bool
		order binary.ByteOrder
	}{
		{"elf64 little endian", true, binary.LittleEndian},
		{"elf64 big endian", true, binary.BigEndian},
		{"elf32 little endian", false, binary.LittleEndian},
		{"elf32 big endian", false, binary.BigEndian},
	}
	m := map[types.AuxType]uint64{
		types.AtPhdr:     0x8048034,
		types.AtPhent:    0x20,
		types.AtPhnum:    9,
		types.AtPagesz:   0x1000,
		types.AtEntry:    0x8049000,
		types.AtSecure:   0,
		types.AtExecfn:   0xbffff000,
		types.AtHwcap2:   2,
		types.AtPlatform: 0xbfffeff0,
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auxv := newAuxvNote(t, nil, tt.is64, tt.order)
			assert.Empty(t, auxv.Values())

			require.NoError(t, auxv.SetValues(m))
			assert.Equal(t, m, auxv.Values())

			ws := 4
			if tt.is64 {
				ws = 8
			}
			desc := auxv.Note().Description
			assert.Len(t, desc, 2*ws*(len(m)+1))
			// the encoding ends with AT_NULL
			assert.Equal(t, make([]byte, 2*ws), desc[len(desc)-2*ws:])

			// a fresh parse of the rebuilt description gives the same vector
			again := newAuxvNote(t, desc, tt.is64, tt.order)
			assert.Equal(t, m, again.Values())

			require.NoError(t, auxv.Set(types.AtUID, 1000))
			v, ok := auxv.Get(types.AtUID)
			assert.True(t, ok)
			assert.Equal(t, uint64(1000), v)

			again = newAuxvNote(t, auxv.Note().Description, tt.is64, tt.order)
			v, ok = again.Get(types.AtUID)
			assert.True(t, ok)
			assert.Equal(t, uint64(1000), v)
		})
	}
}

func TestCoreAuxvMutation(t *testing.T) {
	auxv := newAuxvNote(t, auxvDesc64(binary.LittleEndian, uint64(types.AtPagesz), 0x4000), true, binary.LittleEndian)

	values := auxv.Values()
	values[types.AtPagesz] = 1
	v, _ := auxv.Get(types.AtPagesz)
	assert.Equal(t, uint64(0x4000), v, "Values returns a copy")

	assert.Error(t, auxv.Set(types.AtNull, 1))

	require.NoError(t, auxv.SetValues(map[types.AuxType]uint64{types.AtNull: 5, types.AtBase: 0x7f0000}))
	assert.Equal(t, []types.AuxType{types.AtBase}, auxv.Types())
	assert.Equal(t, auxvDesc64(binary.LittleEndian, uint64(types.AtBase), 0x7f0000, 0, 0), auxv.Note().Description)
}

func TestCoreAuxvFromCoreFile(t *testing.T) {
	notes := encodeNote(binary.LittleEndian, noteNameCore, types.NtAuxv,
		auxvDesc64(binary.LittleEndian, uint64(types.AtPagesz), 0x1000, uint64(types.AtNull), 0))
	bin, err := Parse(buildCore(elf.ELFCLASS64, binary.LittleEndian, notes))
	require.NoError(t, err)
	require.True(t, bin.IsCore())
	require.Len(t, bin.Notes, 1)

	auxv, ok := bin.Notes[0].Details().(*CoreAuxv)
	require.True(t, ok)
	v, ok := auxv.Get(types.AtPagesz)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1000), v)
	assert.Equal(t, "NT_AUXV", bin.Notes[0].TypeString())
}
