package elf

import (
	"debug/elf"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountFromGnuHash(t *testing.T) {
	for _, k := range []uint32{1, 2, 5, 17} {
		t.Run(fmt.Sprintf("bucket %d", k), func(t *testing.T) {
			// symbol k starts the highest bucket and its hash ends the chain
			chains := make([]uint32, k)
			chains[k-1] = 0x1235
			dat := dynFixture{
				syms:       []string{""},
				gnuHash:    true,
				gnuBuckets: []uint32{0, k},
				gnuChains:  chains,
			}.build()

			bin, err := Parse(dat, Config{CountMethod: CountGnuHash})
			require.NoError(t, err)
			assert.Equal(t, DynSymCount{Method: CountGnuHash, Count: uint64(k) + 1}, bin.DynSymCount)

			n, err := bin.CountDynamicSymbols(CountGnuHash)
			require.NoError(t, err)
			assert.Equal(t, uint64(k)+1, n)

			bin, err = Parse(dat)
			require.NoError(t, err)
			assert.Equal(t, DynSymCount{Method: CountGnuHash, Count: uint64(k) + 1}, bin.DynSymCount)
		})
	}
}

func TestCountFromHash(t *testing.T) {
	dat := dynFixture{syms: []string{"", "a", "b", "c", "d"}, sysvHash: true}.build()
	bin, err := Parse(dat, Config{CountMethod: CountHash})
	require.NoError(t, err)
	assert.Equal(t, DynSymCount{Method: CountHash, Count: 5}, bin.DynSymCount)
	assert.Len(t, bin.DynamicSymbols, 5)

	_, err = bin.CountDynamicSymbols(CountGnuHash)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCountFromRelocations(t *testing.T) {
	dat := dynFixture{
		syms: []string{"", "a", "b"},
		jmprel: []elf.Rela64{
			{Off: fixBase + 0x3000, Info: elf.R_INFO(1, uint32(elf.R_X86_64_JMP_SLOT))},
			{Off: fixBase + 0x3008, Info: elf.R_INFO(2, uint32(elf.R_X86_64_JMP_SLOT))},
		},
	}.build()

	bin, err := Parse(dat)
	require.NoError(t, err)
	assert.Equal(t, DynSymCount{Method: CountRelocations, Count: 3}, bin.DynSymCount)
	assert.Len(t, bin.DynamicSymbols, 3)

	n, err := bin.CountDynamicSymbols(CountRelocations)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestCountFromSection(t *testing.T) {
	// the relocations only reach symbol 1, .dynsym holds 4 entries
	dat := dynFixture{
		syms:     []string{"", "a", "b", "c"},
		sections: true,
		jmprel: []elf.Rela64{
			{Off: fixBase + 0x3000, Info: elf.R_INFO(1, uint32(elf.R_X86_64_JMP_SLOT))},
		},
	}.build()

	bin, err := Parse(dat)
	require.NoError(t, err)
	assert.Equal(t, DynSymCount{Method: CountSection, Count: 4}, bin.DynSymCount)
	require.Len(t, bin.DynamicSymbols, 4)
	assert.Equal(t, "c", bin.DynamicSymbols[3].Name)

	n, err := bin.CountDynamicSymbols(CountSection)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	n, err = bin.CountDynamicSymbols(CountRelocations)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	bin, err = Parse(dat, Config{CountOrder: []CountMethod{CountRelocations, CountSection}})
	require.NoError(t, err)
	assert.Equal(t, DynSymCount{Method: CountRelocations, Count: 2}, bin.DynSymCount)

	// a zero entry size falls back to the class symbol size
	sec := bin.SectionByType(elf.SHT_DYNSYM)
	require.NotNil(t, sec)
	sec.Entsize = 0
	n, err = bin.CountDynamicSymbols(CountSection)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}

func TestCountAutoOrder(t *testing.T) {
	// DT_HASH says 3, DT_GNU_HASH says 2: the order decides
	dat := dynFixture{
		syms:       []string{"", "a", "b"},
		sysvHash:   true,
		gnuHash:    true,
		gnuBuckets: []uint32{1},
		gnuChains:  []uint32{1},
	}.build()

	bin, err := Parse(dat)
	require.NoError(t, err)
	assert.Equal(t, DynSymCount{Method: CountHash, Count: 3}, bin.DynSymCount)

	bin, err = Parse(dat, Config{CountOrder: []CountMethod{CountGnuHash, CountHash}})
	require.NoError(t, err)
	assert.Equal(t, DynSymCount{Method: CountGnuHash, Count: 2}, bin.DynSymCount)
	assert.Len(t, bin.DynamicSymbols, 2)

	n, err := bin.CountDynamicSymbols(CountAuto)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestCountAmbiguous(t *testing.T) {
	dat := dynFixture{syms: []string{"", "a"}}.build()
	bin, err := Parse(dat)
	require.NoError(t, err)
	assert.Empty(t, bin.DynamicSymbols)
	assert.Equal(t, DynSymCount{Method: CountAuto}, bin.DynSymCount)

	_, err = bin.CountDynamicSymbols(CountAuto)
	assert.True(t, errors.Is(err, ErrAmbiguousCount))
	_, err = bin.CountDynamicSymbols(CountForced)
	assert.Error(t, err)
	_, err = (&Binary{}).CountDynamicSymbols(CountHash)
	assert.Error(t, err)
}

func TestParseCountMethod(t *testing.T) {
	for _, m := range []CountMethod{CountAuto, CountHash, CountGnuHash, CountSection, CountRelocations, CountForced} {
		got, err := ParseCountMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseCountMethod("GNU-HASH")
	require.NoError(t, err)
	assert.Equal(t, CountGnuHash, got)

	_, err = ParseCountMethod("guess")
	assert.Error(t, err)
	assert.Equal(t, "CountMethod(42)", CountMethod(42).String())
}
