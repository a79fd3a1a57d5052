package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/blacktop/go-elf/pkg/elf/types"
)

// builder lays out records at fixed offsets of a growing buffer.
type builder struct {
	order binary.ByteOrder
	buf   []byte
}

func newBuilder(order binary.ByteOrder) *builder {
	return &builder{order: order}
}

func (b *builder) put(off uint64, v any) *builder {
	var w bytes.Buffer
	if err := binary.Write(&w, b.order, v); err != nil {
		panic(err)
	}
	if end := int(off) + w.Len(); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[off:], w.Bytes())
	return b
}

func ident(class elf.Class, data elf.Data) [elf.EI_NIDENT]byte {
	var id [elf.EI_NIDENT]byte
	copy(id[:], elf.ELFMAG)
	id[elf.EI_CLASS] = byte(class)
	id[elf.EI_DATA] = byte(data)
	id[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	return id
}

// encodeNote encodes one note entry with aligned name and description.
func encodeNote(order binary.ByteOrder, name string, typ types.NoteType, desc []byte) []byte {
	var w bytes.Buffer
	namesz := uint32(len(name) + 1)
	binary.Write(&w, order, types.Nhdr{Namesz: namesz, Descsz: uint32(len(desc)), Type: uint32(typ)})
	w.WriteString(name)
	w.Write(make([]byte, align4(uint64(namesz))-uint64(len(name))))
	w.Write(desc)
	w.Write(make([]byte, align4(uint64(len(desc)))-uint64(len(desc))))
	return w.Bytes()
}

// Layout of the dynamically linked fixture. Every structure is mapped by a
// single PT_LOAD at fixBase.
const (
	fixBase       = 0x400000
	fixPhdrOff    = 0x40
	fixInterpOff  = 0x1c0
	fixDynOff     = 0x200
	fixDynstrOff  = 0x400
	fixDynsymOff  = 0x500
	fixSysvOff    = 0x680
	fixVersymOff  = 0x700
	fixVerneedOff = 0x740
	fixRelaOff    = 0x780
	fixJmprelOff  = 0x800
	fixInitOff    = 0x860
	fixGnuOff     = 0x900
	fixNoteOff    = 0xa00
)

// dynFixture describes a small ELF64 little-endian shared object with
// program headers only.
type dynFixture struct {
	etype elf.Type
	// syms are the dynamic symbol names. Index 0 is the null symbol.
	syms []string
	// imports is the number of trailing symbols left undefined.
	imports int
	needed  string

	gnuHash    bool
	gnuBuckets []uint32
	gnuChains  []uint32
	sysvHash   bool

	versym    []uint16
	rela      []elf.Rela64
	jmprel    []elf.Rela64
	initArray []uint64
	interp    string
	notes     []byte
	overlay   []byte

	// sections adds a section header table placed after the loaded bytes:
	// .dynsym and .dynstr inside PT_LOAD, a .bss extending its memory size,
	// and .comment and .shstrtab outside of it. It is not combined with
	// overlay.
	sections bool
}

// Section indexes of the dynamic fixture's section table.
const (
	fixSecDynsym = iota + 1
	fixSecDynstr
	fixSecBss
	fixSecComment
	fixSecShstrtab
	fixNumSections
)

const fixBssSize = 0x100

func (f dynFixture) build() []byte {
	b := newBuilder(binary.LittleEndian)

	strtab := []byte{0}
	stroff := map[string]uint32{}
	addStr := func(s string) uint32 {
		if s == "" {
			return 0
		}
		if o, ok := stroff[s]; ok {
			return o
		}
		o := uint32(len(strtab))
		strtab = append(append(strtab, s...), 0)
		stroff[s] = o
		return o
	}
	var dyn []elf.Dyn64
	addDyn := func(tag elf.DynTag, val uint64) {
		dyn = append(dyn, elf.Dyn64{Tag: int64(tag), Val: val})
	}

	if f.needed != "" {
		addDyn(elf.DT_NEEDED, uint64(addStr(f.needed)))
	}

	for i, name := range f.syms {
		sym := elf.Sym64{Name: addStr(name)}
		if i > 0 {
			sym.Info = elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)
			if i < len(f.syms)-f.imports {
				sym.Shndx = 10
				sym.Value = fixBase + 0x1000 + uint64(i)*0x10
				sym.Size = 0x10
			}
		}
		b.put(fixDynsymOff+uint64(i)*elf.Sym64Size, &sym)
	}

	if f.gnuHash {
		buckets, chains := f.gnuBuckets, f.gnuChains
		var bloom uint64
		if buckets == nil {
			buckets = []uint32{0}
			if len(f.syms) > 1 {
				buckets[0] = 1
			}
			for i, name := range f.syms[1:] {
				h := GnuHashName(name)
				bloom |= uint64(1)<<(h%64) | uint64(1)<<((h>>6)%64)
				h &^= 1
				if i == len(f.syms)-2 {
					h |= 1
				}
				chains = append(chains, h)
			}
		}
		b.put(fixGnuOff, &types.GnuHashHeader{NBuckets: uint32(len(buckets)), SymOffset: 1, BloomSize: 1, Shift2: 6})
		b.put(fixGnuOff+16, bloom)
		b.put(fixGnuOff+24, buckets)
		b.put(fixGnuOff+24+4*uint64(len(buckets)), chains)
		addDyn(elf.DT_GNU_HASH, fixBase+fixGnuOff)
	}

	if f.sysvHash {
		n := uint32(len(f.syms))
		chains := make([]uint32, n)
		for i := uint32(2); i < n; i++ {
			chains[i] = i - 1
		}
		b.put(fixSysvOff, []uint32{1, n, n - 1})
		b.put(fixSysvOff+12, chains)
		addDyn(elf.DT_HASH, fixBase+fixSysvOff)
	}

	if f.versym != nil {
		b.put(fixVersymOff, f.versym)
		b.put(fixVerneedOff, &types.Verneed{Version: 1, Cnt: 1, File: addStr("libc.so.6"), Aux: types.VerneedSize})
		b.put(fixVerneedOff+types.VerneedSize, &types.Vernaux{
			Hash:  SysvHashName("GLIBC_2.2.5"),
			Other: 2,
			Name:  addStr("GLIBC_2.2.5"),
		})
		addDyn(elf.DT_VERSYM, fixBase+fixVersymOff)
		addDyn(elf.DT_VERNEED, fixBase+fixVerneedOff)
		addDyn(elf.DT_VERNEEDNUM, 1)
	}

	if len(f.rela) > 0 {
		b.put(fixRelaOff, f.rela)
		addDyn(elf.DT_RELA, fixBase+fixRelaOff)
		addDyn(elf.DT_RELASZ, uint64(len(f.rela))*24)
		addDyn(elf.DT_RELAENT, 24)
	}
	if len(f.jmprel) > 0 {
		b.put(fixJmprelOff, f.jmprel)
		addDyn(elf.DT_JMPREL, fixBase+fixJmprelOff)
		addDyn(elf.DT_PLTRELSZ, uint64(len(f.jmprel))*24)
		addDyn(elf.DT_PLTREL, uint64(elf.DT_RELA))
	}
	if len(f.initArray) > 0 {
		b.put(fixInitOff, f.initArray)
		addDyn(elf.DT_INIT_ARRAY, fixBase+fixInitOff)
		addDyn(elf.DT_INIT_ARRAYSZ, uint64(len(f.initArray))*8)
	}

	addDyn(elf.DT_STRTAB, fixBase+fixDynstrOff)
	addDyn(elf.DT_STRSZ, uint64(len(strtab)))
	addDyn(elf.DT_SYMTAB, fixBase+fixDynsymOff)
	addDyn(elf.DT_SYMENT, elf.Sym64Size)
	addDyn(elf.DT_NULL, 0)
	b.put(fixDynstrOff, strtab)
	b.put(fixDynOff, dyn)

	if f.interp != "" {
		b.put(fixInterpOff, []byte(f.interp+"\x00"))
	}
	b.put(fixNoteOff, f.notes)
	end := uint64(len(b.buf))

	memsz := end
	var shoff uint64
	var shentsize, shnum, shstrndx uint16
	if f.sections {
		memsz += fixBssSize
		shentsize, shnum, shstrndx = 64, fixNumSections, fixSecShstrtab
		shstr := []byte("\x00.dynsym\x00.dynstr\x00.bss\x00.comment\x00.shstrtab\x00")
		name := func(s string) uint32 { return uint32(bytes.Index(shstr, []byte("\x00"+s+"\x00")) + 1) }
		comment := []byte("GCC\x00")
		b.put(end, comment)
		shstrOff := end + uint64(len(comment))
		b.put(shstrOff, shstr)
		shoff = (shstrOff + uint64(len(shstr)) + 7) &^ 7
		b.put(shoff, []elf.Section64{
			{},
			{Name: name(".dynsym"), Type: uint32(elf.SHT_DYNSYM), Flags: uint64(elf.SHF_ALLOC),
				Addr: fixBase + fixDynsymOff, Off: fixDynsymOff, Size: uint64(len(f.syms)) * elf.Sym64Size,
				Link: fixSecDynstr, Info: 1, Addralign: 8, Entsize: elf.Sym64Size},
			{Name: name(".dynstr"), Type: uint32(elf.SHT_STRTAB), Flags: uint64(elf.SHF_ALLOC),
				Addr: fixBase + fixDynstrOff, Off: fixDynstrOff, Size: uint64(len(strtab)), Addralign: 1},
			{Name: name(".bss"), Type: uint32(elf.SHT_NOBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_WRITE),
				Addr: fixBase + end, Off: end, Size: fixBssSize, Addralign: 1},
			{Name: name(".comment"), Type: uint32(elf.SHT_PROGBITS), Off: end, Size: uint64(len(comment)), Addralign: 1},
			{Name: name(".shstrtab"), Type: uint32(elf.SHT_STRTAB), Off: shstrOff, Size: uint64(len(shstr)), Addralign: 1},
		})
	}

	var phdrs []elf.Prog64
	if f.interp != "" {
		sz := uint64(len(f.interp) + 1)
		phdrs = append(phdrs, elf.Prog64{Type: uint32(elf.PT_INTERP), Flags: uint32(elf.PF_R),
			Off: fixInterpOff, Vaddr: fixBase + fixInterpOff, Paddr: fixBase + fixInterpOff, Filesz: sz, Memsz: sz, Align: 1})
	}
	phdrs = append(phdrs, elf.Prog64{Type: uint32(elf.PT_LOAD), Flags: uint32(elf.PF_R | elf.PF_X),
		Vaddr: fixBase, Paddr: fixBase, Filesz: end, Memsz: memsz, Align: 0x1000})
	dynsz := uint64(len(dyn)) * 16
	phdrs = append(phdrs, elf.Prog64{Type: uint32(elf.PT_DYNAMIC), Flags: uint32(elf.PF_R | elf.PF_W),
		Off: fixDynOff, Vaddr: fixBase + fixDynOff, Paddr: fixBase + fixDynOff, Filesz: dynsz, Memsz: dynsz, Align: 8})
	if len(f.notes) > 0 {
		sz := uint64(len(f.notes))
		phdrs = append(phdrs, elf.Prog64{Type: uint32(elf.PT_NOTE), Flags: uint32(elf.PF_R),
			Off: fixNoteOff, Vaddr: fixBase + fixNoteOff, Paddr: fixBase + fixNoteOff, Filesz: sz, Memsz: sz, Align: 4})
	}
	phdrs = append(phdrs, elf.Prog64{Type: uint32(elf.PT_GNU_STACK), Flags: uint32(elf.PF_R | elf.PF_W), Align: 16})
	b.put(fixPhdrOff, phdrs)

	etype := f.etype
	if etype == elf.ET_NONE {
		etype = elf.ET_DYN
	}
	b.put(0, &elf.Header64{
		Ident:     ident(elf.ELFCLASS64, elf.ELFDATA2LSB),
		Type:      uint16(etype),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     fixBase + 0x1000,
		Phoff:     fixPhdrOff,
		Shoff:     shoff,
		Ehsize:    64,
		Phentsize: 56,
		Phnum:     uint16(len(phdrs)),
		Shentsize: shentsize,
		Shnum:     shnum,
		Shstrndx:  shstrndx,
	})

	if len(f.overlay) > 0 {
		b.put(end, f.overlay)
	}
	return b.buf
}

// Layout of the relocatable fixture, which only has sections.
const (
	relTextOff     = 0x40
	relSymtabOff   = 0x80
	relStrtabOff   = 0xd0
	relRelaOff     = 0xe0
	relShstrtabOff = 0x100
	relShOff       = 0x200
	relNumSections = 8
	relFileSize    = relShOff + relNumSections*64
	relBadSection  = 5
	relBssSection  = 7
)

// buildRelocatable returns an ELF64 relocatable object with a symbol table,
// one RELA section, a section lying past the end of the file and a NOBITS
// section.
func buildRelocatable() []byte {
	b := newBuilder(binary.LittleEndian)

	b.put(relTextOff, []byte{0x55, 0x48, 0x89, 0xe5, 0xe8, 0, 0, 0, 0, 0x5d, 0xc3, 0x90, 0x90, 0x90, 0x90, 0x90})
	b.put(relSymtabOff, []elf.Sym64{
		{},
		{Name: 1, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: 1, Size: 11},
		{Name: 6, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_NOTYPE)},
	})
	b.put(relStrtabOff, []byte("\x00main\x00puts\x00"))
	b.put(relRelaOff, &elf.Rela64{Off: 5, Info: elf.R_INFO(2, uint32(elf.R_X86_64_PLT32)), Addend: -4})

	shstr := []byte("\x00.text\x00.symtab\x00.strtab\x00.rela.text\x00.bad\x00.shstrtab\x00.bss\x00")
	name := func(s string) uint32 { return uint32(bytes.Index(shstr, []byte("\x00"+s+"\x00")) + 1) }
	b.put(relShstrtabOff, shstr)

	b.put(relShOff, []elf.Section64{
		{},
		{Name: name(".text"), Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Off: relTextOff, Size: 16, Addralign: 16},
		{Name: name(".symtab"), Type: uint32(elf.SHT_SYMTAB), Off: relSymtabOff, Size: 3 * elf.Sym64Size,
			Link: 3, Info: 2, Addralign: 8, Entsize: elf.Sym64Size},
		{Name: name(".strtab"), Type: uint32(elf.SHT_STRTAB), Off: relStrtabOff, Size: 11, Addralign: 1},
		{Name: name(".rela.text"), Type: uint32(elf.SHT_RELA), Flags: uint64(elf.SHF_INFO_LINK),
			Off: relRelaOff, Size: 24, Link: 2, Info: 1, Addralign: 8, Entsize: 24},
		{Name: name(".bad"), Type: uint32(elf.SHT_PROGBITS), Off: relFileSize + 1000, Size: 16, Addralign: 1},
		{Name: name(".shstrtab"), Type: uint32(elf.SHT_STRTAB), Off: relShstrtabOff, Size: uint64(len(shstr)), Addralign: 1},
		{Name: name(".bss"), Type: uint32(elf.SHT_NOBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_WRITE),
			Off: relFileSize, Size: 0x1000, Addralign: 32},
	})

	b.put(0, &elf.Header64{
		Ident:     ident(elf.ELFCLASS64, elf.ELFDATA2LSB),
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     relShOff,
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     relNumSections,
		Shstrndx:  6,
	})
	return b.buf
}

// buildCore returns an ELF core file of the given class whose single
// PT_NOTE segment holds notes.
func buildCore(class elf.Class, order binary.ByteOrder, notes []byte) []byte {
	b := newBuilder(order)
	data := elf.ELFDATA2LSB
	if order == binary.BigEndian {
		data = elf.ELFDATA2MSB
	}
	if class == elf.ELFCLASS64 {
		const noteOff = 64 + 56
		b.put(0, &elf.Header64{
			Ident: ident(class, data), Type: uint16(elf.ET_CORE), Machine: uint16(elf.EM_X86_64),
			Version: uint32(elf.EV_CURRENT), Phoff: 64, Ehsize: 64, Phentsize: 56, Phnum: 1,
		})
		b.put(64, &elf.Prog64{Type: uint32(elf.PT_NOTE), Off: noteOff, Filesz: uint64(len(notes))})
		b.put(noteOff, notes)
		return b.buf
	}
	const noteOff = 52 + 32
	b.put(0, &elf.Header32{
		Ident: ident(class, data), Type: uint16(elf.ET_CORE), Machine: uint16(elf.EM_386),
		Version: uint32(elf.EV_CURRENT), Phoff: 52, Ehsize: 52, Phentsize: 32, Phnum: 1,
	})
	b.put(52, &elf.Prog32{Type: uint32(elf.PT_NOTE), Off: noteOff, Filesz: uint32(len(notes))})
	b.put(noteOff, notes)
	return b.buf
}

// buildDyn32 returns an i386 shared object laid out like dynFixture, with
// DT_HASH, DT_REL and a DT_JMPREL table but no DT_PLTREL entry.
func buildDyn32() []byte {
	b := newBuilder(binary.LittleEndian)

	strtab := []byte("\x00libc.so.6\x00foo\x00puts\x00bar\x00")
	str := func(s string) uint32 { return uint32(bytes.Index(strtab, []byte("\x00"+s+"\x00")) + 1) }
	b.put(fixDynstrOff, strtab)

	b.put(fixDynsymOff, []elf.Sym32{
		{},
		{Name: str("foo"), Value: fixBase + 0x1010, Size: 0x10, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Shndx: 10},
		{Name: str("puts"), Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)},
		{Name: str("bar"), Value: fixBase + 0x1030, Size: 4, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT), Shndx: 11},
	})
	b.put(fixSysvOff, []uint32{1, 4, 3, 0, 0, 1, 2})
	b.put(fixRelaOff, []elf.Rel32{
		{Off: fixBase + 0x3000, Info: elf.R_INFO32(1, uint32(elf.R_386_GLOB_DAT))},
		{Off: fixBase + 0x3004, Info: elf.R_INFO32(0, uint32(elf.R_386_RELATIVE))},
	})
	b.put(fixJmprelOff, []elf.Rel32{
		{Off: fixBase + 0x3010, Info: elf.R_INFO32(2, uint32(elf.R_386_JMP_SLOT))},
	})

	dyn := []elf.Dyn32{
		{Tag: int32(elf.DT_NEEDED), Val: str("libc.so.6")},
		{Tag: int32(elf.DT_HASH), Val: fixBase + fixSysvOff},
		{Tag: int32(elf.DT_STRTAB), Val: fixBase + fixDynstrOff},
		{Tag: int32(elf.DT_STRSZ), Val: uint32(len(strtab))},
		{Tag: int32(elf.DT_SYMTAB), Val: fixBase + fixDynsymOff},
		{Tag: int32(elf.DT_SYMENT), Val: elf.Sym32Size},
		{Tag: int32(elf.DT_REL), Val: fixBase + fixRelaOff},
		{Tag: int32(elf.DT_RELSZ), Val: 16},
		{Tag: int32(elf.DT_RELENT), Val: 8},
		{Tag: int32(elf.DT_JMPREL), Val: fixBase + fixJmprelOff},
		{Tag: int32(elf.DT_PLTRELSZ), Val: 8},
		{Tag: int32(elf.DT_NULL)},
	}
	b.put(fixDynOff, dyn)
	end := uint32(len(b.buf))

	dynsz := uint32(len(dyn)) * 8
	b.put(fixPhdrOff, []elf.Prog32{
		{Type: uint32(elf.PT_LOAD), Flags: uint32(elf.PF_R | elf.PF_X),
			Vaddr: fixBase, Paddr: fixBase, Filesz: end, Memsz: end, Align: 0x1000},
		{Type: uint32(elf.PT_DYNAMIC), Flags: uint32(elf.PF_R | elf.PF_W),
			Off: fixDynOff, Vaddr: fixBase + fixDynOff, Paddr: fixBase + fixDynOff, Filesz: dynsz, Memsz: dynsz, Align: 4},
	})
	b.put(0, &elf.Header32{
		Ident:     ident(elf.ELFCLASS32, elf.ELFDATA2LSB),
		Type:      uint16(elf.ET_DYN),
		Machine:   uint16(elf.EM_386),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     fixBase + 0x1000,
		Phoff:     fixPhdrOff,
		Ehsize:    52,
		Phentsize: 32,
		Phnum:     2,
	})
	return b.buf
}
