package elf

import "debug/elf"

var relocSizeX86_64 = map[elf.R_X86_64]int{
	elf.R_X86_64_NONE:            0,
	elf.R_X86_64_64:              64,
	elf.R_X86_64_PC32:            32,
	elf.R_X86_64_GOT32:           32,
	elf.R_X86_64_PLT32:           32,
	elf.R_X86_64_COPY:            32,
	elf.R_X86_64_GLOB_DAT:        64,
	elf.R_X86_64_JMP_SLOT:        64,
	elf.R_X86_64_RELATIVE:        64,
	elf.R_X86_64_GOTPCREL:        32,
	elf.R_X86_64_32:              32,
	elf.R_X86_64_32S:             32,
	elf.R_X86_64_16:              16,
	elf.R_X86_64_PC16:            16,
	elf.R_X86_64_8:               8,
	elf.R_X86_64_PC8:             8,
	elf.R_X86_64_DTPMOD64:        64,
	elf.R_X86_64_DTPOFF64:        64,
	elf.R_X86_64_TPOFF64:         64,
	elf.R_X86_64_TLSGD:           32,
	elf.R_X86_64_TLSLD:           32,
	elf.R_X86_64_DTPOFF32:        32,
	elf.R_X86_64_GOTTPOFF:        32,
	elf.R_X86_64_TPOFF32:         32,
	elf.R_X86_64_PC64:            64,
	elf.R_X86_64_GOTOFF64:        64,
	elf.R_X86_64_GOTPC32:         32,
	elf.R_X86_64_SIZE32:          32,
	elf.R_X86_64_SIZE64:          64,
	elf.R_X86_64_IRELATIVE:       64,
	elf.R_X86_64_GOTPCRELX:       32,
	elf.R_X86_64_REX_GOTPCRELX:   32,
	elf.R_X86_64_TLSDESC:         64,
	elf.R_X86_64_GOTPC32_TLSDESC: 32,
}

var relocSize386 = map[elf.R_386]int{
	elf.R_386_NONE:      0,
	elf.R_386_32:        32,
	elf.R_386_PC32:      32,
	elf.R_386_GOT32:     32,
	elf.R_386_PLT32:     32,
	elf.R_386_COPY:      32,
	elf.R_386_GLOB_DAT:  32,
	elf.R_386_JMP_SLOT:  32,
	elf.R_386_RELATIVE:  32,
	elf.R_386_GOTOFF:    32,
	elf.R_386_GOTPC:     32,
	elf.R_386_TLS_TPOFF: 32,
	elf.R_386_16:        16,
	elf.R_386_PC16:      16,
	elf.R_386_8:         8,
	elf.R_386_PC8:       8,
	elf.R_386_IRELATIVE: 32,
	elf.R_386_GOT32X:    32,
}

var relocSizeAArch64 = map[elf.R_AARCH64]int{
	elf.R_AARCH64_NONE:         0,
	elf.R_AARCH64_ABS64:        64,
	elf.R_AARCH64_ABS32:        32,
	elf.R_AARCH64_ABS16:        16,
	elf.R_AARCH64_PREL64:       64,
	elf.R_AARCH64_PREL32:       32,
	elf.R_AARCH64_PREL16:       16,
	elf.R_AARCH64_CALL26:       26,
	elf.R_AARCH64_JUMP26:       26,
	elf.R_AARCH64_COPY:         64,
	elf.R_AARCH64_GLOB_DAT:     64,
	elf.R_AARCH64_JUMP_SLOT:    64,
	elf.R_AARCH64_RELATIVE:     64,
	elf.R_AARCH64_TLS_TPREL64:  64,
	elf.R_AARCH64_TLS_DTPREL64: 64,
	elf.R_AARCH64_TLSDESC:      64,
	elf.R_AARCH64_IRELATIVE:    64,
}

var relocSizeARM = map[elf.R_ARM]int{
	elf.R_ARM_NONE:      0,
	elf.R_ARM_ABS32:     32,
	elf.R_ARM_REL32:     32,
	elf.R_ARM_ABS16:     16,
	elf.R_ARM_ABS8:      8,
	elf.R_ARM_CALL:      24,
	elf.R_ARM_JUMP24:    24,
	elf.R_ARM_COPY:      32,
	elf.R_ARM_GLOB_DAT:  32,
	elf.R_ARM_JUMP_SLOT: 32,
	elf.R_ARM_RELATIVE:  32,
	elf.R_ARM_IRELATIVE: 32,
}

// relocationSize returns the width in bits patched by a relocation of typ on
// machine, or -1 if the type is unknown.
func relocationSize(machine elf.Machine, typ uint32) int {
	var (
		size int
		ok   bool
	)
	switch machine {
	case elf.EM_X86_64:
		size, ok = relocSizeX86_64[elf.R_X86_64(typ)]
	case elf.EM_386:
		size, ok = relocSize386[elf.R_386(typ)]
	case elf.EM_AARCH64:
		size, ok = relocSizeAArch64[elf.R_AARCH64(typ)]
	case elf.EM_ARM:
		size, ok = relocSizeARM[elf.R_ARM(typ)]
	}
	if !ok {
		return -1
	}
	return size
}
