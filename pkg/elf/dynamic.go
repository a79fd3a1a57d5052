package elf

import (
	"debug/elf"
	"fmt"
)

// A DynamicEntry is a tag/value pair of the dynamic section.
type DynamicEntry struct {
	Tag   elf.DynTag
	Value uint64

	// Name is the string the value points to in the dynamic string table,
	// for DT_NEEDED, DT_SONAME, DT_RPATH and DT_RUNPATH.
	Name string
	// Array holds the function pointers of DT_INIT_ARRAY, DT_FINI_ARRAY and
	// DT_PREINIT_ARRAY.
	Array []uint64
}

// IsString reports whether the entry's value is a dynamic string table offset.
func (d *DynamicEntry) IsString() bool { return isStringTag(d.Tag) }

// IsArray reports whether the entry's value is the address of a pointer array.
func (d *DynamicEntry) IsArray() bool {
	_, ok := arrayTags[d.Tag]
	return ok
}

func (d *DynamicEntry) String() string {
	switch {
	case d.IsString():
		return fmt.Sprintf("%-18s %s", d.Tag, d.Name)
	case d.IsArray():
		return fmt.Sprintf("%-18s %#x %#x", d.Tag, d.Value, d.Array)
	default:
		return fmt.Sprintf("%-18s %#x", d.Tag, d.Value)
	}
}

func isStringTag(tag elf.DynTag) bool {
	switch tag {
	case elf.DT_NEEDED, elf.DT_SONAME, elf.DT_RPATH, elf.DT_RUNPATH:
		return true
	}
	return false
}

// arrayTags maps each array tag to the tag holding its size in bytes.
var arrayTags = map[elf.DynTag]elf.DynTag{
	elf.DT_INIT_ARRAY:    elf.DT_INIT_ARRAYSZ,
	elf.DT_FINI_ARRAY:    elf.DT_FINI_ARRAYSZ,
	elf.DT_PREINIT_ARRAY: elf.DT_PREINIT_ARRAYSZ,
}
