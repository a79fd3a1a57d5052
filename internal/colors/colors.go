// Package colors provides the color palette of the goelf output.
//
// Colors are disabled when stdout is not a terminal. This is detected by
// fatih/color and can be overridden with Init.
package colors

import (
	"debug/elf"

	"github.com/fatih/color"
)

// Init overrides the auto-detected color setting. A nil forceColor keeps it.
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

func Bold() *color.Color       { return color.New(color.Bold) }
func Faint() *color.Color      { return color.New(color.Faint) }
func BoldRed() *color.Color    { return color.New(color.Bold, color.FgRed) }
func BoldYellow() *color.Color { return color.New(color.Bold, color.FgYellow) }
func FaintCyan() *color.Color  { return color.New(color.Faint, color.FgCyan) }
func HiBlue() *color.Color     { return color.New(color.FgHiBlue) }
func HiGreen() *color.Color    { return color.New(color.FgHiGreen) }
func HiMagenta() *color.Color  { return color.New(color.FgHiMagenta) }

var (
	Title   = color.New(color.Bold, color.Underline).SprintFunc()
	Address = Faint().SprintfFunc()
	Name    = Bold().SprintFunc()
	Library = HiMagenta().SprintFunc()
	Warning = BoldYellow().SprintfFunc()
	Invalid = BoldRed().SprintFunc()
)

// SegmentType colors a program header type by what the loader does with it.
func SegmentType(t elf.ProgType) string {
	switch t {
	case elf.PT_LOAD:
		return HiGreen().Sprint(t)
	case elf.PT_DYNAMIC, elf.PT_INTERP:
		return HiBlue().Sprint(t)
	case elf.PT_NOTE:
		return FaintCyan().Sprint(t)
	default:
		return t.String()
	}
}

// Permissions renders segment flags as rwx and colors writable+executable
// mappings.
func Permissions(f elf.ProgFlag) string {
	perm := []byte("---")
	if f&elf.PF_R != 0 {
		perm[0] = 'r'
	}
	if f&elf.PF_W != 0 {
		perm[1] = 'w'
	}
	if f&elf.PF_X != 0 {
		perm[2] = 'x'
	}
	if f&elf.PF_W != 0 && f&elf.PF_X != 0 {
		return BoldRed().Sprint(string(perm))
	}
	return string(perm)
}
