// Package elf implements the goelf commands on top of pkg/elf.
package elf

import (
	"encoding/hex"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/blacktop/go-elf/internal/colors"
	"github.com/blacktop/go-elf/pkg/elf"
)

// SymbolCount is the reconstructed dynamic symbol count and the method that
// produced it.
type SymbolCount struct {
	Method string `json:"method" yaml:"method"`
	Count  uint64 `json:"count" yaml:"count"`
}

// Info is the summary printed by `goelf info`.
type Info struct {
	Name        string      `json:"name" yaml:"name"`
	Size        uint64      `json:"size" yaml:"size"`
	Class       string      `json:"class" yaml:"class"`
	Data        string      `json:"data" yaml:"data"`
	Type        string      `json:"type" yaml:"type"`
	Machine     string      `json:"machine" yaml:"machine"`
	Entry       uint64      `json:"entry" yaml:"entry"`
	ImageBase   uint64      `json:"image_base" yaml:"image_base"`
	PIE         bool        `json:"pie" yaml:"pie"`
	NX          bool        `json:"nx" yaml:"nx"`
	Interpreter string      `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Libraries   []string    `json:"libraries,omitempty" yaml:"libraries,omitempty"`
	BuildID     string      `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	DynSymCount SymbolCount `json:"dynsym_count" yaml:"dynsym_count"`

	Sections        int `json:"sections" yaml:"sections"`
	InvalidSections int `json:"invalid_sections,omitempty" yaml:"invalid_sections,omitempty"`
	Segments        int `json:"segments" yaml:"segments"`
	InvalidSegments int `json:"invalid_segments,omitempty" yaml:"invalid_segments,omitempty"`
	DynamicEntries  int `json:"dynamic_entries" yaml:"dynamic_entries"`
	DynamicSymbols  int `json:"dynamic_symbols" yaml:"dynamic_symbols"`
	StaticSymbols   int `json:"static_symbols" yaml:"static_symbols"`
	Relocations     int `json:"relocations" yaml:"relocations"`
	Notes           int `json:"notes" yaml:"notes"`
	Overlay         int `json:"overlay" yaml:"overlay"`

	bin *elf.Binary
}

// NewInfo summarizes a parsed binary.
func NewInfo(b *elf.Binary) *Info {
	i := &Info{
		Name:        b.Name,
		Size:        b.OriginalSize,
		Class:       b.Header.Class.String(),
		Data:        b.Header.Data.String(),
		Type:        b.Header.Type.String(),
		Machine:     b.Header.Machine.String(),
		Entry:       b.Entrypoint(),
		ImageBase:   b.ImageBase(),
		PIE:         b.IsPIE(),
		NX:          b.HasNX(),
		Interpreter: b.Interpreter(),
		Libraries:   b.Libraries(),
		DynSymCount: SymbolCount{
			Method: b.DynSymCount.Method.String(),
			Count:  b.DynSymCount.Count,
		},
		Sections:       len(b.Sections),
		Segments:       len(b.Segments),
		DynamicEntries: len(b.DynamicEntries),
		DynamicSymbols: len(b.DynamicSymbols),
		StaticSymbols:  len(b.StaticSymbols),
		Relocations:    len(b.Relocations),
		Notes:          len(b.Notes),
		Overlay:        len(b.Overlay),
		bin:            b,
	}
	if id := b.BuildID(); id != nil {
		i.BuildID = hex.EncodeToString(id)
	}
	for _, s := range b.Sections {
		if s.Invalid {
			i.InvalidSections++
		}
	}
	for _, s := range b.Segments {
		if s.Invalid {
			i.InvalidSegments++
		}
	}
	return i
}

func (i *Info) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", colors.Title(i.Name))
	fmt.Fprintf(&sb, "  Size:        %s\n", humanize.Bytes(i.Size))
	fmt.Fprintf(&sb, "  Format:      %s %s %s %s\n", i.Class, i.Data, i.Type, i.Machine)
	fmt.Fprintf(&sb, "  Entry:       %s\n", colors.Address("%#x", i.Entry))
	fmt.Fprintf(&sb, "  Image Base:  %s\n", colors.Address("%#x", i.ImageBase))
	fmt.Fprintf(&sb, "  PIE:         %t\n", i.PIE)
	fmt.Fprintf(&sb, "  NX:          %t\n", i.NX)
	if i.Interpreter != "" {
		fmt.Fprintf(&sb, "  Interpreter: %s\n", i.Interpreter)
	}
	if i.BuildID != "" {
		fmt.Fprintf(&sb, "  Build ID:    %s\n", i.BuildID)
	}
	if i.bin != nil && len(i.bin.Segments) > 0 {
		sb.WriteString("\nSegments:\n")
		w := tabwriter.NewWriter(&sb, 0, 0, 1, ' ', 0)
		for _, seg := range i.bin.Segments {
			fmt.Fprintf(w, "  %s\t%s\toff=%#x\tvaddr=%#x\tfilesz=%s\tmemsz=%s",
				colors.SegmentType(seg.Type),
				colors.Permissions(seg.Flags),
				seg.Offset,
				seg.VirtualAddress,
				humanize.Bytes(seg.FileSize),
				humanize.Bytes(seg.MemorySize))
			if seg.Invalid {
				fmt.Fprintf(w, "\t%s", colors.Invalid("invalid"))
			} else if secs := i.bin.SegmentSections(seg); len(secs) > 0 {
				names := make([]string, 0, len(secs))
				for _, s := range secs {
					names = append(names, s.Name)
				}
				fmt.Fprintf(w, "\t%s", strings.Join(names, " "))
			}
			fmt.Fprintln(w)
		}
		w.Flush()
	}
	if len(i.Libraries) > 0 {
		sb.WriteString("\nLibraries:\n")
		for _, lib := range i.Libraries {
			fmt.Fprintf(&sb, "  %s\n", colors.Library(lib))
		}
	}

	sb.WriteString("\nCounts:\n")
	w := tabwriter.NewWriter(&sb, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "  Sections:\t%d", i.Sections)
	if i.InvalidSections > 0 {
		fmt.Fprintf(w, " (%s)", colors.Warning("%d invalid", i.InvalidSections))
	}
	fmt.Fprintf(w, "\n  Segments:\t%d", i.Segments)
	if i.InvalidSegments > 0 {
		fmt.Fprintf(w, " (%s)", colors.Warning("%d invalid", i.InvalidSegments))
	}
	fmt.Fprintf(w, "\n  Dynamic Entries:\t%d\n", i.DynamicEntries)
	fmt.Fprintf(w, "  Dynamic Symbols:\t%d (%s)\n", i.DynamicSymbols, i.DynSymCount.Method)
	fmt.Fprintf(w, "  Static Symbols:\t%d\n", i.StaticSymbols)
	fmt.Fprintf(w, "  Relocations:\t%d\n", i.Relocations)
	fmt.Fprintf(w, "  Notes:\t%d\n", i.Notes)
	if i.Overlay > 0 {
		fmt.Fprintf(w, "  Overlay:\t%s\n", humanize.Bytes(uint64(i.Overlay)))
	}
	w.Flush()

	return sb.String()
}
