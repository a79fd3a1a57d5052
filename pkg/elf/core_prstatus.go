package elf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lunixbochs/struc"
)

// PrTimeval is a timeval of a prstatus note.
type PrTimeval struct {
	Sec  uint64
	Usec uint64
}

// PrSigInfo is the elf_siginfo header of a prstatus note.
type PrSigInfo struct {
	SigNo int32
	Code  int32
	Errno int32
}

type prStatus64 struct {
	Info    PrSigInfo
	CurSig  uint16
	Pad     []byte `struc:"[2]pad"`
	SigPend uint64
	SigHold uint64
	PID     int32
	PPID    int32
	PGrp    int32
	SID     int32
	UTime   [2]uint64
	STime   [2]uint64
	CUTime  [2]uint64
	CSTime  [2]uint64
}

type prStatus32 struct {
	Info    PrSigInfo
	CurSig  uint16
	Pad     []byte `struc:"[2]pad"`
	SigPend uint32
	SigHold uint32
	PID     int32
	PPID    int32
	PGrp    int32
	SID     int32
	UTime   [2]uint32
	STime   [2]uint32
	CUTime  [2]uint32
	CSTime  [2]uint32
}

const (
	prStatus64Size = 112
	prStatus32Size = 72
)

// CorePrStatus is the thread status saved in a NT_PRSTATUS core note.
type CorePrStatus struct {
	note *Note

	Info    PrSigInfo
	CurSig  uint16
	SigPend uint64
	SigHold uint64
	PID     int32
	PPID    int32
	PGrp    int32
	SID     int32
	UTime   PrTimeval
	STime   PrTimeval
	CUTime  PrTimeval
	CSTime  PrTimeval
	// Registers holds the general purpose registers in the order the
	// machine's elf_gregset_t lays them out.
	Registers []uint64

	trailer []byte
}

func (p *CorePrStatus) Note() *Note { return p.note }

func (p *CorePrStatus) headerSize() int {
	if p.note.Is64() {
		return prStatus64Size
	}
	return prStatus32Size
}

func (p *CorePrStatus) Parse() error {
	desc := p.note.Description
	hsize := p.headerSize()
	ws := p.note.wordSize()
	if len(desc) < hsize+ws {
		return fmt.Errorf("prstatus description too small: %d bytes", len(desc))
	}
	r := bytes.NewReader(desc)
	order := p.note.ByteOrder()

	// the last word is pr_fpvalid
	nregs := (len(desc) - hsize - ws) / ws
	p.Registers = make([]uint64, nregs)

	if p.note.Is64() {
		var h prStatus64
		if err := struc.UnpackWithOrder(r, &h, order); err != nil {
			return err
		}
		p.Info, p.CurSig = h.Info, h.CurSig
		p.SigPend, p.SigHold = h.SigPend, h.SigHold
		p.PID, p.PPID, p.PGrp, p.SID = h.PID, h.PPID, h.PGrp, h.SID
		p.UTime = PrTimeval{h.UTime[0], h.UTime[1]}
		p.STime = PrTimeval{h.STime[0], h.STime[1]}
		p.CUTime = PrTimeval{h.CUTime[0], h.CUTime[1]}
		p.CSTime = PrTimeval{h.CSTime[0], h.CSTime[1]}
		if err := struc.UnpackWithOrder(r, p.Registers, order); err != nil {
			return err
		}
	} else {
		var h prStatus32
		if err := struc.UnpackWithOrder(r, &h, order); err != nil {
			return err
		}
		p.Info, p.CurSig = h.Info, h.CurSig
		p.SigPend, p.SigHold = uint64(h.SigPend), uint64(h.SigHold)
		p.PID, p.PPID, p.PGrp, p.SID = h.PID, h.PPID, h.PGrp, h.SID
		p.UTime = PrTimeval{uint64(h.UTime[0]), uint64(h.UTime[1])}
		p.STime = PrTimeval{uint64(h.STime[0]), uint64(h.STime[1])}
		p.CUTime = PrTimeval{uint64(h.CUTime[0]), uint64(h.CUTime[1])}
		p.CSTime = PrTimeval{uint64(h.CSTime[0]), uint64(h.CSTime[1])}
		regs := make([]uint32, nregs)
		if err := struc.UnpackWithOrder(r, regs, order); err != nil {
			return err
		}
		for i, v := range regs {
			p.Registers[i] = uint64(v)
		}
	}
	p.trailer = append([]byte(nil), desc[hsize+nregs*ws:]...)
	return nil
}

// check32 fails when a field does not fit in the 32-bit layout.
func (p *CorePrStatus) check32() error {
	fields := []struct {
		name string
		v    uint64
	}{
		{"pr_sigpend", p.SigPend},
		{"pr_sighold", p.SigHold},
		{"pr_utime", max(p.UTime.Sec, p.UTime.Usec)},
		{"pr_stime", max(p.STime.Sec, p.STime.Usec)},
		{"pr_cutime", max(p.CUTime.Sec, p.CUTime.Usec)},
		{"pr_cstime", max(p.CSTime.Sec, p.CSTime.Usec)},
	}
	for _, f := range fields {
		if err := p.note.checkWord(f.name, f.v); err != nil {
			return err
		}
	}
	for i, r := range p.Registers {
		if err := p.note.checkWord(fmt.Sprintf("register %d", i), r); err != nil {
			return err
		}
	}
	return nil
}

func (p *CorePrStatus) Build() error {
	var buf bytes.Buffer
	order := p.note.ByteOrder()

	if p.note.Is64() {
		if err := struc.PackWithOrder(&buf, &prStatus64{
			Info: p.Info, CurSig: p.CurSig,
			SigPend: p.SigPend, SigHold: p.SigHold,
			PID: p.PID, PPID: p.PPID, PGrp: p.PGrp, SID: p.SID,
			UTime:  [2]uint64{p.UTime.Sec, p.UTime.Usec},
			STime:  [2]uint64{p.STime.Sec, p.STime.Usec},
			CUTime: [2]uint64{p.CUTime.Sec, p.CUTime.Usec},
			CSTime: [2]uint64{p.CSTime.Sec, p.CSTime.Usec},
		}, order); err != nil {
			return err
		}
		if err := struc.PackWithOrder(&buf, p.Registers, order); err != nil {
			return err
		}
	} else {
		if err := p.check32(); err != nil {
			return err
		}
		if err := struc.PackWithOrder(&buf, &prStatus32{
			Info: p.Info, CurSig: p.CurSig,
			SigPend: uint32(p.SigPend), SigHold: uint32(p.SigHold),
			PID: p.PID, PPID: p.PPID, PGrp: p.PGrp, SID: p.SID,
			UTime:  [2]uint32{uint32(p.UTime.Sec), uint32(p.UTime.Usec)},
			STime:  [2]uint32{uint32(p.STime.Sec), uint32(p.STime.Usec)},
			CUTime: [2]uint32{uint32(p.CUTime.Sec), uint32(p.CUTime.Usec)},
			CSTime: [2]uint32{uint32(p.CSTime.Sec), uint32(p.CSTime.Usec)},
		}, order); err != nil {
			return err
		}
		regs := make([]uint32, len(p.Registers))
		for i, r := range p.Registers {
			regs[i] = uint32(r)
		}
		if err := struc.PackWithOrder(&buf, regs, order); err != nil {
			return err
		}
	}
	if p.trailer == nil {
		p.trailer = make([]byte, p.note.wordSize())
	}
	buf.Write(p.trailer)
	p.note.Description = buf.Bytes()
	return nil
}

// Register returns the register word at idx.
func (p *CorePrStatus) Register(idx int) (uint64, bool) {
	if idx < 0 || idx >= len(p.Registers) {
		return 0, false
	}
	return p.Registers[idx], true
}

// SetRegister replaces the register word at idx and rebuilds the description.
func (p *CorePrStatus) SetRegister(idx int, val uint64) error {
	if idx < 0 || idx >= len(p.Registers) {
		return fmt.Errorf("register index %d out of range (%d registers)", idx, len(p.Registers))
	}
	if err := p.note.checkWord(fmt.Sprintf("register %d", idx), val); err != nil {
		return err
	}
	p.Registers[idx] = val
	return p.Build()
}

func (p *CorePrStatus) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "    pid=%d ppid=%d pgrp=%d sid=%d\n", p.PID, p.PPID, p.PGrp, p.SID)
	fmt.Fprintf(&sb, "    signo=%d code=%d errno=%d cursig=%d\n", p.Info.SigNo, p.Info.Code, p.Info.Errno, p.CurSig)
	fmt.Fprintf(&sb, "    utime=%d.%06d stime=%d.%06d\n", p.UTime.Sec, p.UTime.Usec, p.STime.Sec, p.STime.Usec)
	for i, r := range p.Registers {
		if i > 0 && i%4 == 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "    r%-2d %#016x", i, r)
	}
	return sb.String()
}
