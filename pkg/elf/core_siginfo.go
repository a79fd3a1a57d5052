package elf

import (
	"bytes"
	"fmt"

	"github.com/lunixbochs/struc"
)

// CoreSigInfo is the head of the siginfo_t saved in a NT_SIGINFO core note.
// The rest of the structure is kept as is.
type CoreSigInfo struct {
	note *Note

	SigNo int32
	Errno int32
	Code  int32
}

type sigInfoHead struct {
	SigNo int32
	Errno int32
	Code  int32
}

const sigInfoHeadSize = 12

func (s *CoreSigInfo) Note() *Note { return s.note }

func (s *CoreSigInfo) Parse() error {
	var h sigInfoHead
	if err := struc.UnpackWithOrder(bytes.NewReader(s.note.Description), &h, s.note.ByteOrder()); err != nil {
		return err
	}
	s.SigNo, s.Errno, s.Code = h.SigNo, h.Errno, h.Code
	return nil
}

// Build rewrites the head of the description and keeps the rest.
func (s *CoreSigInfo) Build() error {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, &sigInfoHead{s.SigNo, s.Errno, s.Code}, s.note.ByteOrder()); err != nil {
		return err
	}
	if len(s.note.Description) > sigInfoHeadSize {
		buf.Write(s.note.Description[sigInfoHeadSize:])
	}
	s.note.Description = buf.Bytes()
	return nil
}

// SetSigNo replaces the signal number and rebuilds the description.
func (s *CoreSigInfo) SetSigNo(v int32) error {
	s.SigNo = v
	return s.Build()
}

// SetErrno replaces the error number and rebuilds the description.
func (s *CoreSigInfo) SetErrno(v int32) error {
	s.Errno = v
	return s.Build()
}

// SetCode replaces the signal code and rebuilds the description.
func (s *CoreSigInfo) SetCode(v int32) error {
	s.Code = v
	return s.Build()
}

func (s *CoreSigInfo) String() string {
	return fmt.Sprintf("    signo=%d errno=%d code=%d", s.SigNo, s.Errno, s.Code)
}
