// Package elf parses ELF32 and ELF64 files into a mutable object graph.
//
// Parsing is best effort: apart from an unusable file header, every
// malformed or oversized structure is logged and left out of the result
// instead of failing the whole parse.
package elf

import (
	"os"

	"github.com/blacktop/go-elf/internal/stream"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Config tunes a parse.
type Config struct {
	// Name is recorded as Binary.Name. Open defaults it to the path.
	Name string
	// CountMethod selects how the number of dynamic symbols is computed.
	CountMethod CountMethod
	// ForcedCount is the number of dynamic symbols used with CountForced.
	ForcedCount uint64
	// CountOrder overrides AutoCountOrder for this parse.
	CountOrder []CountMethod
}

// Open reads the named file and parses it.
func Open(name string, config ...Config) (*Binary, error) {
	dat, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var conf Config
	if len(config) > 0 {
		conf = config[0]
	}
	if conf.Name == "" {
		conf.Name = name
	}
	bin, err := parse(dat, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", name)
	}
	return bin, nil
}

// Parse parses an in-memory ELF image. The image is copied; the returned
// Binary does not alias data.
//
// The only error returned wraps ErrFatalHeader: the file is not an ELF
// file this package can read and no Binary is produced.
func Parse(data []byte, config ...Config) (*Binary, error) {
	var conf Config
	if len(config) > 0 {
		conf = config[0]
	}
	return parse(slices.Clone(data), conf)
}

func parse(data []byte, conf Config) (*Binary, error) {
	p := &parser{
		conf: conf,
		d:    &decoder{s: stream.New(data, nil)},
	}
	return p.parse()
}
