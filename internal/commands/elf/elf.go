package elf

import (
	"context"
	"runtime"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/blacktop/go-elf/internal/magic"
	"github.com/blacktop/go-elf/pkg/elf"
)

// ConfigFunc returns the parse configuration of a file.
type ConfigFunc func(path string) elf.Config

// OpenFiles parses the ELF files at paths concurrently. The binaries are
// returned in the order of paths. Parsing stops at the first file that is not
// an ELF file or whose header is rejected.
func OpenFiles(ctx context.Context, paths []string, conf ConfigFunc) ([]*elf.Binary, error) {
	bins := make([]*elf.Binary, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for idx, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if ok, err := magic.IsELF(path); !ok {
				return errors.Wrapf(err, "%s", path)
			}
			c := elf.Config{Name: path}
			if conf != nil {
				c = conf(path)
			}
			bin, err := elf.Open(path, c)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"file":   path,
				"method": bin.DynSymCount.Method,
				"count":  bin.DynSymCount.Count,
			}).Debug("Parsed")
			bins[idx] = bin
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return bins, nil
}

// MethodCount is the result of one symbol counting method.
type MethodCount struct {
	Method elf.CountMethod `json:"-"`
	Name   string          `json:"method"`
	Count  uint64          `json:"count"`
	Error  string          `json:"error,omitempty"`
}

// CountReport runs every heuristic counting method against b, followed by
// the automatic selection.
func CountReport(b *elf.Binary) []MethodCount {
	methods := append([]elf.CountMethod{}, elf.AutoCountOrder...)
	methods = append(methods, elf.CountAuto)

	report := make([]MethodCount, 0, len(methods))
	for _, m := range methods {
		mc := MethodCount{Method: m, Name: m.String()}
		n, err := b.CountDynamicSymbols(m)
		if err != nil {
			mc.Error = err.Error()
		} else {
			mc.Count = n
		}
		report = append(report, mc)
	}
	return report
}
