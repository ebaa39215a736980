package javap

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/daimatz/gojavap/pkg/classfile"
	"github.com/daimatz/gojavap/pkg/log"
)

// LoadFunc finds and decodes the class with the given name.
type LoadFunc func(name string) (*classfile.ClassFile, error)

// Result is the outcome for one requested class. Exactly one of Output
// and Err is meaningful.
type Result struct {
	Name   string
	Class  *classfile.ClassFile
	Output []byte
	Err    error
}

// Batch loads and renders names with at most jobs classes in flight and
// returns one Result per name, in the order given. A class that fails to
// load or print does not affect the others. Once ctx is done no further
// classes are started and the remaining results carry ctx.Err().
func Batch(ctx context.Context, names []string, load LoadFunc, opts Options, jobs int) []Result {
	results := make([]Result, len(names))
	if jobs < 1 {
		jobs = 1
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, name := range names {
		results[i].Name = name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Class, results[i].Output, results[i].Err = render(name, load, opts)
			if results[i].Err != nil {
				log.Debug(log.Javap, "class failed", "class", name, "err", results[i].Err)
			}
			return nil
		})
	}
	g.Wait()
	return results
}

func render(name string, load LoadFunc, opts Options) (*classfile.ClassFile, []byte, error) {
	cf, err := load(name)
	if err != nil {
		return nil, nil, err
	}
	if opts.Tree {
		return cf, []byte(Outline(cf, opts.Access)), nil
	}
	var buf bytes.Buffer
	if err := Print(&buf, cf, opts); err != nil {
		return cf, nil, fmt.Errorf("printing %s: %w", name, err)
	}
	return cf, buf.Bytes(), nil
}
