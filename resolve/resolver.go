// Package resolve turns a decoder section into an execution plan.
//
// Resolve validates every reference in a section's decoder graph, orders the
// decoders so each runs after the decoders it consumes, and binds every input
// to a concrete archive byte range or to an earlier step's output. It is a
// pure function: the same section always yields the same plan or error.
package resolve

import (
	"errors"
	"fmt"

	"github.com/meigma/unpack/internal/dag"
	"github.com/meigma/unpack/metadata"
)

// Resolve validates section against the archive's file section table and
// returns its execution plan.
//
// Errors match metadata.ErrDanglingReference (as *ReferenceError, one per bad
// binding, joined), metadata.ErrCycleDetected (as *CycleError) or
// metadata.ErrLengthMismatch.
func Resolve(table metadata.FileSectionTable, section metadata.Section) (*Plan, error) {
	return resolve(table.Lookup, table.Len(), section)
}

type lookupFunc func(i int) (metadata.FileSection, bool)

// carriedOnly is passed as numFileSections when lookup only knows the file
// sections an encoded plan carried, not the archive's whole table.
const carriedOnly = -1

func resolve(lookup lookupFunc, numFileSections int, section metadata.Section) (*Plan, error) {
	n := section.NumDecoders()
	r := resolver{lookup: lookup, numFileSections: numFileSections, section: section}

	// Bind inputs and record edges producer -> consumer.
	inputs := make([][]Input, n)
	deps := make([][]int, n)
	var errs []error
	for d := range n {
		dec := section.Decoder(d)
		inputs[d] = make([]Input, 0, dec.NumInputs())
		for i := range dec.NumInputs() {
			in, err := r.bind(dec.Input(i), d, i)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			inputs[d] = append(inputs[d], in)
			if h, ok := in.Handle(); ok {
				deps[d] = append(deps[d], h.Decoder)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	steps, levels, err := order(n, deps)
	if err != nil {
		return nil, err
	}

	root, err := r.bind(section.Root(), -1, RootInput)
	if err != nil {
		return nil, err
	}
	if err := r.checkRootLength(root); err != nil {
		return nil, err
	}

	plan := &Plan{
		section:  section,
		steps:    make([]Step, 0, n),
		levels:   make([][]int, 0, len(levels)),
		position: make(map[int]int, n),
		root:     root,
	}
	for _, d := range steps {
		plan.position[d] = len(plan.steps)
		plan.steps = append(plan.steps, Step{index: d, decoder: section.Decoder(d), inputs: inputs[d]})
	}
	for _, level := range levels {
		positions := make([]int, 0, len(level))
		for _, d := range level {
			positions = append(positions, plan.position[d])
		}
		plan.levels = append(plan.levels, positions)
	}
	return plan, nil
}

type resolver struct {
	lookup          lookupFunc
	numFileSections int
	section         metadata.Section
}

// bind resolves b as input position of decoder d.
func (r resolver) bind(b metadata.InputBinding, d, position int) (Input, error) {
	if i, ok := b.Section(); ok {
		fs, found := r.lookup(i)
		if !found {
			reason := fmt.Sprintf("file section %d out of range (%d file sections)", i, r.numFileSections)
			if r.numFileSections == carriedOnly {
				reason = fmt.Sprintf("file section %d not carried by the encoded plan", i)
			}
			return Input{}, &ReferenceError{Decoder: d, Input: position, Binding: b, Reason: reason}
		}
		return rangeInput(i, fs), nil
	}

	p, o, ok := b.Decoder()
	if !ok {
		return Input{}, &ReferenceError{Decoder: d, Input: position, Binding: b, Reason: "binding is not set"}
	}
	if p >= r.section.NumDecoders() {
		return Input{}, &ReferenceError{
			Decoder: d, Input: position, Binding: b,
			Reason: fmt.Sprintf("decoder %d out of range (%d decoders)", p, r.section.NumDecoders()),
		}
	}
	if outputs := r.section.Decoder(p).NumOutputs(); o >= outputs {
		return Input{}, &ReferenceError{
			Decoder: d, Input: position, Binding: b,
			Reason: fmt.Sprintf("output %d out of range (decoder %d has %d outputs)", o, p, outputs),
		}
	}
	return handleInput(Handle{Decoder: p, Output: o}), nil
}

func (r resolver) checkRootLength(root Input) error {
	var produced int64
	if h, ok := root.Handle(); ok {
		produced = r.section.Decoder(h.Decoder).Output(h.Output).Length()
	} else {
		_, fs, _ := root.Range()
		produced = fs.Length()
	}
	if produced != r.section.Length() {
		return fmt.Errorf("%w: root %s produces %d bytes, section declares %d",
			metadata.ErrLengthMismatch, root, produced, r.section.Length())
	}
	return nil
}

// order sorts decoders 0..n-1 so every decoder follows its dependencies.
// Ties go to the lowest-declared ready decoder. It also returns the decoders
// grouped by depth in the dependency graph.
func order(n int, deps [][]int) ([]int, [][]int, error) {
	g := dag.New[int]()
	for d := range n {
		if err := g.AddVertex(d, d); err != nil {
			return nil, nil, err
		}
	}
	for d := range n {
		if err := g.AddDependencies(d, deps[d]); err != nil {
			return nil, nil, err
		}
	}
	steps, err := g.TopologicalSort()
	if err != nil {
		if cycleErr := dag.AsCycleError[int](err); cycleErr != nil {
			return nil, nil, &CycleError{Decoder: cycleErr.Cycle[0], Cycle: cycleErr.Cycle}
		}
		return nil, nil, err
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, nil, err
	}
	return steps, levels, nil
}
