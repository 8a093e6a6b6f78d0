package unpack

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/unpack/internal/sizing"
	"github.com/meigma/unpack/metadata"
	"github.com/meigma/unpack/resolve"
)

// decode executes plan and returns the section's verified decoded stream.
func (a *Archive) decode(ctx context.Context, section int, plan *resolve.Plan) ([]byte, error) {
	if err := a.checkSize(fmt.Sprintf("section %d stream", section), plan.Length()); err != nil {
		return nil, err
	}

	x := &execution{
		a:       a,
		ctx:     ctx,
		section: section,
		plan:    plan,
		outputs: make([][][]byte, plan.NumSteps()),
	}
	x.needed, x.lastUse = liveness(plan)

	stream, err := x.run()
	if err != nil {
		return nil, err
	}
	if int64(len(stream)) != plan.Length() {
		return nil, fmt.Errorf("unpack: section %d: %w: decoded %d bytes, declared %d",
			section, ErrLengthMismatch, len(stream), plan.Length())
	}
	if want, ok := plan.Checksum(); ok {
		if got, match := want.Verify(stream); !match {
			a.log().Warn("section checksum mismatch", "section", section, "want", want, "got", got)
			return nil, &ChecksumError{Section: section, SubStream: WholeStream, Want: want, Got: got}
		}
	}
	return stream, nil
}

// execution holds the outputs of one plan run. outputs is indexed by step
// position; entries are released once no later step reads them.
type execution struct {
	a       *Archive
	ctx     context.Context
	section int
	plan    *resolve.Plan
	outputs [][][]byte
	needed  []bool
	lastUse []int
}

func (x *execution) run() ([]byte, error) {
	for level, positions := range x.plan.Levels() {
		if err := x.ctx.Err(); err != nil {
			return nil, err
		}
		if err := x.runLevel(positions); err != nil {
			return nil, err
		}
		for pos := range x.outputs {
			if x.lastUse[pos] == level {
				x.outputs[pos] = nil
			}
		}
	}

	root := x.plan.Root()
	if h, ok := root.Handle(); ok {
		pos, _ := x.plan.Position(h.Decoder)
		return x.outputs[pos][h.Output], nil
	}
	index, fs, _ := root.Range()
	return x.a.readFileSection(x.ctx, index, fs)
}

func (x *execution) runLevel(positions []int) error {
	var todo []int
	for _, pos := range positions {
		if x.needed[pos] {
			todo = append(todo, pos)
		}
	}
	if x.a.stepConcurrency <= 1 || len(todo) <= 1 {
		for _, pos := range todo {
			if err := x.ctx.Err(); err != nil {
				return err
			}
			if err := x.runStep(pos); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(x.ctx)
	g.SetLimit(x.a.stepConcurrency)
	for _, pos := range todo {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return x.runStep(pos)
		})
	}
	return g.Wait()
}

// runStep gathers a step's inputs, runs its engine and records its outputs.
// Steps of one level write disjoint outputs entries and only read entries of
// earlier levels.
func (x *execution) runStep(pos int) error {
	step := x.plan.Step(pos)
	fail := func(err error) error {
		return &StepError{Section: x.section, Decoder: step.Decoder(), Method: step.Method(), Err: err}
	}

	for o, length := range step.OutputLengths() {
		if err := x.a.checkSize(fmt.Sprintf("output %d", o), length); err != nil {
			return fail(err)
		}
	}

	inputs := make([][]byte, step.NumInputs())
	for i, in := range step.Inputs() {
		if h, ok := in.Handle(); ok {
			producer, _ := x.plan.Position(h.Decoder)
			inputs[i] = x.outputs[producer][h.Output]
			continue
		}
		index, fs, _ := in.Range()
		data, err := x.a.readFileSection(x.ctx, index, fs)
		if err != nil {
			return fail(err)
		}
		inputs[i] = data
	}

	outputs, err := x.a.registry.Decode(step.Method(), step.Settings(), inputs, step.OutputLengths())
	if err != nil {
		return fail(err)
	}
	x.outputs[pos] = outputs
	x.a.log().Debug("step executed", "section", x.section, "decoder", step.Decoder(),
		"method", step.Method().String(), "inputs", step.NumInputs(), "outputs", len(outputs))
	return nil
}

// liveness marks the steps the root transitively depends on and, for each
// step, the last level that reads its outputs. Steps nothing reads are not
// run. The root's producer is never released.
func liveness(plan *resolve.Plan) (needed []bool, lastUse []int) {
	n := plan.NumSteps()
	needed = make([]bool, n)
	lastUse = make([]int, n)
	for pos := range lastUse {
		lastUse[pos] = -1
	}

	levelOf := make([]int, n)
	for level, positions := range plan.Levels() {
		for _, pos := range positions {
			levelOf[pos] = level
		}
	}

	var mark func(pos int)
	mark = func(pos int) {
		if needed[pos] {
			return
		}
		needed[pos] = true
		for _, in := range plan.Step(pos).Inputs() {
			h, ok := in.Handle()
			if !ok {
				continue
			}
			producer, _ := plan.Position(h.Decoder)
			lastUse[producer] = max(lastUse[producer], levelOf[pos])
			mark(producer)
		}
	}
	if h, ok := plan.Root().Handle(); ok {
		pos, _ := plan.Position(h.Decoder)
		mark(pos)
		lastUse[pos] = n // past every level
	}
	return needed, lastUse
}

// readFileSection reads and verifies one raw byte range.
func (a *Archive) readFileSection(ctx context.Context, index int, fs metadata.FileSection) ([]byte, error) {
	fail := func(err error) error {
		return &FileSectionError{FileSection: index, Err: err}
	}
	if err := a.checkSize("input", fs.Length()); err != nil {
		return nil, fail(err)
	}
	n, err := sizing.ToInt(fs.Length(), ErrSizeOverflow)
	if err != nil {
		return nil, fail(err)
	}

	var r io.Reader
	if rr, ok := a.source.(RangeReader); ok {
		rc, err := rr.ReadRange(ctx, fs.Offset(), fs.Length())
		if err != nil {
			return nil, fail(err)
		}
		defer rc.Close()
		r = rc
	} else {
		r = io.NewSectionReader(a.source, fs.Offset(), fs.Length())
	}

	data, err := sizing.ReadExact(r, n,
		fmt.Errorf("%w: source ended before byte %d", ErrLengthMismatch, fs.End()),
		fmt.Errorf("%w: range read returned more than %d bytes", ErrLengthMismatch, fs.Length()),
	)
	if err != nil {
		return nil, fail(err)
	}
	if want, ok := fs.Checksum(); ok {
		if got, match := want.Verify(data); !match {
			a.log().Warn("file section checksum mismatch", "file_section", index, "want", want, "got", got)
			return nil, fail(fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, want, got))
		}
	}
	return data, nil
}

func (a *Archive) checkSize(what string, size int64) error {
	if a.maxStreamSize > 0 && size > a.maxStreamSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrSizeOverflow, what, size, a.maxStreamSize)
	}
	return nil
}
