package resolve

import (
	"fmt"
	"slices"

	"github.com/meigma/unpack/metadata"
)

// InputKind distinguishes resolved inputs.
type InputKind uint8

const (
	// InputInvalid is the zero value.
	InputInvalid InputKind = iota
	// InputRange reads a concrete byte range of the archive.
	InputRange
	// InputHandle reads an output produced by an earlier plan step.
	InputHandle
)

// Handle names output Output of decoder Decoder within one section.
type Handle struct {
	Decoder int
	Output  int
}

func (h Handle) String() string {
	return fmt.Sprintf("decoder[%d].output[%d]", h.Decoder, h.Output)
}

// Input is a decoder input bound to a concrete producer.
type Input struct {
	kind        InputKind
	fileSection int
	section     metadata.FileSection
	handle      Handle
}

func rangeInput(index int, fs metadata.FileSection) Input {
	return Input{kind: InputRange, fileSection: index, section: fs}
}

func handleInput(h Handle) Input {
	return Input{kind: InputHandle, handle: h}
}

// Kind reports which producer the input reads.
func (in Input) Kind() InputKind { return in.kind }

// Range returns the file section index and its byte range; ok is false for
// handle inputs.
func (in Input) Range() (index int, fs metadata.FileSection, ok bool) {
	if in.kind != InputRange {
		return 0, metadata.FileSection{}, false
	}
	return in.fileSection, in.section, true
}

// Handle returns the producing step's output; ok is false for range inputs.
func (in Input) Handle() (Handle, bool) {
	if in.kind != InputHandle {
		return Handle{}, false
	}
	return in.handle, true
}

func (in Input) String() string {
	switch in.kind {
	case InputRange:
		return fmt.Sprintf("section[%d]@[%d,%d)", in.fileSection, in.section.Offset(), in.section.End())
	case InputHandle:
		return in.handle.String()
	default:
		return "invalid"
	}
}

// Step is one decoder invocation with every input resolved.
type Step struct {
	index   int
	decoder metadata.Decoder
	inputs  []Input
}

// Decoder returns the decoder's index within its section.
func (s Step) Decoder() int { return s.index }

// Method returns the decoder's method.
func (s Step) Method() metadata.Method { return s.decoder.Method() }

// Settings returns a copy of the decoder's settings.
func (s Step) Settings() []byte { return s.decoder.Settings() }

// NumInputs returns the number of inputs.
func (s Step) NumInputs() int { return len(s.inputs) }

// Input returns resolved input i. It panics if i is out of range.
func (s Step) Input(i int) Input { return s.inputs[i] }

// Inputs returns a copy of the resolved inputs, in decoder order.
func (s Step) Inputs() []Input { return slices.Clone(s.inputs) }

// NumOutputs returns the number of outputs.
func (s Step) NumOutputs() int { return s.decoder.NumOutputs() }

// OutputLength returns the declared length of output i.
func (s Step) OutputLength(i int) int64 { return s.decoder.Output(i).Length() }

// OutputLengths returns the declared length of every output.
func (s Step) OutputLengths() []int64 {
	lengths := make([]int64, s.decoder.NumOutputs())
	for i := range lengths {
		lengths[i] = s.decoder.Output(i).Length()
	}
	return lengths
}

// Plan is the execution order of one section's decoders.
//
// Steps are topologically ordered: a step only consumes handles of steps
// before it. A Plan is immutable and safe for concurrent use.
type Plan struct {
	section  metadata.Section
	steps    []Step
	levels   [][]int
	position map[int]int
	root     Input
}

// Section returns the section the plan was resolved from.
func (p *Plan) Section() metadata.Section { return p.section }

// NumSteps returns the number of steps.
func (p *Plan) NumSteps() int { return len(p.steps) }

// Step returns step i. It panics if i is out of range.
func (p *Plan) Step(i int) Step { return p.steps[i] }

// Steps returns a copy of the steps in execution order.
func (p *Plan) Steps() []Step { return slices.Clone(p.steps) }

// Levels groups step positions by depth. A step with no decoder inputs is at
// depth 0; any other step sits one level below its deepest producer. Steps
// in one level only depend on earlier levels and may run concurrently.
func (p *Plan) Levels() [][]int {
	levels := make([][]int, len(p.levels))
	for i, level := range p.levels {
		levels[i] = slices.Clone(level)
	}
	return levels
}

// Position returns where decoder d runs in the plan.
func (p *Plan) Position(d int) (int, bool) {
	pos, ok := p.position[d]
	return pos, ok
}

// Root returns the resolved producer of the section's decoded stream.
func (p *Plan) Root() Input { return p.root }

// Length returns the decoded stream length.
func (p *Plan) Length() int64 { return p.section.Length() }

// Checksum returns the whole-stream checksum, if any.
func (p *Plan) Checksum() (metadata.Checksum, bool) { return p.section.Checksum() }

// SubStreams returns the layout of the decoded stream.
func (p *Plan) SubStreams() []metadata.SubStream { return p.section.SubStreams() }
