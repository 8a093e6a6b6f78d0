package metadata

import (
	"bytes"
	"slices"
)

// Output describes one decoder output.
type Output struct {
	length int64
}

// NewOutput creates an output descriptor of the given decoded length.
func NewOutput(length int64) (Output, error) {
	if length < 0 {
		return Output{}, invalidf("output length %d is negative", length)
	}
	return Output{length: length}, nil
}

// Length returns the number of bytes the output produces.
func (o Output) Length() int64 { return o.length }

// Decoder is one node of a section's decoder graph: a method applied to
// ordered inputs, producing ordered outputs.
//
// Input and output positions carry method-specific meaning and are preserved
// exactly. A Decoder does not check that its bindings exist; it cannot see
// the rest of the graph.
type Decoder struct {
	method   Method
	settings []byte
	inputs   []InputBinding
	outputs  []Output
}

// NewDecoder creates a decoder. settings, inputs and outputs may be empty but
// not nil. All slices are copied.
func NewDecoder(method Method, settings []byte, inputs []InputBinding, outputs []Output) (Decoder, error) {
	if !method.Valid() {
		return Decoder{}, invalidf("decoder method %d is undefined", method)
	}
	if settings == nil {
		return Decoder{}, invalidf("%s decoder settings are absent", method)
	}
	if inputs == nil {
		return Decoder{}, invalidf("%s decoder inputs are absent", method)
	}
	if outputs == nil {
		return Decoder{}, invalidf("%s decoder outputs are absent", method)
	}
	for i, in := range inputs {
		if !in.Valid() {
			return Decoder{}, invalidf("%s decoder input %d is not a valid binding", method, i)
		}
	}
	for i, out := range outputs {
		if out.length < 0 {
			return Decoder{}, invalidf("%s decoder output %d length %d is negative", method, i, out.length)
		}
	}
	return Decoder{
		method:   method,
		settings: bytes.Clone(settings),
		inputs:   slices.Clone(inputs),
		outputs:  slices.Clone(outputs),
	}, nil
}

// Method returns the decoder's compression method.
func (d Decoder) Method() Method { return d.method }

// Settings returns a copy of the method-specific settings.
func (d Decoder) Settings() []byte {
	if d.settings == nil {
		return nil
	}
	return bytes.Clone(d.settings)
}

// NumInputs returns the number of inputs.
func (d Decoder) NumInputs() int { return len(d.inputs) }

// Input returns input binding i. It panics if i is out of range.
func (d Decoder) Input(i int) InputBinding { return d.inputs[i] }

// Inputs returns a copy of the input bindings.
func (d Decoder) Inputs() []InputBinding { return slices.Clone(d.inputs) }

// NumOutputs returns the number of outputs.
func (d Decoder) NumOutputs() int { return len(d.outputs) }

// Output returns output descriptor i. It panics if i is out of range.
func (d Decoder) Output(i int) Output { return d.outputs[i] }

// Outputs returns a copy of the output descriptors.
func (d Decoder) Outputs() []Output { return slices.Clone(d.outputs) }

// Equal reports whether d and other describe the same decoder.
func (d Decoder) Equal(other Decoder) bool {
	return d.method == other.method &&
		bytes.Equal(d.settings, other.settings) &&
		slices.Equal(d.inputs, other.inputs) &&
		slices.Equal(d.outputs, other.outputs)
}
