package resolve

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/meigma/unpack/metadata"
)

// planFormatVersion is written into every encoded plan.
const planFormatVersion = 1

var (
	planEncMode cbor.EncMode
	planDecMode cbor.DecMode
)

func init() {
	var err error
	planEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("resolve: CBOR encoder initialization failed: " + err.Error())
	}
	planDecMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic("resolve: CBOR decoder initialization failed: " + err.Error())
	}
}

// wirePlan carries a resolved section and the file sections it reads.
// The step order is not stored; decoding resolves it again, which also
// re-validates everything received.
type wirePlan struct {
	Version      uint              `cbor:"1,keyasint"`
	Decoders     []wireDecoder     `cbor:"2,keyasint"`
	Root         wireBinding       `cbor:"3,keyasint"`
	Length       int64             `cbor:"4,keyasint"`
	Checksum     string            `cbor:"5,keyasint,omitempty"`
	SubStreams   []wireSubStream   `cbor:"6,keyasint"`
	FileSections []wireFileSection `cbor:"7,keyasint"`
}

type wireDecoder struct {
	Method   uint8         `cbor:"1,keyasint"`
	Settings []byte        `cbor:"2,keyasint"`
	Inputs   []wireBinding `cbor:"3,keyasint"`
	Outputs  []int64       `cbor:"4,keyasint"`
}

type wireBinding struct {
	Kind  uint8 `cbor:"1,keyasint"`
	Index int   `cbor:"2,keyasint"`
	Out   int   `cbor:"3,keyasint,omitempty"`
}

type wireSubStream struct {
	Length   int64  `cbor:"1,keyasint"`
	Checksum string `cbor:"2,keyasint,omitempty"`
}

type wireFileSection struct {
	Index    int    `cbor:"1,keyasint"`
	Offset   int64  `cbor:"2,keyasint"`
	Length   int64  `cbor:"3,keyasint"`
	Checksum string `cbor:"4,keyasint,omitempty"`
}

// EncodePlan serializes a plan for an orchestrator running elsewhere.
// The encoding is deterministic: equal plans encode to equal bytes.
func EncodePlan(p *Plan) ([]byte, error) {
	section := p.section
	w := wirePlan{
		Version:    planFormatVersion,
		Decoders:   make([]wireDecoder, 0, section.NumDecoders()),
		Root:       encodeBinding(section.Root()),
		Length:     section.Length(),
		SubStreams: make([]wireSubStream, 0, section.NumSubStreams()),
	}
	if c, ok := section.Checksum(); ok {
		w.Checksum = c.String()
	}

	for d := range section.NumDecoders() {
		dec := section.Decoder(d)
		wd := wireDecoder{
			Method:   uint8(dec.Method()),
			Settings: dec.Settings(),
			Inputs:   make([]wireBinding, 0, dec.NumInputs()),
			Outputs:  make([]int64, 0, dec.NumOutputs()),
		}
		for i := range dec.NumInputs() {
			wd.Inputs = append(wd.Inputs, encodeBinding(dec.Input(i)))
		}
		for o := range dec.NumOutputs() {
			wd.Outputs = append(wd.Outputs, dec.Output(o).Length())
		}
		w.Decoders = append(w.Decoders, wd)
	}

	for i := range section.NumSubStreams() {
		sub := section.SubStream(i)
		ws := wireSubStream{Length: sub.Length()}
		if c, ok := sub.Checksum(); ok {
			ws.Checksum = c.String()
		}
		w.SubStreams = append(w.SubStreams, ws)
	}

	seen := make(map[int]bool)
	addRange := func(in Input) {
		index, fs, ok := in.Range()
		if !ok || seen[index] {
			return
		}
		seen[index] = true
		wf := wireFileSection{Index: index, Offset: fs.Offset(), Length: fs.Length()}
		if c, ok := fs.Checksum(); ok {
			wf.Checksum = c.String()
		}
		w.FileSections = append(w.FileSections, wf)
	}
	for _, step := range p.steps {
		for _, in := range step.inputs {
			addRange(in)
		}
	}
	addRange(p.root)

	data, err := planEncMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("resolve: encode plan: %w", err)
	}
	return data, nil
}

// DecodePlan parses a plan written by EncodePlan. The section is rebuilt
// through the metadata constructors and resolved again, so a decoded plan
// satisfies the same guarantees as one returned by Resolve.
func DecodePlan(data []byte) (*Plan, error) {
	var w wirePlan
	if err := planDecMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("resolve: decode plan: %w", err)
	}
	if w.Version != planFormatVersion {
		return nil, fmt.Errorf("resolve: decode plan: unsupported version %d", w.Version)
	}

	ranges := make(map[int]metadata.FileSection, len(w.FileSections))
	for _, wf := range w.FileSections {
		if _, dup := ranges[wf.Index]; dup {
			return nil, fmt.Errorf("resolve: decode plan: %w: file section %d listed twice", metadata.ErrInvalidArgument, wf.Index)
		}
		fs, err := metadata.NewFileSection(wf.Offset, wf.Length)
		if err != nil {
			return nil, fmt.Errorf("resolve: decode plan: file section %d: %w", wf.Index, err)
		}
		if wf.Checksum != "" {
			c, err := metadata.ParseChecksum(wf.Checksum)
			if err != nil {
				return nil, fmt.Errorf("resolve: decode plan: file section %d: %w", wf.Index, err)
			}
			fs = fs.WithChecksum(c)
		}
		ranges[wf.Index] = fs
	}

	section, err := decodeSection(w)
	if err != nil {
		return nil, fmt.Errorf("resolve: decode plan: %w", err)
	}

	lookup := func(i int) (metadata.FileSection, bool) {
		fs, ok := ranges[i]
		return fs, ok
	}
	plan, err := resolve(lookup, carriedOnly, section)
	if err != nil {
		return nil, fmt.Errorf("resolve: decode plan: %w", err)
	}
	return plan, nil
}

func decodeSection(w wirePlan) (metadata.Section, error) {
	decoders := make([]metadata.Decoder, 0, len(w.Decoders))
	for d, wd := range w.Decoders {
		inputs := make([]metadata.InputBinding, 0, len(wd.Inputs))
		for i, wb := range wd.Inputs {
			b, err := decodeBinding(wb)
			if err != nil {
				return metadata.Section{}, fmt.Errorf("decoder %d input %d: %w", d, i, err)
			}
			inputs = append(inputs, b)
		}
		outputs := make([]metadata.Output, 0, len(wd.Outputs))
		for o, length := range wd.Outputs {
			out, err := metadata.NewOutput(length)
			if err != nil {
				return metadata.Section{}, fmt.Errorf("decoder %d output %d: %w", d, o, err)
			}
			outputs = append(outputs, out)
		}
		settings := wd.Settings
		if settings == nil {
			settings = []byte{}
		}
		dec, err := metadata.NewDecoder(metadata.Method(wd.Method), settings, inputs, outputs)
		if err != nil {
			return metadata.Section{}, fmt.Errorf("decoder %d: %w", d, err)
		}
		decoders = append(decoders, dec)
	}

	subStreams := make([]metadata.SubStream, 0, len(w.SubStreams))
	for i, ws := range w.SubStreams {
		sub, err := metadata.NewSubStream(ws.Length)
		if err != nil {
			return metadata.Section{}, fmt.Errorf("sub-stream %d: %w", i, err)
		}
		if ws.Checksum != "" {
			c, err := metadata.ParseChecksum(ws.Checksum)
			if err != nil {
				return metadata.Section{}, fmt.Errorf("sub-stream %d: %w", i, err)
			}
			sub = sub.WithChecksum(c)
		}
		subStreams = append(subStreams, sub)
	}

	root, err := decodeBinding(w.Root)
	if err != nil {
		return metadata.Section{}, fmt.Errorf("root: %w", err)
	}
	section, err := metadata.NewSection(decoders, root, w.Length, subStreams)
	if err != nil {
		return metadata.Section{}, err
	}
	if w.Checksum != "" {
		c, err := metadata.ParseChecksum(w.Checksum)
		if err != nil {
			return metadata.Section{}, err
		}
		section = section.WithChecksum(c)
	}
	return section, nil
}

func encodeBinding(b metadata.InputBinding) wireBinding {
	if i, ok := b.Section(); ok {
		return wireBinding{Kind: uint8(metadata.BindingSection), Index: i}
	}
	d, o, _ := b.Decoder()
	return wireBinding{Kind: uint8(metadata.BindingDecoder), Index: d, Out: o}
}

func decodeBinding(w wireBinding) (metadata.InputBinding, error) {
	switch metadata.BindingKind(w.Kind) {
	case metadata.BindingSection:
		return metadata.FromSection(w.Index)
	case metadata.BindingDecoder:
		return metadata.FromDecoder(w.Index, w.Out)
	default:
		return metadata.InputBinding{}, fmt.Errorf("%w: unknown binding kind %d", metadata.ErrInvalidArgument, w.Kind)
	}
}
