package insts

// Decoder decodes ARM machine words into instructions by scanning the
// definition table in priority order.
type Decoder struct {
	defs []*Definition
}

// NewDecoder creates a decoder over every known definition.
func NewDecoder() *Decoder {
	return &Decoder{defs: definitions}
}

// NewDecoderFor creates a decoder restricted to the given definitions,
// tried in the order given.
func NewDecoderFor(defs []*Definition) *Decoder {
	return &Decoder{defs: append([]*Definition(nil), defs...)}
}

// Decode decodes a 32-bit instruction word. A word that no definition
// matches decodes to an instruction with Op set to OpUnknown.
func (d *Decoder) Decode(word uint32) *Instruction {
	if inst, ok := d.Match(word); ok {
		return inst
	}
	return &Instruction{
		Op:     OpUnknown,
		Format: FormatUnknown,
		Cond:   Cond(word >> 28),
		Word:   word,
	}
}

// Match returns the first definition's decoding of word.
func (d *Decoder) Match(word uint32) (*Instruction, bool) {
	for _, def := range d.defs {
		if inst, ok := def.Decode(word); ok {
			return inst, true
		}
	}
	return nil, false
}
