package insts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sarchlab/armemu/bits"
)

// Fields is the result of matching a word against a Pattern. Every flag
// whose wildcard bit was 1 maps to 1 and every named field maps to its
// extracted value. Flags that were 0 have no entry.
type Fields map[string]uint32

// Flag reports whether the named flag was set.
func (f Fields) Flag(name string) bool {
	return f[name] != 0
}

// Value returns the value of a named field, or 0 if it is absent.
func (f Fields) Value(name string) uint32 {
	return f[name]
}

// Candidate is one legal bit string of a DecodeGroup together with the
// wildcard flags it sets.
type Candidate struct {
	Value uint32
	Flags []string
}

// DecodeGroup is a contiguous run of literal bits and single-character
// wildcards. It accepts exactly the 2^k bit strings obtained by assigning
// 0 or 1 to each of its k distinct wildcards. A wildcard repeated inside
// the group takes the same value at every occurrence.
type DecodeGroup struct {
	pos         uint
	length      uint
	literal     uint32
	literalMask uint32
	symbols     []string
	symbolMasks []uint32
	candidates  []Candidate
	lookup      map[uint32][]string
}

func newDecodeGroup(text string, pos uint) *DecodeGroup {
	n := uint(len(text))
	g := &DecodeGroup{pos: pos, length: n}
	index := make(map[byte]int)

	for i := 0; i < len(text); i++ {
		bit := n - 1 - uint(i)
		switch c := text[i]; c {
		case '0':
			g.literalMask |= 1 << bit
		case '1':
			g.literalMask |= 1 << bit
			g.literal |= 1 << bit
		default:
			k, ok := index[c]
			if !ok {
				k = len(g.symbols)
				index[c] = k
				g.symbols = append(g.symbols, string(c))
				g.symbolMasks = append(g.symbolMasks, 0)
			}
			g.symbolMasks[k] |= 1 << bit
		}
	}

	g.enumerate()
	return g
}

func (g *DecodeGroup) enumerate() {
	k := len(g.symbols)
	g.candidates = make([]Candidate, 0, 1<<k)
	g.lookup = make(map[uint32][]string, 1<<k)

	for combo := 0; combo < 1<<k; combo++ {
		v := g.literal
		var flags []string
		for j := 0; j < k; j++ {
			if combo&(1<<j) != 0 {
				v |= g.symbolMasks[j]
				flags = append(flags, g.symbols[j])
			}
		}
		g.candidates = append(g.candidates, Candidate{Value: v, Flags: flags})
		g.lookup[v] = flags
	}
}

// Pos returns the bit position of the group's rightmost bit.
func (g *DecodeGroup) Pos() uint { return g.pos }

// Len returns the number of bits the group covers.
func (g *DecodeGroup) Len() uint { return g.length }

// Symbols returns the group's distinct wildcard symbols, leftmost first.
func (g *DecodeGroup) Symbols() []string {
	return append([]string(nil), g.symbols...)
}

// Candidates returns every bit string the group accepts.
func (g *DecodeGroup) Candidates() []Candidate {
	return append([]Candidate(nil), g.candidates...)
}

// Resolve extracts the group's bits from word. It returns the flags set to
// 1 and whether the bits form a legal candidate.
func (g *DecodeGroup) Resolve(word uint32) ([]string, bool) {
	v := (word >> g.pos) & bits.Mask(g.length)
	flags, ok := g.lookup[v]
	return flags, ok
}

// Pattern is a compiled instruction encoding description.
//
// The description language reads most significant bit first:
//
//	0 1          a literal bit that must match
//	[01SW]       a decode group of literal bits and one-character flags
//	Rn(4)        a named field of the given width
//
// Bare literal bits outside brackets are checked like a literal-only
// group. Brackets take no bit positions.
type Pattern struct {
	desc       string
	width      uint
	groups     []*DecodeGroup
	fields     map[string]bits.FieldMask
	fieldOrder []string
}

type tokenKind int

const (
	tokenGroup tokenKind = iota
	tokenField
)

type token struct {
	kind   tokenKind
	text   string
	length uint
}

// Compile parses a pattern description.
func Compile(desc string) (*Pattern, error) {
	toks, err := tokenize(desc)
	if err != nil {
		return nil, err
	}

	var width uint
	for _, t := range toks {
		width += t.length
	}
	if width > 32 {
		return nil, fmt.Errorf("pattern %q is %d bits wide, more than 32", desc, width)
	}

	p := &Pattern{
		desc:   desc,
		width:  width,
		fields: make(map[string]bits.FieldMask),
	}

	flags := make(map[string]bool)
	pos := width
	for _, t := range toks {
		pos -= t.length
		switch t.kind {
		case tokenGroup:
			g := newDecodeGroup(t.text, pos)
			for _, s := range g.symbols {
				if flags[s] {
					return nil, fmt.Errorf("pattern %q: flag %q appears in more than one group", desc, s)
				}
				flags[s] = true
			}
			p.groups = append(p.groups, g)
		case tokenField:
			if _, dup := p.fields[t.text]; dup {
				return nil, fmt.Errorf("pattern %q: duplicate field %q", desc, t.text)
			}
			p.fields[t.text] = bits.NewFieldMask(pos, t.length)
			p.fieldOrder = append(p.fieldOrder, t.text)
		}
	}

	for name := range p.fields {
		if flags[name] {
			return nil, fmt.Errorf("pattern %q: %q is both a flag and a field", desc, name)
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on a malformed description.
func MustCompile(desc string) *Pattern {
	p, err := Compile(desc)
	if err != nil {
		panic(err)
	}
	return p
}

func tokenize(desc string) ([]token, error) {
	var toks []token

	for i := 0; i < len(desc); {
		c := desc[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '0' || c == '1':
			j := i
			for j < len(desc) && (desc[j] == '0' || desc[j] == '1') {
				j++
			}
			toks = append(toks, token{kind: tokenGroup, text: desc[i:j], length: uint(j - i)})
			i = j
		case c == '[':
			end := strings.IndexByte(desc[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("pattern %q: unterminated group at %d", desc, i)
			}
			body := desc[i+1 : i+1+end]
			if body == "" {
				return nil, fmt.Errorf("pattern %q: empty group at %d", desc, i)
			}
			if strings.ContainsAny(body, "[() \t") {
				return nil, fmt.Errorf("pattern %q: invalid symbol in group %q", desc, body)
			}
			toks = append(toks, token{kind: tokenGroup, text: body, length: uint(len(body))})
			i += end + 2
		case isIdentStart(c):
			j := i + 1
			for j < len(desc) && isIdentPart(desc[j]) {
				j++
			}
			name := desc[i:j]
			if j >= len(desc) || desc[j] != '(' {
				return nil, fmt.Errorf("pattern %q: field %q has no length", desc, name)
			}
			end := strings.IndexByte(desc[j+1:], ')')
			if end < 0 {
				return nil, fmt.Errorf("pattern %q: unterminated length for field %q", desc, name)
			}
			n, err := strconv.Atoi(desc[j+1 : j+1+end])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("pattern %q: invalid length for field %q", desc, name)
			}
			toks = append(toks, token{kind: tokenField, text: name, length: uint(n)})
			i = j + end + 2
		default:
			return nil, fmt.Errorf("pattern %q: unexpected %q at %d", desc, c, i)
		}
	}

	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// String returns the source description.
func (p *Pattern) String() string { return p.desc }

// Width returns the number of bits the pattern describes.
func (p *Pattern) Width() uint { return p.width }

// Groups returns the pattern's decode groups, leftmost first.
func (p *Pattern) Groups() []*DecodeGroup {
	return append([]*DecodeGroup(nil), p.groups...)
}

// FieldNames returns the names of the named fields, leftmost first.
func (p *Pattern) FieldNames() []string {
	return append([]string(nil), p.fieldOrder...)
}

// Field returns the mask of a named field.
func (p *Pattern) Field(name string) (bits.FieldMask, bool) {
	f, ok := p.fields[name]
	return f, ok
}

// Flags returns every flag symbol of the pattern in sorted order.
func (p *Pattern) Flags() []string {
	var out []string
	for _, g := range p.groups {
		out = append(out, g.symbols...)
	}
	sort.Strings(out)
	return out
}

// Match checks word against every decode group. Bits above Width are
// ignored.
func (p *Pattern) Match(word uint32) (Fields, bool) {
	var set []string
	for _, g := range p.groups {
		flags, ok := g.Resolve(word)
		if !ok {
			return nil, false
		}
		set = append(set, flags...)
	}

	f := make(Fields, len(set)+len(p.fieldOrder))
	for _, s := range set {
		f[s] = 1
	}
	for _, name := range p.fieldOrder {
		f[name] = p.fields[name].Extract(word)
	}
	return f, true
}

// Encode builds the word that matches with the given flags and field
// values. Missing entries encode as zero.
func (p *Pattern) Encode(f Fields) (uint32, error) {
	known := make(map[string]bool, len(p.fieldOrder))
	var word uint32

	for _, g := range p.groups {
		v := g.literal
		for j, s := range g.symbols {
			known[s] = true
			if f.Flag(s) {
				v |= g.symbolMasks[j]
			}
		}
		word |= v << g.pos
	}

	for _, name := range p.fieldOrder {
		known[name] = true
		m := p.fields[name]
		x := f[name]
		if x > bits.Mask(m.Len()) {
			return 0, fmt.Errorf("value %#x does not fit field %s%s", x, name, m)
		}
		word = m.Replace(word, x)
	}

	for name := range f {
		if !known[name] {
			return 0, fmt.Errorf("pattern %q has no flag or field %q", p.desc, name)
		}
	}

	return word, nil
}

// MustEncode is like Encode but panics on error.
func (p *Pattern) MustEncode(f Fields) uint32 {
	w, err := p.Encode(f)
	if err != nil {
		panic(err)
	}
	return w
}
