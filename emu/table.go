package emu

import (
	"fmt"

	"github.com/sarchlab/armemu/insts"
)

// Entry pairs an instruction definition with the handler that executes it.
type Entry struct {
	Def     *insts.Definition
	Handler Handler
}

// Mnemonic returns the entry's mnemonic.
func (e *Entry) Mnemonic() string {
	return e.Def.Mnemonic
}

var formatHandlers = map[insts.Format]Handler{
	insts.FormatDataProc:          execDataProcessing,
	insts.FormatMultiply:          execMultiply,
	insts.FormatMultiplyLong:      execMultiplyLong,
	insts.FormatBranch:            execBranch,
	insts.FormatBranchExchange:    execBranchExchange,
	insts.FormatPSRRead:           execMRS,
	insts.FormatPSRWrite:          execMSR,
	insts.FormatLoadStore:         execLoadStore,
	insts.FormatLoadStoreHalf:     execLoadStoreHalf,
	insts.FormatLoadStoreMultiple: execLoadStoreMultiple,
	insts.FormatSwap:              execSwap,
	insts.FormatSWI:               execSWI,
	insts.FormatCoprocData:        execCoprocessor,
	insts.FormatCoprocTransfer:    execCoprocessor,
	insts.FormatCoprocRegister:    execCoprocessor,
}

// Table is the instruction table: every definition in match priority
// order with its handler. It is read-only after construction and may be
// shared between processors.
type Table struct {
	entries    []*Entry
	byMnemonic map[string]*Entry
	byOp       map[insts.Op]*Entry
	decoder    *insts.Decoder
}

// NewTable builds the table from insts.Definitions. It panics if a
// definition has no handler.
func NewTable() *Table {
	defs := insts.Definitions()
	t := &Table{
		byMnemonic: make(map[string]*Entry, len(defs)),
		byOp:       make(map[insts.Op]*Entry, len(defs)),
		decoder:    insts.NewDecoderFor(defs),
	}

	for _, def := range defs {
		h, ok := formatHandlers[def.Format]
		if !ok {
			panic(fmt.Sprintf("emu: no handler for %s (%s)", def.Mnemonic, def.Format))
		}
		e := &Entry{Def: def, Handler: h}
		t.entries = append(t.entries, e)
		t.byMnemonic[def.Mnemonic] = e
		t.byOp[def.Op] = e
	}

	return t
}

// Entries returns the table entries in match priority order.
func (t *Table) Entries() []*Entry {
	return append([]*Entry(nil), t.entries...)
}

// Lookup returns the entry for a mnemonic.
func (t *Table) Lookup(mnemonic string) (*Entry, bool) {
	e, ok := t.byMnemonic[mnemonic]
	return e, ok
}

// Decode decodes word with the table's definitions.
func (t *Table) Decode(word uint32) *insts.Instruction {
	return t.decoder.Decode(word)
}

// Match returns the first entry whose pattern matches word together with
// the decoded instruction.
func (t *Table) Match(word uint32) (*Entry, *insts.Instruction, bool) {
	inst, ok := t.decoder.Match(word)
	if !ok {
		return nil, nil, false
	}
	return t.byOp[inst.Op], inst, true
}

// Dispatch runs the handler for an already decoded instruction.
func (t *Table) Dispatch(s *State, inst *insts.Instruction) error {
	e, ok := t.byOp[inst.Op]
	if !ok {
		return fmt.Errorf("%w: %#08x", ErrUndefinedInstruction, inst.Word)
	}
	return e.Handler(s, inst)
}

// Execute decodes word and runs its handler against s. It does not
// advance the instruction address.
func (t *Table) Execute(s *State, word uint32) (*insts.Instruction, error) {
	_, inst, ok := t.Match(word)
	if !ok {
		return nil, fmt.Errorf("%w: %#08x", ErrUndefinedInstruction, word)
	}
	return inst, t.Dispatch(s, inst)
}
