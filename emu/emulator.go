// Package emu provides functional ARMv4 emulation: the banked register
// file, condition and ALU semantics, instruction handlers and a
// fetch-decode-execute driver.
package emu

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armemu/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Instruction is the decoded instruction, if decoding succeeded.
	Instruction *insts.Instruction

	// Halted is true if the instruction branched to itself and the
	// emulator is configured to stop on such idle loops.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// DecodeCache remembers decoded instructions by instruction word.
type DecodeCache interface {
	Lookup(word uint32) (*insts.Instruction, bool)
	Insert(word uint32, inst *insts.Instruction)
}

// Emulator fetches, decodes and executes ARM instructions from memory.
type Emulator struct {
	state  *State
	memory *Memory
	table  *Table
	cache  DecodeCache
	logger logrus.FieldLogger

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	haltOnSelfBranch bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory uses m instead of a fresh empty memory.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithTable shares an existing instruction table.
func WithTable(t *Table) EmulatorOption {
	return func(e *Emulator) {
		e.table = t
	}
}

// WithDecodeCache caches decoded instructions.
func WithDecodeCache(c DecodeCache) EmulatorOption {
	return func(e *Emulator) {
		e.cache = c
	}
}

// WithLogger sets the logger for step tracing and faults.
func WithLogger(l logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = l
	}
}

// WithMode sets the initial processor mode.
func WithMode(m Mode) EmulatorOption {
	return func(e *Emulator) {
		e.state.SetMode(m)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithHaltOnSelfBranch stops Run when an instruction branches to itself.
func WithHaltOnSelfBranch(halt bool) EmulatorOption {
	return func(e *Emulator) {
		e.haltOnSelfBranch = halt
	}
}

// NewEmulator creates a new emulator in the processor reset state.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		state:            NewState(),
		logger:           logrus.StandardLogger(),
		haltOnSelfBranch: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory()
	}
	if e.table == nil {
		e.table = NewTable()
	}
	e.state.SetBus(e.memory)

	return e
}

// State returns the processor state.
func (e *Emulator) State() *State {
	return e.state
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram copies program to entry and starts execution there.
func (e *Emulator) LoadProgram(entry uint32, program []byte) {
	e.memory.LoadProgram(entry, program)
	e.state.SetCurrentAddress(entry)
}

// decode looks word up in the decode cache before scanning the table.
func (e *Emulator) decode(word uint32) *insts.Instruction {
	if e.cache != nil {
		if inst, ok := e.cache.Lookup(word); ok {
			return inst
		}
	}

	inst := e.table.Decode(word)
	if e.cache != nil && inst.Op != insts.OpUnknown {
		e.cache.Insert(word, inst)
	}
	return inst
}

// Step executes a single instruction. On error the processor stays at the
// faulting instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	addr := e.state.CurrentAddress()
	if e.state.Thumb() {
		return StepResult{Err: fmt.Errorf("%w: thumb state at %#08x", ErrUnimplemented, addr)}
	}

	word := e.memory.Read32(addr)
	inst := e.decode(word)
	log := e.logger.WithFields(logrus.Fields{
		"address": fmt.Sprintf("%#08x", addr),
		"word":    fmt.Sprintf("%#08x", word),
	})

	if inst.Op == insts.OpUnknown {
		log.Warn("undefined instruction")
		return StepResult{
			Instruction: inst,
			Err:         fmt.Errorf("%w: %#08x at %#08x", ErrUndefinedInstruction, word, addr),
		}
	}

	log.WithField("inst", inst.String()).Debug("step")

	if err := e.table.Dispatch(e.state, inst); err != nil {
		log.WithError(err).WithField("inst", inst.String()).Warn("instruction fault")
		return StepResult{
			Instruction: inst,
			Err:         fmt.Errorf("%s at %#08x: %w", inst, addr, err),
		}
	}
	e.instructionCount++

	halted := e.haltOnSelfBranch && e.state.Branched() && e.state.NextAddress() == addr
	e.state.Advance()

	return StepResult{Instruction: inst, Halted: halted}
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() StepResult {
	for {
		result := e.Step()
		if result.Err != nil || result.Halted {
			if result.Halted {
				e.logger.WithField("instructions", e.instructionCount).Info("halted on branch to self")
			}
			return result
		}
	}
}
