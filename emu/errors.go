package emu

import "errors"

var (
	// ErrUnknownCondition is returned for condition code 15, which is
	// reserved on ARMv4.
	ErrUnknownCondition = errors.New("unknown condition code")

	// ErrUnpredictable is returned when an instruction's result is
	// architecturally unpredictable. State is left unmodified.
	ErrUnpredictable = errors.New("unpredictable instruction")

	// ErrUnimplemented is returned by handlers for instructions that
	// decode but are not emulated, such as coprocessor operations.
	ErrUnimplemented = errors.New("unimplemented instruction")

	// ErrUndefinedInstruction is returned for words that match no
	// definition or carry an invalid operand encoding.
	ErrUndefinedInstruction = errors.New("undefined instruction")

	// ErrMaxInstructions is returned by the driver once its instruction
	// limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")
)
