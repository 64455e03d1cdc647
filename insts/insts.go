// Package insts provides ARMv4 instruction definitions and decoding.
//
// Encodings are written in a small pattern language (see Pattern) and
// compiled once at package initialization. Decoding scans the definitions
// in priority order and builds a typed Instruction from the first match.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xE2821005) // ADD r1, r2, #5
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d\n", inst.Op, inst.Rd, inst.Rn)
package insts
