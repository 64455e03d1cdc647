// Package main provides the entry point for armemu.
// armemu is a functional ARMv4 instruction set emulator.
//
// For the full CLI, use: go run ./cmd/armemu
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("armemu - ARMv4 Instruction Set Emulator")
	fmt.Println("")
	fmt.Println("Usage: armemu [options] <image>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to emulator configuration JSON file")
	fmt.Println("  -entry     Entry point address")
	fmt.Println("  -max       Maximum instructions to execute")
	fmt.Println("  -scan      List the instructions matching a mnemonic")
	fmt.Println("  -dump      Dump the processor state after the run")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/armemu' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/armemu' instead.")
	}
}
