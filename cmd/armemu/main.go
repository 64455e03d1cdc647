// Package main provides the armemu command line: it runs an ARM ELF or raw
// ROM image on the functional emulator, or scans an image for one
// instruction.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armemu/config"
	"github.com/sarchlab/armemu/emu"
	"github.com/sarchlab/armemu/loader"
)

var (
	configPath = flag.String("config", "", "Path to emulator configuration JSON file")
	saveConfig = flag.String("save-config", "", "Write the effective configuration to this path and exit")
	entry      = flag.String("entry", "", "Entry point address, overriding the image and config")
	loadAddr   = flag.String("load", "", "Load address for raw ROM images")
	maxInstr   = flag.Uint64("max", 0, "Maximum instructions to execute (0 = config value)")
	mode       = flag.String("mode", "", "Initial processor mode (usr, fiq, irq, svc, abt, und, sys)")
	verbose    = flag.Bool("v", false, "Verbose output (debug logging of every step)")
	dump       = flag.Bool("dump", false, "Dump the processor state when the run ends")
	scan       = flag.String("scan", "", "Print every instruction in the image matching this mnemonic")
	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to file")
	memProfile = flag.String("memprofile", "", "Write a memory profile to file")
)

var fieldDump = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func main() {
	flag.Parse()
	os.Exit(run())
}

// run executes the command selected by the flags and returns the exit
// code. Deferred profile writers run before the process exits.
func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			return 1
		}
		return 0
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: armemu [options] <image>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		return 1
	}
	imagePath := flag.Arg(0)

	if *scan != "" {
		if err := scanImage(imagePath, *scan, *verbose, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning image: %v\n", err)
			return 1
		}
		return 0
	}

	prog, err := loader.Load(imagePath, cfg.LoadAddress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		return 1
	}

	logger := logrus.New()
	logger.SetLevel(cfg.Level())
	logger.WithFields(logrus.Fields{
		"image":    imagePath,
		"entry":    fmt.Sprintf("%#08x", prog.EntryPoint),
		"segments": len(prog.Segments),
	}).Info("loaded")

	if *cpuProfile != "" {
		stop, err := startCPUProfile(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer stop()
	}

	code := runEmulation(cfg, prog, logger, os.Stdout)

	if *memProfile != "" {
		if err := writeMemProfile(*memProfile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	return code
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	if *entry != "" {
		v, err := parseAddress(*entry)
		if err != nil {
			return nil, fmt.Errorf("-entry: %w", err)
		}
		cfg.EntryPoint = v
		cfg.ForceEntry = true
	}
	if *loadAddr != "" {
		v, err := parseAddress(*loadAddr)
		if err != nil {
			return nil, fmt.Errorf("-load: %w", err)
		}
		cfg.LoadAddress = v
	}
	if *maxInstr != 0 {
		cfg.MaxInstructions = *maxInstr
	}
	if *mode != "" {
		cfg.InitialMode = *mode
	}
	if *verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}

	return cfg, cfg.Validate()
}

// parseAddress accepts decimal, 0x hex, 0o octal and 0b binary.
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// runEmulation loads prog into a fresh emulator configured by cfg and runs
// it to completion. It returns the process exit code.
func runEmulation(cfg *config.Config, prog *loader.Program, logger *logrus.Logger, out io.Writer) int {
	opts, dc, err := cfg.EmulatorOptions(logger)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}

	emulator := emu.NewEmulator(opts...)
	prog.LoadInto(emulator.Memory())

	start := prog.EntryPoint
	if cfg.ForceEntry || len(prog.Segments) == 0 {
		start = cfg.EntryPoint
	}
	emulator.State().SetCurrentAddress(start)
	if prog.InitialSP != 0 {
		emulator.State().WriteReg(emu.RegSP, prog.InitialSP)
	}

	result := emulator.Run()

	fmt.Fprintf(out, "Instructions executed: %d\n", emulator.InstructionCount())
	fmt.Fprintf(out, "Stopped at: %#08x\n", emulator.State().CurrentAddress())
	if dc != nil {
		stats := dc.Stats()
		fmt.Fprintf(out, "Decode cache: %d hits, %d misses (%.1f%%)\n",
			stats.Hits, stats.Misses, 100*stats.HitRate())
	}
	if *dump {
		fmt.Fprint(out, emulator.State().Dump())
	}

	if result.Err != nil {
		fmt.Fprintf(out, "Error: %v\n", result.Err)
		return 1
	}
	return 0
}

// scanImage prints the offset and disassembly of every word in the image
// at path that decodes as mnemonic. With fields set, it also dumps the raw
// pattern fields of each match.
func scanImage(path, mnemonic string, fields bool, out io.Writer) error {
	table := emu.NewTable()
	e, ok := table.Lookup(mnemonic)
	if !ok {
		return fmt.Errorf("unknown mnemonic %q", mnemonic)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	count := 0
	err = loader.ReadWords(f, func(offset, word uint32) error {
		// Words claimed by a higher priority encoding are not matches.
		hit, inst, ok := table.Match(word)
		if !ok || hit != e {
			return nil
		}
		count++
		fmt.Fprintf(out, "%08x: %08x  %s\n", offset, word, inst)
		if fields {
			fieldDump.Fdump(out, inst.Fields)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d %s instructions\n", count, e.Mnemonic())
	return nil
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return pprof.WriteHeapProfile(f)
}
