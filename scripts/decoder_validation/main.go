// Validate decode throughput - compares the linear definition scan with
// the decode cache and reports allocation rates for both.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/armemu/cache"
	"github.com/sarchlab/armemu/insts"
)

// A small loop body mixing the formats that sit early and late in the
// definition table.
var words = []uint32{
	0xE2821005, // ADD r1, r2, #5
	0xE0510002, // SUBS r0, r1, r2
	0xE5901004, // LDR r1, [r0, #4]
	0xE92D4003, // STMDB sp!, {r0, r1, lr}
	0xE0010392, // MUL r1, r2, r3
	0x1AFFFFFC, // BNE
}

const iterations = 100000

type result struct {
	name        string
	elapsed     time.Duration
	allocations uint64
	bytes       uint64
}

func measure(name string, decode func(word uint32)) result {
	// Warm up
	for i := 0; i < 1000; i++ {
		for _, w := range words {
			decode(w)
		}
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		for _, w := range words {
			decode(w)
		}
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	return result{
		name:        name,
		elapsed:     elapsed,
		allocations: m2.Mallocs - m1.Mallocs,
		bytes:       m2.TotalAlloc - m1.TotalAlloc,
	}
}

func main() {
	decoder := insts.NewDecoder()
	dc := cache.New(cache.DefaultConfig())

	results := []result{
		measure("table scan", func(w uint32) {
			decoder.Decode(w)
		}),
		measure("decode cache", func(w uint32) {
			if _, ok := dc.Lookup(w); !ok {
				dc.Insert(w, decoder.Decode(w))
			}
		}),
	}

	total := iterations * len(words)

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Decode operations per run: %d\n\n", total)

	for _, r := range results {
		fmt.Printf("%s:\n", r.name)
		fmt.Printf("  Time elapsed: %v\n", r.elapsed)
		fmt.Printf("  Decodes per second: %.0f\n", float64(total)/r.elapsed.Seconds())
		fmt.Printf("  Allocations per decode: %.3f\n", float64(r.allocations)/float64(total))
		fmt.Printf("  Bytes per decode: %.1f\n", float64(r.bytes)/float64(total))
	}

	stats := dc.Stats()
	fmt.Printf("\nDecode cache hit rate: %.2f%%\n", 100*stats.HitRate())

	if results[1].elapsed < results[0].elapsed {
		fmt.Printf("Speedup: %.1fx\n", results[0].elapsed.Seconds()/results[1].elapsed.Seconds())
	} else {
		fmt.Printf("WARNING: decode cache is not faster than the table scan\n")
	}
}
