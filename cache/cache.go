// Package cache provides a set-associative decode cache built on Akita
// cache components. It maps instruction words to decoded instructions so
// hot loops skip the definition table scan.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/armemu/insts"
)

// blockSize is the size of one directory block. Each block holds the
// decoding of exactly one instruction word.
const blockSize = 4

// Config holds decode cache configuration parameters.
type Config struct {
	// Sets is the number of sets.
	Sets int
	// Ways is the associativity.
	Ways int
}

// DefaultConfig returns a 256-entry, 4-way configuration.
func DefaultConfig() Config {
	return Config{
		Sets: 64,
		Ways: 4,
	}
}

// Statistics holds decode cache statistics.
type Statistics struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Inserts   uint64
	Evictions uint64
}

// HitRate returns the fraction of lookups that hit.
func (s Statistics) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

// DecodeCache is an LRU set-associative cache of decoded instructions.
// Decoding depends only on the instruction word, so entries never go
// stale and the cache needs no invalidation on stores.
type DecodeCache struct {
	config Config

	// Akita cache directory for tag and LRU management
	directory *akitacache.DirectoryImpl

	// Decoded instructions, indexed by (setID * ways + wayID)
	entries []*insts.Instruction

	stats Statistics
}

// New creates a decode cache with the given configuration. It panics if
// the configuration has no sets or ways.
func New(config Config) *DecodeCache {
	if config.Sets <= 0 || config.Ways <= 0 {
		panic("cache: sets and ways must be positive")
	}

	return &DecodeCache{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			blockSize,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]*insts.Instruction, config.Sets*config.Ways),
	}
}

// Config returns the cache configuration.
func (c *DecodeCache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *DecodeCache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *DecodeCache) ResetStats() {
	c.stats = Statistics{}
}

// tag maps an instruction word to a block-aligned directory address.
func tag(word uint32) uint64 {
	return uint64(word) * blockSize
}

func (c *DecodeCache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Ways + block.WayID
}

func (c *DecodeCache) lookup(word uint32) *akitacache.Block {
	block := c.directory.Lookup(0, tag(word))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Lookup returns the cached decoding of word.
func (c *DecodeCache) Lookup(word uint32) (*insts.Instruction, bool) {
	c.stats.Lookups++

	block := c.lookup(word)
	if block == nil {
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.entries[c.blockIndex(block)], true
}

// Insert caches the decoding of word, evicting the least recently used
// entry of its set if the set is full.
func (c *DecodeCache) Insert(word uint32, inst *insts.Instruction) {
	c.stats.Inserts++

	if block := c.lookup(word); block != nil {
		c.entries[c.blockIndex(block)] = inst
		c.directory.Visit(block)
		return
	}

	victim := c.directory.FindVictim(tag(word))
	if victim == nil {
		return
	}
	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = tag(word)
	victim.IsValid = true
	c.entries[c.blockIndex(victim)] = inst
	c.directory.Visit(victim)
}

// Invalidate drops the entry for word, if any.
func (c *DecodeCache) Invalidate(word uint32) {
	if block := c.lookup(word); block != nil {
		block.IsValid = false
		c.entries[c.blockIndex(block)] = nil
	}
}

// Len returns the number of valid entries.
func (c *DecodeCache) Len() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Reset invalidates every entry and clears the statistics.
func (c *DecodeCache) Reset() {
	c.directory.Reset()
	clear(c.entries)
	c.stats = Statistics{}
}
