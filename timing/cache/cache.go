// Package cache models a set-associative cache with true-LRU replacement.
//
// The model tracks tags only: no data lines, no dirty bits. Reads and
// writes follow the same hit/miss logic (write-allocate), so the cache
// answers the single question the pipeline asks: does this access stall.
package cache

import "fmt"

// Operation distinguishes read and write accesses. The two share hit/miss
// logic but are counted separately in the statistics.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
)

// String returns the operation name.
func (o Operation) String() string {
	if o == OpWrite {
		return "WRITE"
	}
	return "READ"
}

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size uint32
	// BlockSize in bytes (cache line size), power of two
	BlockSize uint32
	// Ways is the associativity
	Ways uint32
	// MissLatency in stall cycles charged to the pipeline on a miss
	MissLatency uint32
}

// NumSets returns the number of sets the configuration yields. Zero for
// degenerate configurations.
func (c Config) NumSets() uint32 {
	if c.BlockSize == 0 || c.Ways == 0 {
		return 0
	}
	return c.Size / (c.BlockSize * c.Ways)
}

// Validate checks that a non-degenerate configuration is internally
// consistent. Degenerate configurations (zero size, ways, or block size)
// are permitted and behave as an always-miss cache.
func (c Config) Validate() error {
	if c.Size == 0 || c.BlockSize == 0 || c.Ways == 0 {
		return nil
	}
	if c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("cache: block size %d is not a power of two", c.BlockSize)
	}
	if c.Size%(c.BlockSize*c.Ways) != 0 {
		return fmt.Errorf("cache: size %d is not divisible by %d ways of %d-byte blocks",
			c.Size, c.Ways, c.BlockSize)
	}
	return nil
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads  uint64
	Writes uint64
	Hits   uint64
	Misses uint64
}

// Accesses returns the total number of accesses.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

type way struct {
	tag     uint32
	valid   bool
	lastUse uint64
}

// Cache is a set-associative, true-LRU cache model.
//
// Recency is kept as a cache-wide counter that increments exactly once per
// access; the touched way records the counter value, so no two ways ever
// share a timestamp.
type Cache struct {
	config  Config
	numSets uint32
	sets    [][]way
	clock   uint64
	stats   Statistics
}

// New creates a cache from the configuration. Degenerate configurations
// produce a cache with no sets that misses on every access.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.NumSets()
	sets := make([][]way, numSets)
	for i := range sets {
		sets[i] = make([]way, config.Ways)
	}

	return &Cache{
		config:  config,
		numSets: numSets,
		sets:    sets,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Clock returns the current value of the cache-wide access counter.
func (c *Cache) Clock() uint64 {
	return c.clock
}

func (c *Cache) locate(address uint32) (setIndex, tag uint32) {
	block := address / c.config.BlockSize
	return block % c.numSets, block / c.numSets
}

// Access performs one read or write access and reports whether it hit.
//
// On a hit the touched way takes a fresh timestamp. On a miss the tag is
// installed in an invalid way if the set has one, otherwise in the way
// with the smallest timestamp (ties broken by lowest way index).
func (c *Cache) Access(address uint32, op Operation) bool {
	if op == OpWrite {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	if c.numSets == 0 {
		c.stats.Misses++
		return false
	}

	c.clock++
	setIndex, tag := c.locate(address)
	set := c.sets[setIndex]

	for i := range set {
		if set[i].valid && set[i].tag == tag {
			set[i].lastUse = c.clock
			c.stats.Hits++
			return true
		}
	}

	c.stats.Misses++
	c.install(set, tag)
	return false
}

// install places a tag into the set, preferring an invalid way and
// otherwise evicting the LRU way.
func (c *Cache) install(set []way, tag uint32) {
	victim := -1
	for i := range set {
		if !set[i].valid {
			victim = i
			break
		}
	}
	if victim < 0 {
		victim = 0
		for i := 1; i < len(set); i++ {
			if set[i].lastUse < set[victim].lastUse {
				victim = i
			}
		}
	}

	set[victim] = way{tag: tag, valid: true, lastUse: c.clock}
}

// Invalidate clears the way holding the given address, if present. It is
// not an access: the counter and statistics are untouched.
func (c *Cache) Invalidate(address uint32) {
	if c.numSets == 0 {
		return
	}

	setIndex, tag := c.locate(address)
	set := c.sets[setIndex]
	for i := range set {
		if set[i].valid && set[i].tag == tag {
			set[i] = way{}
			return
		}
	}
}

// Contains reports whether the address is currently cached, without
// touching recency or statistics. Intended for state dumps and tests.
func (c *Cache) Contains(address uint32) bool {
	if c.numSets == 0 {
		return false
	}
	setIndex, tag := c.locate(address)
	for _, w := range c.sets[setIndex] {
		if w.valid && w.tag == tag {
			return true
		}
	}
	return false
}

// WaySnapshot describes one way for state dumps.
type WaySnapshot struct {
	Set     uint32
	Way     uint32
	Tag     uint32
	Valid   bool
	LastUse uint64
}

// Snapshot returns the state of every way, set-major.
func (c *Cache) Snapshot() []WaySnapshot {
	out := make([]WaySnapshot, 0, c.numSets*c.config.Ways)
	for s := range c.sets {
		for w := range c.sets[s] {
			out = append(out, WaySnapshot{
				Set:     uint32(s),
				Way:     uint32(w),
				Tag:     c.sets[s][w].tag,
				Valid:   c.sets[s][w].valid,
				LastUse: c.sets[s][w].lastUse,
			})
		}
	}
	return out
}
