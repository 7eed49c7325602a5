// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import "fmt"

// cache owns every batch a connection has compiled and not yet
// finalized. Batches live in an arena addressed by slot; chains maps
// each query text to a stack of slots whose batches are idle. A batch
// that is checked out is in the arena but on no stack.
//
// cache is pure bookkeeping: it never calls the engine. Compiling,
// rewinding, and finalizing are the Connection's job.
type cache struct {
	arena  []*batch
	free   []int
	chains map[string][]int
}

func newCache() *cache {
	return &cache{chains: make(map[string][]int)}
}

// add places a freshly compiled, checked-out batch in the arena.
func (c *cache) add(b *batch) {
	if n := len(c.free); n > 0 {
		b.slot = c.free[n-1]
		c.free = c.free[:n-1]
		c.arena[b.slot] = b
		return
	}
	b.slot = len(c.arena)
	c.arena = append(c.arena, b)
}

// pop unlinks the most recently pushed idle batch for query and marks
// it checked out. It returns nil when no batch is idle.
func (c *cache) pop(query string) *batch {
	chain := c.chains[query]
	if len(chain) == 0 {
		return nil
	}
	slot := chain[len(chain)-1]
	if len(chain) == 1 {
		delete(c.chains, query)
	} else {
		c.chains[query] = chain[:len(chain)-1]
	}

	b := c.arena[slot]
	if b == nil || b.state != stateCached {
		panic(fmt.Sprintf("sqlconn: cache chain for %q references slot %d in state %v", query, slot, stateOf(b)))
	}
	b.state = stateCheckedOut
	return b
}

// push links a checked-out batch onto the front of its query's chain.
func (c *cache) push(b *batch) {
	if b.state != stateCheckedOut {
		panic(fmt.Sprintf("sqlconn: checkin of batch in state %v", b.state))
	}
	if b.slot >= len(c.arena) || c.arena[b.slot] != b {
		panic(fmt.Sprintf("sqlconn: checkin of batch not owned by this cache (slot %d)", b.slot))
	}
	b.state = stateCached
	c.chains[b.query] = append(c.chains[b.query], b.slot)
}

// remove drops a checked-out batch from the arena without caching it.
func (c *cache) remove(b *batch) {
	if b.slot < len(c.arena) && c.arena[b.slot] == b {
		c.arena[b.slot] = nil
		c.free = append(c.free, b.slot)
	}
}

// drain returns every batch in the arena, cached or checked out, and
// empties the cache.
func (c *cache) drain() []*batch {
	var batches []*batch
	for _, b := range c.arena {
		if b != nil {
			batches = append(batches, b)
		}
	}
	c.arena = nil
	c.free = nil
	c.chains = make(map[string][]int)
	return batches
}

// counts reports how many live batches are idle and checked out.
func (c *cache) counts() (cached, outstanding int) {
	for _, b := range c.arena {
		if b == nil {
			continue
		}
		switch b.state {
		case stateCached:
			cached++
		case stateCheckedOut:
			outstanding++
		}
	}
	return cached, outstanding
}

func stateOf(b *batch) string {
	if b == nil {
		return "empty"
	}
	return b.state.String()
}
