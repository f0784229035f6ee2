package hooking

import (
	"sort"
	"sync"
)

// PosCounter counts how many times each hook position fired on each domain.
type PosCounter struct {
	lock   sync.Mutex
	counts map[string]map[string]uint64
}

// NewPosCounter creates a new PosCounter.
func NewPosCounter() *PosCounter {
	return &PosCounter{
		counts: make(map[string]map[string]uint64),
	}
}

// Func counts the invocation.
func (c *PosCounter) Func(ctx HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	domain := ctx.Domain.Name()

	perPos, ok := c.counts[domain]
	if !ok {
		perPos = make(map[string]uint64)
		c.counts[domain] = perPos
	}

	perPos[ctx.Pos.Name]++
}

// Count returns the number of times pos fired on the named domain.
func (c *PosCounter) Count(domain string, pos *HookPos) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[domain][pos.Name]
}

// Domains returns the names of all the domains seen, sorted.
func (c *PosCounter) Domains() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, 0, len(c.counts))
	for name := range c.counts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
