package cache

import (
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// The hook positions of a cache level.
var (
	HookPosHit            = &hooking.HookPos{Name: "CacheHit"}
	HookPosMiss           = &hooking.HookPos{Name: "CacheMiss"}
	HookPosEvict          = &hooking.HookPos{Name: "CacheEvict"}
	HookPosBackInvalidate = &hooking.HookPos{Name: "CacheBackInvalidate"}
)

// AccessEvent is the item of all the cache hooks.
type AccessEvent struct {
	// Addr is the referenced address for hits and misses and the block
	// address for evictions and invalidations.
	Addr    uint32
	Tag     uint32
	SetID   int
	WayID   int
	Latency uint32
}

func (l *Level) traceHit(addr uint32, block tagging.Block) {
	if l.NumHooks() == 0 {
		return
	}

	l.invoke(HookPosHit, addr, block, l.hitTime)
}

func (l *Level) traceMiss(addr uint32, block tagging.Block, penalty uint32) {
	if l.NumHooks() == 0 {
		return
	}

	l.invoke(HookPosMiss, addr, block, l.hitTime+penalty)
}

func (l *Level) traceEvict(blockAddr uint32, block tagging.Block) {
	if l.NumHooks() == 0 {
		return
	}

	l.invoke(HookPosEvict, blockAddr, block, 0)
}

func (l *Level) traceBackInvalidate(blockAddr uint32, block tagging.Block) {
	if l.NumHooks() == 0 {
		return
	}

	l.invoke(HookPosBackInvalidate, blockAddr, block, 0)
}

func (l *Level) invoke(
	pos *hooking.HookPos,
	addr uint32,
	block tagging.Block,
	latency uint32,
) {
	ctx := hooking.HookCtx{
		Domain: l,
		Pos:    pos,
		Item: AccessEvent{
			Addr:    addr,
			Tag:     block.Tag,
			SetID:   block.SetID,
			WayID:   block.WayID,
			Latency: latency,
		},
	}

	l.InvokeHook(ctx)
}
