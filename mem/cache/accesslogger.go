package cache

import (
	"log"

	"github.com/sarchlab/cachesim/sim/hooking"
)

// AccessLogger is a hook that prints one line per cache event.
type AccessLogger struct {
	*log.Logger
}

// NewAccessLogger returns a new AccessLogger which writes into the logger.
func NewAccessLogger(logger *log.Logger) *AccessLogger {
	h := new(AccessLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *AccessLogger) Func(ctx hooking.HookCtx) {
	evt, ok := ctx.Item.(AccessEvent)
	if !ok {
		return
	}

	h.Printf("%s, %s, 0x%08x, set %d, way %d, tag 0x%x, latency %d",
		ctx.Domain.Name(), ctx.Pos.Name, evt.Addr,
		evt.SetID, evt.WayID, evt.Tag, evt.Latency)
}
