package trace

import (
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// EventTableName is the table the DBTracer writes into.
const EventTableName = "cache_events"

// EventEntry is a row of the cache event table.
type EventEntry struct {
	Seq     uint64
	Level   string
	What    string
	Addr    uint32
	SetID   int
	WayID   int
	Tag     uint32
	Latency uint32
}

// A DBTracer is a hook that records the events of the cache levels into a
// database using the data recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	seq          uint64
}

// NewDBTracer creates a DBTracer and its table.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(EventTableName, EventEntry{})

	return t
}

// Func records the event.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	evt, ok := ctx.Item.(cache.AccessEvent)
	if !ok {
		return
	}

	t.seq++

	t.dataRecorder.InsertData(EventTableName, EventEntry{
		Seq:     t.seq,
		Level:   ctx.Domain.Name(),
		What:    ctx.Pos.Name,
		Addr:    evt.Addr,
		SetID:   evt.SetID,
		WayID:   evt.WayID,
		Tag:     evt.Tag,
		Latency: evt.Latency,
	})
}

// NumEvents returns the number of events recorded.
func (t *DBTracer) NumEvents() uint64 {
	return t.seq
}
