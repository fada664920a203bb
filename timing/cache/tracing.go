package cache

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"
)

// traceReceive records that msg has arrived at the cache, in the idiom of
// mem/cache/writeevict's coalescer.
func traceReceive(msg sim.Msg, domain tracing.NamedHookable) {
	tracing.TraceReqReceive(msg, domain)
}

// traceComplete records that msg has been fully answered, in the idiom of
// mem/cache/writeevict's respond stage.
func traceComplete(msg sim.Msg, domain tracing.NamedHookable) {
	tracing.TraceReqComplete(msg, domain)
}
