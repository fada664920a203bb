package cache

import "github.com/sarchlab/akita/v4/sim"

// selfEventKind distinguishes the deferred, re-entrant steps a cache
// controller schedules on itself (spec §9, "model the self-event loop with
// explicit tagged events rather than a single generic 'continue' event").
type selfEventKind int

const (
	// selfAccessDone fires once a hit or miss's access latency has
	// elapsed and the dispatcher should resume handling the request.
	selfAccessDone selfEventKind = iota

	// selfRetrySend fires when a blocked port send should be retried.
	selfRetrySend

	// selfRowRetry is scheduled by NotifyRecv when a port has incoming
	// messages; it drains that port and dispatches each message.
	selfRowRetry

	// selfFillArrived fires once a requested fill's simulated transfer
	// time has elapsed and the block can be installed.
	selfFillArrived

	// selfSupplySent fires once a snoop supply's simulated transfer time
	// has elapsed.
	selfSupplySent

	// selfWritebackSent fires once a writeback's simulated transfer time
	// has elapsed.
	selfWritebackSent

	// selfBusGranted fires one access time after the snoop bus arbiter
	// granted a request, once its simulated transfer has completed; it
	// runs the request's finish work and releases the bus.
	selfBusGranted
)

// selfEvent is the single tagged-union event type the controller schedules
// on itself, carrying whichever state the handler for its kind needs.
type selfEvent struct {
	*sim.EventBase

	kind selfEventKind

	msg     *CacheMsg
	source  LinkKind
	linkID  int
	addr    uint64
	row     int
	col     int
	port    sim.Port
	pending *CacheMsg
	peer    string
}

func newSelfEvent(t sim.VTimeInSec, handler sim.Handler, kind selfEventKind) *selfEvent {
	return &selfEvent{EventBase: sim.NewEventBase(t, handler), kind: kind}
}
