package cache

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
)

// Handle dispatches a self-event to the handler for its kind. This is the
// component's entire entry point; every incoming message is first turned
// into a selfRowRetry event by NotifyRecv so that all state transitions
// happen on the event queue (spec §9, "deep dispatch chains").
func (c *Comp) Handle(e sim.Event) error {
	evt, ok := e.(*selfEvent)
	if !ok {
		log.Panicf("cache: cannot handle event of type %T", e)
	}

	switch evt.kind {
	case selfRowRetry:
		return c.handlePortRetry(evt)
	case selfAccessDone:
		return c.handleAccessDone(evt)
	case selfFillArrived:
		return c.handleFillArrived(evt)
	case selfSupplySent:
		return c.handleSupplySent(evt)
	case selfWritebackSent:
		return c.handleWritebackSent(evt)
	case selfBusGranted:
		return c.handleBusGranted(evt)
	case selfRetrySend:
		return c.handleRetrySend(evt)
	default:
		log.Panicf("cache: unknown self-event kind %d", evt.kind)
	}
	return nil
}

// handlePortRetry drains every ready message off the port that woke the
// component and dispatches each in arrival order.
func (c *Comp) handlePortRetry(evt *selfEvent) error {
	port := evt.port
	for {
		msg := port.RetrieveIncoming()
		if msg == nil {
			return nil
		}
		cm, ok := msg.(*CacheMsg)
		if !ok {
			log.Panicf("cache: unexpected message type %T on %s", msg, port.Name())
		}
		traceReceive(cm, c)
		c.dispatch(cm, evt.source, evt.linkID)
	}
}

// handleRetrySend re-attempts sending a message that previously failed.
func (c *Comp) handleRetrySend(evt *selfEvent) error {
	c.send(evt.port, evt.pending)
	return nil
}

// dispatch routes a CacheMsg to the handler for its command, the single
// entry point spec §4.2 describes as the controller's command table.
func (c *Comp) dispatch(msg *CacheMsg, source LinkKind, linkID int) {
	switch msg.Cmd {
	case ReadReq, WriteReq:
		c.handleCPURequest(msg, source, linkID)
	case RequestData:
		c.handleRequestData(msg, source, linkID)
	case SupplyData:
		c.handleSupplyData(msg, source, linkID)
	case Invalidate:
		c.handleInvalidate(msg, source, linkID)
	case ACK:
		c.handleACK(msg, source, linkID)
	case NACK:
		c.handleNACK(msg, source, linkID)
	case Fetch, FetchInvalidate:
		c.handleFetch(msg, source, linkID)
	case BusClearToSend:
		c.handleBusClearToSend(msg, source, linkID)
	default:
		log.Panicf("cache: unhandled command %s", msg.Cmd)
	}
}
