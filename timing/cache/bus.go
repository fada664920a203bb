package cache

import "fmt"

// busTicket tracks one outstanding request for the shared snoop bus: the
// work to run once the arbiter grants it (onGranted, analogous to the
// SST bus queue's "init" callback which attaches fresh payload right
// before the send) and the work to run once the simulated transfer
// completes (onDone, the "finish" callback).
type busTicket struct {
	key       string
	canceled  bool
	onGranted func()
	onDone    func()
}

// requestBus enqueues a bus transaction and returns the ticket a caller
// needs to cancel it later (spec §4, "snoop-bus queue adapter").
func (c *Comp) requestBus(onGranted, onDone func()) *busTicket {
	if c.busTickets == nil {
		c.busTickets = make(map[string]*busTicket)
	}
	c.busSeq++
	key := fmt.Sprintf("%s#%d", c.name, c.busSeq)
	t := &busTicket{key: key, onGranted: onGranted, onDone: onDone}
	c.busTickets[key] = t
	c.bus.Request(key, 0)
	return t
}

// cancelBus withdraws a still-queued or already-granted-but-not-yet-fired
// bus ticket. A nil or already-canceled ticket is a no-op (spec §5,
// "a snoop-bus request may be cancelled while still queued").
func (c *Comp) cancelBus(t *busTicket) {
	if t == nil || t.canceled {
		return
	}
	t.canceled = true
	delete(c.busTickets, t.key)
	c.bus.Cancel(t.key)
}

// onBusGrant is the callback handed to the SnoopBus arbiter at construction
// time. It runs the ticket's init work immediately (the arbiter has just
// cleared this requester to send) and schedules the self-event that will
// run the finish work once the simulated transfer completes.
func (c *Comp) onBusGrant(key string) {
	t, ok := c.busTickets[key]
	if !ok {
		return // canceled before grant
	}
	if t.onGranted != nil {
		t.onGranted()
	}
	evt := c.scheduleSelf(selfBusGranted, c.config.AccessTime)
	evt.peer = key
}

// handleBusGranted fires once a granted bus transaction's simulated
// transfer time has elapsed, running the ticket's finish work and freeing
// the bus for the next queued requester.
func (c *Comp) handleBusGranted(evt *selfEvent) error {
	t, ok := c.busTickets[evt.peer]
	if !ok {
		return nil // canceled between grant and fire
	}
	delete(c.busTickets, evt.peer)
	c.bus.Done(evt.peer)
	if t.onDone != nil {
		t.onDone()
	}
	return nil
}

// handleBusClearToSend handles a BusClearToSend command arriving as an
// actual message on the snoop port, for a SnoopBus implementation that is
// itself a separate Akita component rather than an in-process callback
// (spec §6, "delivering BusClearToSend when our request reaches the
// head"). The message's RspTo field carries the bus ticket key.
func (c *Comp) handleBusClearToSend(msg *CacheMsg, source LinkKind, linkID int) {
	c.onBusGrant(msg.RspTo)
}
